// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	testingutil "github.com/AlexPupki/gtsv-pricing/testing"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("TableName", func(t *testing.T) {
			service := &models.Service{}
			assert.Equal(t, "services", service.TableName())
		})

		t.Run("CreateAssignsUUID", func(t *testing.T) {
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, service.UUID)
			assert.Equal(t, "boat", service.Category)
			assert.Equal(t, 12, service.MaxGroupSize)
			assert.True(t, *service.IsActive)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPriceList(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("TableName", func(t *testing.T) {
			list := &models.PriceList{}
			assert.Equal(t, "price_lists", list.TableName())
		})

		t.Run("CreateDefaultsToDraftVersionOne", func(t *testing.T) {
			list, err := fixtures.CreateTestPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			assert.Equal(t, models.PriceListStatusDraft, list.Status)
			assert.Equal(t, 1, list.Version)
			assert.NotEqual(t, uuid.Nil, list.LineageID)
			assert.Equal(t, utils.DefaultCurrency, list.Currency)
		})

		t.Run("StatusTransitions", func(t *testing.T) {
			draft := &models.PriceList{Status: models.PriceListStatusDraft}
			assert.True(t, draft.CanTransitionTo(models.PriceListStatusPublished))
			assert.True(t, draft.CanTransitionTo(models.PriceListStatusArchived))

			published := &models.PriceList{Status: models.PriceListStatusPublished}
			assert.False(t, published.CanTransitionTo(models.PriceListStatusDraft))
			assert.True(t, published.CanTransitionTo(models.PriceListStatusArchived))

			archived := &models.PriceList{Status: models.PriceListStatusArchived}
			assert.False(t, archived.CanTransitionTo(models.PriceListStatusDraft))
			assert.False(t, archived.CanTransitionTo(models.PriceListStatusPublished))
		})

		t.Run("Editability", func(t *testing.T) {
			assert.True(t, (&models.PriceList{Status: models.PriceListStatusDraft}).IsEditable())
			assert.False(t, (&models.PriceList{Status: models.PriceListStatusPublished}).IsEditable())
			assert.False(t, (&models.PriceList{Status: models.PriceListStatusArchived}).IsEditable())
		})

		t.Run("ValidAt", func(t *testing.T) {
			now := utils.UTCNow()
			to := now.Add(48 * time.Hour)
			list := &models.PriceList{ValidFrom: now, ValidTo: &to}
			assert.True(t, list.ValidAt(now.Add(time.Hour)))
			assert.False(t, list.ValidAt(now.Add(-time.Hour)))
			assert.False(t, list.ValidAt(to.Add(time.Hour)))

			openEnded := &models.PriceList{ValidFrom: now}
			assert.True(t, openEnded.ValidAt(now.Add(365*24*time.Hour)))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPriceRule(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		list, err := fixtures.CreateTestPriceList(models.SeasonLow, models.ChannelWebsite, models.SegmentStandard)
		require.NoError(t, err)
		service, err := fixtures.CreateTestService("jetski", 2)
		require.NoError(t, err)

		t.Run("CreateDefaultsMultipliersToOne", func(t *testing.T) {
			rule := &models.PriceRule{
				PriceListID: list.ID,
				ServiceID:   service.ID,
				BasePrice:   4500,
			}
			require.NoError(t, testDB.DB.Create(rule).Error)
			assert.NotEqual(t, uuid.Nil, rule.UUID)
			assert.Equal(t, float64(1), rule.SeasonMultiplier)
			assert.Equal(t, float64(1), rule.WeekendMultiplier)
		})

		t.Run("CoversDurationAndGroupSize", func(t *testing.T) {
			rule := &models.PriceRule{
				MinDuration:  utils.ToPtr(60),
				MaxDuration:  utils.ToPtr(120),
				MinGroupSize: utils.ToPtr(2),
				MaxGroupSize: utils.ToPtr(6),
			}
			assert.True(t, rule.CoversDuration(60))
			assert.True(t, rule.CoversDuration(120))
			assert.False(t, rule.CoversDuration(30))
			assert.False(t, rule.CoversDuration(180))
			assert.True(t, rule.CoversGroupSize(4))
			assert.False(t, rule.CoversGroupSize(1))
			assert.False(t, rule.CoversGroupSize(7))
		})

		t.Run("UnsetBoundsAreUnbounded", func(t *testing.T) {
			rule := &models.PriceRule{}
			assert.True(t, rule.CoversDuration(1))
			assert.True(t, rule.CoversDuration(100000))
			assert.True(t, rule.CoversGroupSize(500))
		})

		t.Run("ContradictoryBounds", func(t *testing.T) {
			inverted := &models.PriceRule{
				MinDuration: utils.ToPtr(120),
				MaxDuration: utils.ToPtr(60),
			}
			assert.True(t, inverted.HasContradictoryBounds())

			ok := &models.PriceRule{
				MinDuration: utils.ToPtr(60),
				MaxDuration: utils.ToPtr(120),
			}
			assert.False(t, ok.HasContradictoryBounds())
		})

		t.Run("WeekdaySetCoversDate", func(t *testing.T) {
			rule := &models.PriceRule{
				WeekdaySet: models.Weekdays{time.Saturday, time.Sunday},
			}
			saturday := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
			monday := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
			assert.True(t, rule.CoversDate(saturday))
			assert.False(t, rule.CoversDate(monday))
		})

		t.Run("WindowWidthTieBreaking", func(t *testing.T) {
			narrow := &models.PriceRule{
				MinDuration: utils.ToPtr(60),
				MaxDuration: utils.ToPtr(90),
			}
			wide := &models.PriceRule{
				MinDuration: utils.ToPtr(30),
				MaxDuration: utils.ToPtr(240),
			}
			unbounded := &models.PriceRule{}
			assert.Less(t, narrow.DurationWindowWidth(), wide.DurationWindowWidth())
			assert.Less(t, wide.DurationWindowWidth(), unbounded.DurationWindowWidth())
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOffer(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("CreateDefaultsToPlanned", func(t *testing.T) {
			now := utils.UTCNow()
			offer, err := fixtures.CreatePlannedOffer(now, now.Add(24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, models.OfferStatusPlanned, offer.Status)
			assert.Equal(t, utils.MinOfferPriority, offer.Priority)
		})

		t.Run("StatusTransitions", func(t *testing.T) {
			planned := &models.Offer{Status: models.OfferStatusPlanned}
			assert.True(t, planned.CanTransitionTo(models.OfferStatusActive))
			assert.True(t, planned.CanTransitionTo(models.OfferStatusCancelled))
			assert.False(t, planned.CanTransitionTo(models.OfferStatusExpired))

			active := &models.Offer{Status: models.OfferStatusActive}
			assert.True(t, active.CanTransitionTo(models.OfferStatusPaused))
			assert.True(t, active.CanTransitionTo(models.OfferStatusExpired))
			assert.True(t, active.CanTransitionTo(models.OfferStatusCancelled))

			paused := &models.Offer{Status: models.OfferStatusPaused}
			assert.True(t, paused.CanTransitionTo(models.OfferStatusActive))
			assert.True(t, paused.CanTransitionTo(models.OfferStatusExpired))

			expired := &models.Offer{Status: models.OfferStatusExpired}
			assert.False(t, expired.CanTransitionTo(models.OfferStatusActive))

			cancelled := &models.Offer{Status: models.OfferStatusCancelled}
			assert.False(t, cancelled.CanTransitionTo(models.OfferStatusActive))
		})

		t.Run("RunningAt", func(t *testing.T) {
			now := utils.UTCNow()
			offer := &models.Offer{
				Status:    models.OfferStatusActive,
				ValidFrom: now.Add(-time.Hour),
				ValidTo:   now.Add(time.Hour),
			}
			assert.True(t, offer.RunningAt(now))
			assert.False(t, offer.RunningAt(now.Add(2*time.Hour)))

			offer.Status = models.OfferStatusPaused
			assert.False(t, offer.RunningAt(now))
		})

		t.Run("EmptyApplicabilitySetsMatchEverything", func(t *testing.T) {
			offer := &models.Offer{}
			assert.True(t, offer.AppliesToService(99))
			assert.True(t, offer.AppliesToChannel(models.ChannelPartner))
			assert.True(t, offer.AppliesToSegment(models.SegmentVIP))

			scoped := &models.Offer{
				ServiceIDs: models.UintSlice{1, 2},
				Channels:   models.StringSlice{models.ChannelWebsite},
			}
			assert.True(t, scoped.AppliesToService(1))
			assert.False(t, scoped.AppliesToService(3))
			assert.True(t, scoped.AppliesToChannel(models.ChannelWebsite))
			assert.False(t, scoped.AppliesToChannel(models.ChannelOffice))
		})

		t.Run("UsageExhausted", func(t *testing.T) {
			unlimited := &models.Offer{UsageCount: 1000}
			assert.False(t, unlimited.UsageExhausted())

			capped := &models.Offer{MaxUsageCount: utils.ToPtr(5), UsageCount: 5}
			assert.True(t, capped.UsageExhausted())
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPromoCode(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		offer, err := fixtures.CreateTestOffer(10, false, 5)
		require.NoError(t, err)

		t.Run("CodeIsNormalizedOnCreate", func(t *testing.T) {
			code := &models.PromoCode{
				Code:     "  summer25 ",
				OfferID:  offer.ID,
				IsActive: utils.ToPtr(true),
			}
			require.NoError(t, testDB.DB.Create(code).Error)
			assert.Equal(t, "SUMMER25", code.Code)
		})

		t.Run("Exhausted", func(t *testing.T) {
			unlimited := &models.PromoCode{UsedCount: 1000}
			assert.False(t, unlimited.Exhausted())

			capped := &models.PromoCode{MaxUses: utils.ToPtr(3), UsedCount: 3}
			assert.True(t, capped.Exhausted())

			remaining := &models.PromoCode{MaxUses: utils.ToPtr(3), UsedCount: 2}
			assert.False(t, remaining.Exhausted())
		})

		t.Run("AssignedTo", func(t *testing.T) {
			open := &models.PromoCode{}
			assert.True(t, open.AssignedTo(42))

			restricted := &models.PromoCode{AssignedUserIDs: models.UintSlice{7, 8}}
			assert.True(t, restricted.AssignedTo(7))
			assert.False(t, restricted.AssignedTo(42))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPromoRedemption(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		offer, err := fixtures.CreateTestOffer(15, false, 3)
		require.NoError(t, err)
		code, err := fixtures.CreateTestPromoCode(offer.ID, nil, false)
		require.NoError(t, err)

		t.Run("CreateDefaultsToReserved", func(t *testing.T) {
			redemption := &models.PromoRedemption{
				PromoCodeID: code.ID,
				OfferID:     offer.ID,
				UserID:      1,
				OrderRef:    "order-1",
				RequestID:   uuid.New().String(),
			}
			require.NoError(t, testDB.DB.Create(redemption).Error)
			assert.Equal(t, models.RedemptionStatusReserved, redemption.Status)
		})

		t.Run("RequestIDIsUnique", func(t *testing.T) {
			requestID := uuid.New().String()
			first := &models.PromoRedemption{
				PromoCodeID: code.ID,
				OfferID:     offer.ID,
				UserID:      2,
				OrderRef:    "order-2",
				RequestID:   requestID,
			}
			require.NoError(t, testDB.DB.Create(first).Error)

			duplicate := &models.PromoRedemption{
				PromoCodeID: code.ID,
				OfferID:     offer.ID,
				UserID:      3,
				OrderRef:    "order-3",
				RequestID:   requestID,
			}
			assert.Error(t, testDB.DB.Create(duplicate).Error)
		})

		t.Run("CountsAgainstCaps", func(t *testing.T) {
			assert.True(t, (&models.PromoRedemption{Status: models.RedemptionStatusReserved}).CountsAgainstCaps())
			assert.True(t, (&models.PromoRedemption{Status: models.RedemptionStatusConfirmed}).CountsAgainstCaps())
			assert.False(t, (&models.PromoRedemption{Status: models.RedemptionStatusVoided}).CountsAgainstCaps())
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdmin(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("RoleCapabilities", func(t *testing.T) {
			viewer, err := fixtures.CreateTestAdmin(models.AdminRoleViewer)
			require.NoError(t, err)
			assert.False(t, viewer.CanEdit())

			editor, err := fixtures.CreateTestAdmin(models.AdminRoleEditor)
			require.NoError(t, err)
			assert.True(t, editor.CanEdit())

			superadmin, err := fixtures.CreateTestAdmin(models.AdminRoleSuperadmin)
			require.NoError(t, err)
			assert.True(t, superadmin.CanEdit())
		})

		return nil
	})
	require.NoError(t, err)
}
