// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"strings"
	"testing"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/repository"
	testingutil "github.com/AlexPupki/gtsv-pricing/testing"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewServiceRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByUUID", func(t *testing.T) {
			service, err := fixtures.CreateTestService("helicopter", 4)
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, service.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, service.ID, found.ID)
			assert.Equal(t, "helicopter", found.Category)
		})

		t.Run("ByUUIDNotFound", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, uuid.New().String())
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ListActiveExcludesDeactivated", func(t *testing.T) {
			active, err := fixtures.CreateTestService("buggy", 2)
			require.NoError(t, err)
			inactive, err := fixtures.CreateTestService("yacht", 10)
			require.NoError(t, err)

			inactive.IsActive = utils.ToPtr(false)
			require.NoError(t, repo.Update(ctx, *inactive))

			services, err := repo.ListActive(ctx)
			require.NoError(t, err)

			ids := make(map[uint]bool)
			for _, s := range services {
				ids[s.ID] = true
			}
			assert.True(t, ids[active.ID])
			assert.False(t, ids[inactive.ID])
		})

		t.Run("Update", func(t *testing.T) {
			service, err := fixtures.CreateTestService("snowmobile", 2)
			require.NoError(t, err)

			service.MaxGroupSize = 3
			require.NoError(t, repo.Update(ctx, *service))

			updated, err := repo.ByID(ctx, service.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, 3, updated.MaxGroupSize)
			assert.NotNil(t, updated.UpdatedAt)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPriceListRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewPriceListRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByLineageReturnsNewestFirst", func(t *testing.T) {
			first, err := fixtures.CreateTestPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)

			second := &models.PriceList{
				LineageID:       first.LineageID,
				Name:            first.Name,
				Season:          first.Season,
				Channel:         first.Channel,
				Segment:         first.Segment,
				Currency:        first.Currency,
				Version:         2,
				ParentVersionID: &first.ID,
				ValidFrom:       first.ValidFrom,
			}
			require.NoError(t, repo.Save(ctx, second))

			versions, err := repo.ByLineage(ctx, first.LineageID)
			require.NoError(t, err)
			require.Len(t, versions, 2)
			assert.Equal(t, 2, versions[0].Version)
			assert.Equal(t, 1, versions[1].Version)

			latest, err := repo.LatestInLineage(ctx, first.LineageID)
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, second.ID, latest.ID)
		})

		t.Run("LatestInLineageEmpty", func(t *testing.T) {
			latest, err := repo.LatestInLineage(ctx, uuid.New())
			require.NoError(t, err)
			assert.Nil(t, latest)
		})

		t.Run("ListPublishedRespectsValidityWindow", func(t *testing.T) {
			published, err := fixtures.CreatePublishedPriceList(models.SeasonPeak, models.ChannelPartner, models.SegmentVIP)
			require.NoError(t, err)

			now := utils.UTCNow()
			lists, err := repo.ListPublished(ctx, now)
			require.NoError(t, err)

			found := false
			for _, l := range lists {
				assert.Equal(t, models.PriceListStatusPublished, l.Status)
				if l.ID == published.ID {
					found = true
				}
			}
			assert.True(t, found)

			past, err := repo.ListPublished(ctx, published.ValidFrom.Add(-time.Hour))
			require.NoError(t, err)
			for _, l := range past {
				assert.NotEqual(t, published.ID, l.ID)
			}
		})

		t.Run("UpdateGuardedBumpsLockVersion", func(t *testing.T) {
			list, err := fixtures.CreateTestPriceList(models.SeasonLow, models.ChannelOffice, models.SegmentCorporate)
			require.NoError(t, err)

			err = repo.UpdateGuarded(ctx, list.ID, list.LockVersion, map[string]any{
				"name": "winter office rates",
			})
			require.NoError(t, err)

			updated, err := repo.ByID(ctx, list.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, "winter office rates", updated.Name)
			assert.Equal(t, list.LockVersion+1, updated.LockVersion)
		})

		t.Run("UpdateGuardedRejectsStaleLock", func(t *testing.T) {
			list, err := fixtures.CreateTestPriceList(models.SeasonLow, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)

			err = repo.UpdateGuarded(ctx, list.ID, list.LockVersion, map[string]any{
				"name": "first writer",
			})
			require.NoError(t, err)

			err = repo.UpdateGuarded(ctx, list.ID, list.LockVersion, map[string]any{
				"name": "second writer",
			})
			assert.ErrorIs(t, err, repository.ErrStaleLock)

			current, err := repo.ByID(ctx, list.ID)
			require.NoError(t, err)
			require.NotNil(t, current)
			assert.Equal(t, "first writer", current.Name)
		})

		t.Run("ArchivePublishedInLineage", func(t *testing.T) {
			old, err := fixtures.CreatePublishedPriceList(models.SeasonHigh, models.ChannelOffice, models.SegmentStandard)
			require.NoError(t, err)

			replacement := &models.PriceList{
				LineageID:       old.LineageID,
				Name:            old.Name,
				Season:          old.Season,
				Channel:         old.Channel,
				Segment:         old.Segment,
				Currency:        old.Currency,
				Version:         old.Version + 1,
				ParentVersionID: &old.ID,
				Status:          models.PriceListStatusPublished,
				ValidFrom:       old.ValidFrom,
			}
			require.NoError(t, repo.Save(ctx, replacement))

			require.NoError(t, repo.ArchivePublishedInLineage(ctx, old.LineageID, replacement.ID))

			archived, err := repo.ByID(ctx, old.ID)
			require.NoError(t, err)
			require.NotNil(t, archived)
			assert.Equal(t, models.PriceListStatusArchived, archived.Status)
			assert.NotNil(t, archived.ArchivedAt)

			kept, err := repo.ByID(ctx, replacement.ID)
			require.NoError(t, err)
			require.NotNil(t, kept)
			assert.Equal(t, models.PriceListStatusPublished, kept.Status)
		})

		t.Run("ByIDPreloadsRules", func(t *testing.T) {
			list, err := fixtures.CreateTestPriceList(models.SeasonPeak, models.ChannelWebsite, models.SegmentStandard)
			require.NoError(t, err)
			service, err := fixtures.CreateTestService("boat", 12)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPriceRule(list.ID, service.ID, 7000)
			require.NoError(t, err)

			loaded, err := repo.ByID(ctx, list.ID)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			require.Len(t, loaded.Rules, 1)
			assert.Equal(t, float64(7000), loaded.Rules[0].BasePrice)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPriceRuleRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewPriceRuleRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		list, err := fixtures.CreateTestPriceList(models.SeasonHigh, models.ChannelWebsite, models.SegmentStandard)
		require.NoError(t, err)
		service, err := fixtures.CreateTestService("jetski", 2)
		require.NoError(t, err)

		t.Run("ByPriceListID", func(t *testing.T) {
			_, err := fixtures.CreateTestPriceRule(list.ID, service.ID, 3000)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPriceRule(list.ID, service.ID, 5000)
			require.NoError(t, err)

			rules, err := repo.ByPriceListID(ctx, list.ID)
			require.NoError(t, err)
			assert.Len(t, rules, 2)
		})

		t.Run("Delete", func(t *testing.T) {
			rule, err := fixtures.CreateTestPriceRule(list.ID, service.ID, 9000)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, rule.ID))

			gone, err := repo.ByID(ctx, rule.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOfferRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewOfferRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ListRunningOrdersByPriority", func(t *testing.T) {
			low, err := fixtures.CreateTestOffer(5, true, 1)
			require.NoError(t, err)
			high, err := fixtures.CreateTestOffer(20, false, 9)
			require.NoError(t, err)

			offers, err := repo.ListRunning(ctx, utils.UTCNow())
			require.NoError(t, err)
			require.Len(t, offers, 2)
			assert.Equal(t, high.ID, offers[0].ID)
			assert.Equal(t, low.ID, offers[1].ID)
		})

		t.Run("ListDueForActivation", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			now := utils.UTCNow()

			due, err := fixtures.CreatePlannedOffer(now.Add(-time.Hour), now.Add(24*time.Hour))
			require.NoError(t, err)
			_, err = fixtures.CreatePlannedOffer(now.Add(time.Hour), now.Add(24*time.Hour))
			require.NoError(t, err)

			offers, err := repo.ListDueForActivation(ctx, now)
			require.NoError(t, err)
			require.Len(t, offers, 1)
			assert.Equal(t, due.ID, offers[0].ID)
		})

		t.Run("ListDueForExpiry", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			now := utils.UTCNow()

			stale, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)
			stale.ValidTo = now.Add(-time.Minute)
			require.NoError(t, repo.Update(ctx, *stale))

			_, err = fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)

			offers, err := repo.ListDueForExpiry(ctx, now)
			require.NoError(t, err)
			require.Len(t, offers, 1)
			assert.Equal(t, stale.ID, offers[0].ID)
		})

		t.Run("UpdateStatus", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)

			require.NoError(t, repo.UpdateStatus(ctx, offer.ID, models.OfferStatusPaused))

			updated, err := repo.ByID(ctx, offer.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, models.OfferStatusPaused, updated.Status)
		})

		t.Run("IncrementAndDecrementUsage", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)

			require.NoError(t, repo.IncrementUsage(ctx, offer.ID, 4500))
			require.NoError(t, repo.IncrementUsage(ctx, offer.ID, 1500))

			updated, err := repo.ByID(ctx, offer.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, updated.UsageCount)
			assert.Equal(t, float64(6000), updated.Revenue)

			require.NoError(t, repo.DecrementUsage(ctx, offer.ID, 1500))

			updated, err = repo.ByID(ctx, offer.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, updated.UsageCount)
			assert.Equal(t, float64(4500), updated.Revenue)
		})

		t.Run("IncrementUsageStopsAtCap", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)
			offer.MaxUsageCount = utils.ToPtr(1)
			require.NoError(t, repo.Update(ctx, *offer))

			require.NoError(t, repo.IncrementUsage(ctx, offer.ID, 2000))

			err = repo.IncrementUsage(ctx, offer.ID, 2000)
			assert.ErrorIs(t, err, repository.ErrOfferCapReached)

			updated, err := repo.ByID(ctx, offer.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, updated.UsageCount)
			assert.Equal(t, float64(2000), updated.Revenue)
		})

		t.Run("DecrementUsageStopsAtZero", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)

			require.NoError(t, repo.DecrementUsage(ctx, offer.ID, 0))

			updated, err := repo.ByID(ctx, offer.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, updated.UsageCount)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPromoCodeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewPromoCodeRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		offer, err := fixtures.CreateTestOffer(10, false, 5)
		require.NoError(t, err)

		t.Run("ByCodeNormalizesLookup", func(t *testing.T) {
			code, err := fixtures.CreateTestPromoCode(offer.ID, nil, false)
			require.NoError(t, err)

			found, err := repo.ByCode(ctx, "  "+strings.ToLower(code.Code)+" ")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, code.ID, found.ID)
		})

		t.Run("ByCodeNotFound", func(t *testing.T) {
			found, err := repo.ByCode(ctx, "NO-SUCH-CODE")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("IncrementAndDecrementUsage", func(t *testing.T) {
			code, err := fixtures.CreateTestPromoCode(offer.ID, utils.ToPtr(10), false)
			require.NoError(t, err)

			require.NoError(t, repo.IncrementUsage(ctx, code.ID))

			updated, err := repo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, updated.UsedCount)
			assert.NotNil(t, updated.LastUsedAt)

			require.NoError(t, repo.DecrementUsage(ctx, code.ID))
			require.NoError(t, repo.DecrementUsage(ctx, code.ID))

			updated, err = repo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, updated.UsedCount)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPromoRedemptionRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewPromoRedemptionRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByRequestID", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)
			code, err := fixtures.CreateTestPromoCode(offer.ID, nil, false)
			require.NoError(t, err)

			redemption, err := fixtures.CreateTestRedemption(code.ID, offer.ID, 11, models.RedemptionStatusReserved)
			require.NoError(t, err)

			found, err := repo.ByRequestID(ctx, redemption.RequestID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, redemption.ID, found.ID)

			missing, err := repo.ByRequestID(ctx, uuid.New().String())
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("CountActiveIgnoresVoided", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)
			code, err := fixtures.CreateTestPromoCode(offer.ID, nil, false)
			require.NoError(t, err)

			_, err = fixtures.CreateTestRedemption(code.ID, offer.ID, 1, models.RedemptionStatusReserved)
			require.NoError(t, err)
			_, err = fixtures.CreateTestRedemption(code.ID, offer.ID, 1, models.RedemptionStatusConfirmed)
			require.NoError(t, err)
			_, err = fixtures.CreateTestRedemption(code.ID, offer.ID, 2, models.RedemptionStatusVoided)
			require.NoError(t, err)

			total, err := repo.CountActiveByCode(ctx, code.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), total)

			perUser, err := repo.CountActiveByCodeAndUser(ctx, code.ID, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(2), perUser)

			otherUser, err := repo.CountActiveByCodeAndUser(ctx, code.ID, 2)
			require.NoError(t, err)
			assert.Equal(t, int64(0), otherUser)
		})

		t.Run("UpdateStatusStampsTimestamps", func(t *testing.T) {
			offer, err := fixtures.CreateTestOffer(10, false, 5)
			require.NoError(t, err)
			code, err := fixtures.CreateTestPromoCode(offer.ID, nil, false)
			require.NoError(t, err)

			confirmed, err := fixtures.CreateTestRedemption(code.ID, offer.ID, 3, models.RedemptionStatusReserved)
			require.NoError(t, err)
			require.NoError(t, repo.UpdateStatus(ctx, confirmed.ID, models.RedemptionStatusConfirmed))

			loaded, err := repo.ByID(ctx, confirmed.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RedemptionStatusConfirmed, loaded.Status)
			assert.NotNil(t, loaded.ConfirmedAt)

			voided, err := fixtures.CreateTestRedemption(code.ID, offer.ID, 4, models.RedemptionStatusReserved)
			require.NoError(t, err)
			require.NoError(t, repo.UpdateStatus(ctx, voided.ID, models.RedemptionStatusVoided))

			loaded, err = repo.ByID(ctx, voided.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RedemptionStatusVoided, loaded.Status)
			assert.NotNil(t, loaded.VoidedAt)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAdminRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByUsername", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.AdminRoleEditor)
			require.NoError(t, err)

			found, err := repo.ByUsername(ctx, admin.Username)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, admin.ID, found.ID)

			missing, err := repo.ByUsername(ctx, "nobody")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.AdminRoleViewer)
			require.NoError(t, err)
			require.Nil(t, admin.LastLoginAt)

			require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID))

			updated, err := repo.ByID(ctx, admin.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.NotNil(t, updated.LastLoginAt)
		})

		return nil
	})
	require.NoError(t, err)
}
