package pricing

import (
	"testing"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningOffer(name string, priority int, combinable bool) *models.Offer {
	return &models.Offer{
		UUID:          uuid.New(),
		Name:          name,
		Type:          models.OfferTypeSeasonal,
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		ValidFrom:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Combinable:    combinable,
		Priority:      priority,
		Status:        models.OfferStatusActive,
		CreatedAt:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func offerCtx(price float64) OfferContext {
	return OfferContext{
		ServiceID:    1,
		Channel:      models.ChannelWebsite,
		Segment:      models.SegmentStandard,
		Date:         time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC),
		CurrentPrice: price,
	}
}

func TestApplicableOffers(t *testing.T) {
	m := NewOfferMatcher()

	t.Run("NonCombinableTopPriorityExcludesAllOthers", func(t *testing.T) {
		exclusive := runningOffer("exclusive", 9, false)
		exclusive.DiscountValue = 25
		lower1 := runningOffer("lower-a", 7, true)
		lower2 := runningOffer("lower-b", 5, true)

		apps := m.ApplicableOffers([]*models.Offer{lower1, exclusive, lower2}, offerCtx(1000))
		require.Len(t, apps, 1)
		assert.Equal(t, "exclusive", apps[0].Offer.Name)
		assert.Equal(t, 250.0, apps[0].DiscountAmount)
		assert.Equal(t, 750.0, apps[0].ResultingPrice)
	})

	t.Run("CombinableOffersStackSequentially", func(t *testing.T) {
		first := runningOffer("first", 8, true)
		first.DiscountValue = 20 // 20% of 1000 = 200
		second := runningOffer("second", 5, true)
		second.DiscountType = models.DiscountTypeFixed
		second.DiscountValue = 100
		skipped := runningOffer("skipped", 3, false)

		apps := m.ApplicableOffers([]*models.Offer{second, skipped, first}, offerCtx(1000))
		require.Len(t, apps, 2)

		assert.Equal(t, "first", apps[0].Offer.Name)
		assert.Equal(t, 800.0, apps[0].ResultingPrice)

		// The fixed discount applies to the already-discounted price.
		assert.Equal(t, "second", apps[1].Offer.Name)
		assert.Equal(t, 700.0, apps[1].ResultingPrice)
	})

	t.Run("PercentageCappedAtMaxDiscountAmount", func(t *testing.T) {
		capped := runningOffer("capped", 6, false)
		capped.DiscountValue = 50
		capped.MaxDiscountAmount = utils.ToPtr(120.0)

		apps := m.ApplicableOffers([]*models.Offer{capped}, offerCtx(1000))
		require.Len(t, apps, 1)
		assert.Equal(t, 120.0, apps[0].DiscountAmount)
		assert.Equal(t, 880.0, apps[0].ResultingPrice)
	})

	t.Run("MinOrderAmountGatesEligibility", func(t *testing.T) {
		gated := runningOffer("gated", 6, false)
		gated.MinOrderAmount = utils.ToPtr(2000.0)
		apps := m.ApplicableOffers([]*models.Offer{gated}, offerCtx(1000))
		assert.Empty(t, apps)
	})

	t.Run("InactiveOrOutOfWindowExcluded", func(t *testing.T) {
		paused := runningOffer("paused", 6, false)
		paused.Status = models.OfferStatusPaused

		stale := runningOffer("stale", 6, false)
		stale.ValidTo = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

		apps := m.ApplicableOffers([]*models.Offer{paused, stale}, offerCtx(1000))
		assert.Empty(t, apps)
	})

	t.Run("WrongServiceChannelSegmentExcluded", func(t *testing.T) {
		scoped := runningOffer("scoped", 6, false)
		scoped.ServiceIDs = models.UintSlice{42}
		scoped.Channels = models.StringSlice{models.ChannelPartner}

		apps := m.ApplicableOffers([]*models.Offer{scoped}, offerCtx(1000))
		assert.Empty(t, apps)
	})

	t.Run("ExhaustedOfferExcluded", func(t *testing.T) {
		used := runningOffer("used-up", 6, false)
		used.MaxUsageCount = utils.ToPtr(10)
		used.UsageCount = 10
		apps := m.ApplicableOffers([]*models.Offer{used}, offerCtx(1000))
		assert.Empty(t, apps)
	})

	t.Run("FixedDiscountClampedToPrice", func(t *testing.T) {
		big := runningOffer("big-fixed", 6, false)
		big.DiscountType = models.DiscountTypeFixed
		big.DiscountValue = 5000
		apps := m.ApplicableOffers([]*models.Offer{big}, offerCtx(1000))
		require.Len(t, apps, 1)
		assert.Equal(t, 1000.0, apps[0].DiscountAmount)
		assert.Equal(t, 0.0, apps[0].ResultingPrice)
	})

	t.Run("UnregisteredExtendedTypeExcluded", func(t *testing.T) {
		bxgy := runningOffer("bxgy", 6, false)
		bxgy.DiscountType = models.DiscountTypeBuyXGetY
		apps := m.ApplicableOffers([]*models.Offer{bxgy}, offerCtx(1000))
		assert.Empty(t, apps)
	})

	t.Run("RegisteredExtendedTypeParticipates", func(t *testing.T) {
		tiered := runningOffer("tiered", 6, false)
		tiered.DiscountType = models.DiscountTypeTiered

		custom := NewOfferMatcher()
		custom.RegisterDiscountType(models.DiscountTypeTiered, func(offer *models.Offer, price float64) (float64, error) {
			return price * 0.05, nil
		})

		apps := custom.ApplicableOffers([]*models.Offer{tiered}, offerCtx(1000))
		require.Len(t, apps, 1)
		assert.Equal(t, 50.0, apps[0].DiscountAmount)
	})

	t.Run("OrderedByPriorityDescending", func(t *testing.T) {
		low := runningOffer("low", 2, true)
		high := runningOffer("high", 9, true)
		mid := runningOffer("mid", 5, true)

		apps := m.ApplicableOffers([]*models.Offer{low, high, mid}, offerCtx(1000))
		require.Len(t, apps, 3)
		assert.Equal(t, "high", apps[0].Offer.Name)
		assert.Equal(t, "mid", apps[1].Offer.Name)
		assert.Equal(t, "low", apps[2].Offer.Name)
	})
}
