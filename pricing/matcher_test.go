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

func publishedList(version int, rules ...models.PriceRule) *models.PriceList {
	return &models.PriceList{
		UUID:      uuid.New(),
		Name:      "summer water",
		Season:    models.SeasonHigh,
		Channel:   models.ChannelWebsite,
		Segment:   models.SegmentStandard,
		Version:   version,
		Status:    models.PriceListStatusPublished,
		ValidFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Rules:     rules,
	}
}

func activeRule(serviceID uint, basePrice float64) models.PriceRule {
	return models.PriceRule{
		UUID:              uuid.New(),
		ServiceID:         serviceID,
		BasePrice:         basePrice,
		SeasonMultiplier:  1,
		WeekendMultiplier: 1,
		IsActive:          utils.ToPtr(true),
		CreatedAt:         time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestMatch(t *testing.T) {
	date := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)
	req := Request{
		ServiceID: 1,
		Duration:  2,
		GroupSize: 4,
		Date:      date,
		Channel:   models.ChannelWebsite,
		Segment:   models.SegmentStandard,
	}

	t.Run("NoListsReturnsNotFound", func(t *testing.T) {
		_, err := Match(nil, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)
	})

	t.Run("MatchesActiveRuleInPublishedList", func(t *testing.T) {
		list := publishedList(1, activeRule(1, 5000))
		rule, err := Match([]*models.PriceList{list}, req)
		require.NoError(t, err)
		assert.Equal(t, 5000.0, rule.BasePrice)
	})

	t.Run("SkipsDraftLists", func(t *testing.T) {
		list := publishedList(1, activeRule(1, 5000))
		list.Status = models.PriceListStatusDraft
		_, err := Match([]*models.PriceList{list}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)
	})

	t.Run("SkipsWrongChannelOrSegment", func(t *testing.T) {
		list := publishedList(1, activeRule(1, 5000))
		list.Channel = models.ChannelPartner
		_, err := Match([]*models.PriceList{list}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)
	})

	t.Run("SkipsInactiveRules", func(t *testing.T) {
		rule := activeRule(1, 5000)
		rule.IsActive = utils.ToPtr(false)
		_, err := Match([]*models.PriceList{publishedList(1, rule)}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)
	})

	t.Run("RespectsDurationAndGroupBounds", func(t *testing.T) {
		rule := activeRule(1, 5000)
		rule.MinDuration = utils.ToPtr(3)
		_, err := Match([]*models.PriceList{publishedList(1, rule)}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)

		rule2 := activeRule(1, 5000)
		rule2.MaxGroupSize = utils.ToPtr(3)
		_, err = Match([]*models.PriceList{publishedList(1, rule2)}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)
	})

	t.Run("RespectsWeekdaySet", func(t *testing.T) {
		rule := activeRule(1, 5000)
		rule.WeekdaySet = models.Weekdays{time.Saturday, time.Sunday}
		_, err := Match([]*models.PriceList{publishedList(1, rule)}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)

		rule.WeekdaySet = models.Weekdays{time.Wednesday}
		matched, err := Match([]*models.PriceList{publishedList(1, rule)}, req)
		require.NoError(t, err)
		assert.Equal(t, rule.UUID, matched.UUID)
	})

	t.Run("RespectsListValidityWindow", func(t *testing.T) {
		list := publishedList(1, activeRule(1, 5000))
		list.ValidTo = utils.ToPtr(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
		_, err := Match([]*models.PriceList{list}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)
	})

	t.Run("HigherListVersionWins", func(t *testing.T) {
		v1 := publishedList(1, activeRule(1, 5000))
		v2 := publishedList(2, activeRule(1, 6000))
		rule, err := Match([]*models.PriceList{v1, v2}, req)
		require.NoError(t, err)
		assert.Equal(t, 6000.0, rule.BasePrice)
	})

	t.Run("NarrowerWindowWinsWithinVersion", func(t *testing.T) {
		broad := activeRule(1, 5000)
		narrow := activeRule(1, 7000)
		narrow.MinDuration = utils.ToPtr(1)
		narrow.MaxDuration = utils.ToPtr(3)
		narrow.MinGroupSize = utils.ToPtr(2)
		narrow.MaxGroupSize = utils.ToPtr(6)

		rule, err := Match([]*models.PriceList{publishedList(1, broad, narrow)}, req)
		require.NoError(t, err)
		assert.Equal(t, 7000.0, rule.BasePrice)
	})

	t.Run("NewerRuleWinsOnEqualWindows", func(t *testing.T) {
		older := activeRule(1, 5000)
		newer := activeRule(1, 8000)
		newer.CreatedAt = older.CreatedAt.Add(time.Hour)

		rule, err := Match([]*models.PriceList{publishedList(1, older, newer)}, req)
		require.NoError(t, err)
		assert.Equal(t, 8000.0, rule.BasePrice)
	})

	t.Run("ContradictoryRuleNeverMatches", func(t *testing.T) {
		rule := activeRule(1, 5000)
		rule.MinDuration = utils.ToPtr(5)
		rule.MaxDuration = utils.ToPtr(2)
		req := req
		req.Duration = 0
		_, err := Match([]*models.PriceList{publishedList(1, rule)}, req)
		assert.ErrorIs(t, err, ErrNoMatchingRule)
	})
}
