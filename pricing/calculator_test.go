package pricing

import (
	"testing"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeModifierPipeline(t *testing.T) {
	rule := &models.PriceRule{
		BasePrice:         8500,
		SeasonMultiplier:  1.2,
		WeekendMultiplier: 1.15,
		GroupDiscounts: models.GroupDiscountRules{
			{MinSize: 4, DiscountFraction: 0.05},
			{MinSize: 6, DiscountFraction: 0.10},
			{MinSize: 8, DiscountFraction: 0.15},
		},
		IsActive: utils.ToPtr(true),
	}

	saturday := time.Date(2026, 7, 18, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Saturday, saturday.Weekday())

	t.Run("WeekendGroupOfSix", func(t *testing.T) {
		out := Compute(rule, 3, 6, saturday)

		// 8500 * 1.2 * 1.15 = 11730, then the largest qualifying
		// fraction (0.10, not the 0.05 tier) => 10557.
		require.Len(t, out.Modifiers, 3)

		assert.Equal(t, ModifierSeason, out.Modifiers[0].Name)
		assert.Equal(t, 1.2, out.Modifiers[0].Factor)
		assert.Equal(t, 10200.0, out.Modifiers[0].Price)

		assert.Equal(t, ModifierWeekend, out.Modifiers[1].Name)
		assert.Equal(t, 1.15, out.Modifiers[1].Factor)
		assert.Equal(t, 11730.0, out.Modifiers[1].Price)

		assert.Equal(t, ModifierGroupDiscount, out.Modifiers[2].Name)
		assert.Equal(t, 0.10, out.Modifiers[2].Factor)

		assert.Equal(t, 10557.0, out.FinalPrice)
		assert.Equal(t, 8500.0, out.BasePrice)
		assert.False(t, out.Anomaly)
	})

	t.Run("WeekdaySkipsWeekendMultiplier", func(t *testing.T) {
		wednesday := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)
		require.Equal(t, time.Wednesday, wednesday.Weekday())

		out := Compute(rule, 3, 6, wednesday)
		require.Len(t, out.Modifiers, 2)
		assert.Equal(t, ModifierSeason, out.Modifiers[0].Name)
		assert.Equal(t, ModifierGroupDiscount, out.Modifiers[1].Name)
		assert.Equal(t, 9180.0, out.FinalPrice) // 8500*1.2 minus 10%
	})

	t.Run("LargestFractionWinsOverHighestMinSize", func(t *testing.T) {
		inverted := &models.PriceRule{
			BasePrice: 1000,
			GroupDiscounts: models.GroupDiscountRules{
				{MinSize: 2, DiscountFraction: 0.30},
				{MinSize: 5, DiscountFraction: 0.10},
			},
		}
		out := Compute(inverted, 1, 6, saturday)
		require.Len(t, out.Modifiers, 1)
		assert.Equal(t, 0.30, out.Modifiers[0].Factor)
		assert.Equal(t, 700.0, out.FinalPrice)
	})

	t.Run("SmallGroupGetsNoDiscount", func(t *testing.T) {
		out := Compute(rule, 3, 2, saturday)
		require.Len(t, out.Modifiers, 2)
		assert.Equal(t, 11730.0, out.FinalPrice)
	})

	t.Run("NeutralMultipliersNotRecorded", func(t *testing.T) {
		flat := &models.PriceRule{BasePrice: 500, SeasonMultiplier: 1, WeekendMultiplier: 1}
		out := Compute(flat, 1, 1, saturday)
		assert.Empty(t, out.Modifiers)
		assert.Equal(t, 500.0, out.FinalPrice)
	})

	t.Run("InvalidFractionIgnored", func(t *testing.T) {
		bad := &models.PriceRule{
			BasePrice:      1000,
			GroupDiscounts: models.GroupDiscountRules{{MinSize: 1, DiscountFraction: 1.5}},
		}
		out := Compute(bad, 1, 4, saturday)
		assert.Empty(t, out.Modifiers)
		assert.Equal(t, 1000.0, out.FinalPrice)
	})

	t.Run("NegativeClampedWithAnomaly", func(t *testing.T) {
		broken := &models.PriceRule{BasePrice: -100}
		out := Compute(broken, 1, 1, saturday)
		assert.True(t, out.Anomaly)
		assert.Equal(t, 0.0, out.FinalPrice)
	})
}
