package pricing

import (
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
)

// Modifier name constants
const (
	ModifierSeason        = "season"
	ModifierWeekend       = "weekend"
	ModifierGroupDiscount = "group_discount"
)

// AppliedModifier records one step of the modifier pipeline as a named delta.
type AppliedModifier struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
	Delta  float64 `json:"delta"`
	Price  float64 `json:"price"`
}

// Computation is the output of the modifier pipeline for one rule.
type Computation struct {
	BasePrice  float64           `json:"base_price"`
	FinalPrice float64           `json:"final_price"`
	Modifiers  []AppliedModifier `json:"applied_modifiers"`
	Anomaly    bool              `json:"anomaly"`
}

// Compute runs the fixed modifier pipeline over the rule's base price:
// season multiplier, then weekend multiplier, then the group discount.
// The multiplicative modifiers come first; the group discount applies to
// the already-modified price. Among qualifying group discount tiers
// (min_size <= groupSize) the one with the largest fraction wins, not the
// one with the highest min_size.
//
// Duration is a matching dimension only; it does not scale the price.
// The result is clamped at zero with the anomaly flag set if the pipeline
// would have gone negative.
func Compute(rule *models.PriceRule, duration, groupSize int, date time.Time) Computation {
	_ = duration

	price := rule.BasePrice
	out := Computation{BasePrice: rule.BasePrice}

	// A non-positive multiplier is malformed; treat it as neutral rather
	// than zeroing the price.
	if rule.SeasonMultiplier > 0 && rule.SeasonMultiplier != 1 {
		before := price
		price *= rule.SeasonMultiplier
		out.Modifiers = append(out.Modifiers, AppliedModifier{
			Name:   ModifierSeason,
			Factor: rule.SeasonMultiplier,
			Delta:  round2(price - before),
			Price:  round2(price),
		})
	}

	if utils.IsWeekend(date) && rule.WeekendMultiplier > 0 && rule.WeekendMultiplier != 1 {
		before := price
		price *= rule.WeekendMultiplier
		out.Modifiers = append(out.Modifiers, AppliedModifier{
			Name:   ModifierWeekend,
			Factor: rule.WeekendMultiplier,
			Delta:  round2(price - before),
			Price:  round2(price),
		})
	}

	if fraction, ok := bestGroupDiscount(rule.GroupDiscounts, groupSize); ok {
		before := price
		price -= price * fraction
		out.Modifiers = append(out.Modifiers, AppliedModifier{
			Name:   ModifierGroupDiscount,
			Factor: fraction,
			Delta:  round2(price - before),
			Price:  round2(price),
		})
	}

	if price < 0 {
		price = 0
		out.Anomaly = true
	}
	out.FinalPrice = round2(price)

	return out
}

// bestGroupDiscount selects the qualifying tier with the largest discount
// fraction. Tiers with fractions outside [0,1) never qualify.
func bestGroupDiscount(tiers models.GroupDiscountRules, groupSize int) (float64, bool) {
	best := 0.0
	found := false
	for _, tier := range tiers {
		if tier.DiscountFraction < 0 || tier.DiscountFraction >= 1 {
			continue
		}
		if groupSize < tier.MinSize {
			continue
		}
		if !found || tier.DiscountFraction > best {
			best = tier.DiscountFraction
			found = true
		}
	}
	return best, found
}
