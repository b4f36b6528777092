package pricing

import (
	"sort"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
)

// OfferContext is the eligibility context for offer matching.
type OfferContext struct {
	ServiceID    uint
	Channel      string
	Segment      string
	Date         time.Time
	CurrentPrice float64
}

// Application is one offer applied to the running price.
type Application struct {
	Offer          *models.Offer `json:"offer"`
	DiscountAmount float64       `json:"discount_amount"`
	ResultingPrice float64       `json:"resulting_price"`
}

// ExtendedDiscountFunc computes the discount amount for offer discount
// types the core does not generalize (buy_x_get_y, tiered). The returned
// amount is clamped to the running price by the matcher.
type ExtendedDiscountFunc func(offer *models.Offer, currentPrice float64) (float64, error)

// OfferMatcher finds eligible offers, orders them by priority and applies
// the combinability/stacking rules. The zero value handles percentage and
// fixed discounts; buy_x_get_y and tiered must be registered explicitly or
// their offers are excluded from matching.
type OfferMatcher struct {
	extended map[string]ExtendedDiscountFunc
}

// NewOfferMatcher creates an offer matcher with no extended discount types.
func NewOfferMatcher() *OfferMatcher {
	return &OfferMatcher{extended: make(map[string]ExtendedDiscountFunc)}
}

// RegisterDiscountType registers a computation for an extended discount type.
func (m *OfferMatcher) RegisterDiscountType(discountType string, fn ExtendedDiscountFunc) {
	if m.extended == nil {
		m.extended = make(map[string]ExtendedDiscountFunc)
	}
	m.extended[discountType] = fn
}

// ApplicableOffers returns the offers that apply to the context, ordered by
// priority descending, with the discount and resulting price of each.
//
// Stacking: if the top-priority eligible offer is non-combinable it applies
// alone and every other offer is excluded, even when independently
// eligible. If it is combinable, lower-priority combinable offers apply
// sequentially in priority order to the already-discounted price — never
// the original — while non-combinable offers further down are skipped.
func (m *OfferMatcher) ApplicableOffers(offers []*models.Offer, ctx OfferContext) []Application {
	eligible := make([]*models.Offer, 0, len(offers))
	for _, offer := range offers {
		if m.eligible(offer, ctx) {
			eligible = append(eligible, offer)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority > eligible[j].Priority
		}
		if !eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
		}
		return eligible[i].ID < eligible[j].ID
	})

	price := ctx.CurrentPrice
	var applied []Application

	if !eligible[0].Combinable {
		if app, ok := m.apply(eligible[0], price); ok {
			applied = append(applied, app)
		}
		return applied
	}

	for _, offer := range eligible {
		if !offer.Combinable {
			continue
		}
		app, ok := m.apply(offer, price)
		if !ok {
			continue
		}
		applied = append(applied, app)
		price = app.ResultingPrice
	}

	return applied
}

func (m *OfferMatcher) eligible(offer *models.Offer, ctx OfferContext) bool {
	if !offer.RunningAt(ctx.Date) {
		return false
	}
	if offer.UsageExhausted() {
		return false
	}
	if !offer.AppliesToService(ctx.ServiceID) {
		return false
	}
	if !offer.AppliesToChannel(ctx.Channel) {
		return false
	}
	if !offer.AppliesToSegment(ctx.Segment) {
		return false
	}
	if offer.MinOrderAmount != nil && ctx.CurrentPrice < *offer.MinOrderAmount {
		return false
	}
	switch offer.DiscountType {
	case models.DiscountTypePercentage, models.DiscountTypeFixed:
		return true
	default:
		// Extended types participate only when a computation is registered.
		_, ok := m.extended[offer.DiscountType]
		return ok
	}
}

func (m *OfferMatcher) apply(offer *models.Offer, price float64) (Application, bool) {
	discount, err := m.discountFor(offer, price)
	if err != nil {
		return Application{}, false
	}
	if discount < 0 {
		discount = 0
	}
	if discount > price {
		discount = price
	}
	discount = round2(discount)
	return Application{
		Offer:          offer,
		DiscountAmount: discount,
		ResultingPrice: round2(price - discount),
	}, true
}

func (m *OfferMatcher) discountFor(offer *models.Offer, price float64) (float64, error) {
	switch offer.DiscountType {
	case models.DiscountTypePercentage:
		discount := price * offer.DiscountValue / 100
		if offer.MaxDiscountAmount != nil && discount > *offer.MaxDiscountAmount {
			discount = *offer.MaxDiscountAmount
		}
		return discount, nil
	case models.DiscountTypeFixed:
		return offer.DiscountValue, nil
	default:
		if fn, ok := m.extended[offer.DiscountType]; ok {
			return fn(offer, price)
		}
		return 0, ErrUnsupportedDiscountType
	}
}
