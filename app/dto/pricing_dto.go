package dto

import (
	"time"
)

// QuoteRequest represents a price resolution request for one booking
type QuoteRequest struct {
	ServiceUUID string    `json:"service_uuid" validate:"required,uuid"`
	Duration    int       `json:"duration" validate:"required,gt=0"`
	GroupSize   int       `json:"group_size" validate:"required,gt=0"`
	Date        time.Time `json:"date" validate:"required"`
	Channel     string    `json:"channel" validate:"required,oneof=website partner office"`
	Segment     string    `json:"segment" validate:"required,oneof=standard vip corporate"`
	PromoCode   *string   `json:"promo_code,omitempty" validate:"omitempty,max=64"`
}

// AppliedModifierDTO is one step of the modifier pipeline in a quote
type AppliedModifierDTO struct {
	Name   string  `json:"name" example:"season"`
	Factor float64 `json:"factor" example:"1.2"`
	Delta  float64 `json:"delta" example:"1700"`
	Price  float64 `json:"price" example:"10200"`
}

// AppliedOfferDTO is one offer applied to the running price in a quote
type AppliedOfferDTO struct {
	OfferUUID      string  `json:"offer_uuid"`
	Name           string  `json:"name"`
	DiscountType   string  `json:"discount_type"`
	DiscountAmount float64 `json:"discount_amount"`
	ResultingPrice float64 `json:"resulting_price"`
}

// PromoPreviewDTO reports eligibility of the promo code sent with a quote.
// Quoting never consumes a use.
type PromoPreviewDTO struct {
	Code     string  `json:"code"`
	Eligible bool    `json:"eligible"`
	Reason   *string `json:"reason,omitempty"`
}

// QuoteResponse represents a fully resolved price with its breakdown
type QuoteResponse struct {
	ServiceUUID   string               `json:"service_uuid"`
	PriceListUUID string               `json:"price_list_uuid"`
	RuleUUID      string               `json:"rule_uuid"`
	Currency      string               `json:"currency" example:"RUB"`
	BasePrice     float64              `json:"base_price" example:"8500"`
	Modifiers     []AppliedModifierDTO `json:"modifiers,omitempty"`
	Offers        []AppliedOfferDTO    `json:"offers,omitempty"`
	PromoPreview  *PromoPreviewDTO     `json:"promo_preview,omitempty"`
	FinalPrice    float64              `json:"final_price" example:"10557"`
	Anomaly       bool                 `json:"anomaly,omitempty"`
	QuotedAt      string               `json:"quoted_at"`
}
