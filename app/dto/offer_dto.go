package dto

import (
	"time"
)

// CreateOfferRequest represents the request to create an offer
type CreateOfferRequest struct {
	AdminID           uint      `json:"-"`
	Name              string    `json:"name" validate:"required,min=3,max=255"`
	Type              string    `json:"type" validate:"required,oneof=seasonal flash loyalty partner promo_code"`
	DiscountType      string    `json:"discount_type" validate:"required,oneof=percentage fixed buy_x_get_y tiered"`
	DiscountValue     float64   `json:"discount_value" validate:"required,gt=0"`
	MaxDiscountAmount *float64  `json:"max_discount_amount,omitempty" validate:"omitempty,gt=0"`
	MinOrderAmount    *float64  `json:"min_order_amount,omitempty" validate:"omitempty,gt=0"`
	MaxUsageCount     *int      `json:"max_usage_count,omitempty" validate:"omitempty,gt=0"`
	MaxUsagePerUser   *int      `json:"max_usage_per_user,omitempty" validate:"omitempty,gt=0"`
	ServiceUUIDs      []string  `json:"service_uuids,omitempty" validate:"omitempty,dive,uuid"`
	Channels          []string  `json:"channels,omitempty" validate:"omitempty,dive,oneof=website partner office"`
	Segments          []string  `json:"segments,omitempty" validate:"omitempty,dive,oneof=standard vip corporate"`
	ValidFrom         time.Time `json:"valid_from" validate:"required"`
	ValidTo           time.Time `json:"valid_to" validate:"required,gtfield=ValidFrom"`
	Combinable        bool      `json:"combinable_with_others"`
	Priority          int       `json:"priority" validate:"required,gte=1,lte=10"`
}

// CreateOfferResponse represents the response to create an offer
type CreateOfferResponse struct {
	Message   string `json:"message"`
	UUID      string `json:"uuid"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// UpdateOfferRequest represents the request to update an offer
type UpdateOfferRequest struct {
	UUID              string     `json:"-"`
	AdminID           uint       `json:"-"`
	Name              *string    `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	DiscountValue     *float64   `json:"discount_value,omitempty" validate:"omitempty,gt=0"`
	MaxDiscountAmount *float64   `json:"max_discount_amount,omitempty" validate:"omitempty,gt=0"`
	MinOrderAmount    *float64   `json:"min_order_amount,omitempty" validate:"omitempty,gt=0"`
	MaxUsageCount     *int       `json:"max_usage_count,omitempty" validate:"omitempty,gt=0"`
	MaxUsagePerUser   *int       `json:"max_usage_per_user,omitempty" validate:"omitempty,gt=0"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidTo           *time.Time `json:"valid_to,omitempty"`
	Combinable        *bool      `json:"combinable_with_others,omitempty"`
	Priority          *int       `json:"priority,omitempty" validate:"omitempty,gte=1,lte=10"`
}

// UpdateOfferResponse represents the response to update an offer
type UpdateOfferResponse struct {
	Message string `json:"message"`
}

// ChangeOfferStatusRequest represents the request to move an offer through its lifecycle
type ChangeOfferStatusRequest struct {
	UUID    string `json:"-"`
	AdminID uint   `json:"-"`
	Status  string `json:"status" validate:"required,oneof=planned active paused expired cancelled"`
}

// ChangeOfferStatusResponse represents the response to an offer status change
type ChangeOfferStatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// OfferDTO represents an offer in responses
type OfferDTO struct {
	UUID              string     `json:"uuid"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	DiscountType      string     `json:"discount_type"`
	DiscountValue     float64    `json:"discount_value"`
	MaxDiscountAmount *float64   `json:"max_discount_amount,omitempty"`
	MinOrderAmount    *float64   `json:"min_order_amount,omitempty"`
	MaxUsageCount     *int       `json:"max_usage_count,omitempty"`
	MaxUsagePerUser   *int       `json:"max_usage_per_user,omitempty"`
	Channels          []string   `json:"channels,omitempty"`
	Segments          []string   `json:"segments,omitempty"`
	ValidFrom         time.Time  `json:"valid_from"`
	ValidTo           time.Time  `json:"valid_to"`
	Combinable        bool       `json:"combinable_with_others"`
	Priority          int        `json:"priority"`
	Status            string     `json:"status"`
	UsageCount        int        `json:"usage_count"`
	Revenue           float64    `json:"revenue"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// ListOffersRequest represents the request to list offers
type ListOffersRequest struct {
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=planned active paused expired cancelled"`
	Type     *string `json:"type,omitempty" validate:"omitempty,oneof=seasonal flash loyalty partner promo_code"`
	Page     int     `json:"page" validate:"omitempty,gte=1"`
	PageSize int     `json:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// ListOffersResponse represents the response to list offers
type ListOffersResponse struct {
	Items []OfferDTO `json:"items"`
	Total int64      `json:"total"`
}
