package dto

import (
	"time"
)

// CreatePromoCodeRequest represents the request to create a promo code
type CreatePromoCodeRequest struct {
	AdminID         uint   `json:"-"`
	Code            string `json:"code" validate:"required,min=3,max=64"`
	OfferUUID       string `json:"offer_uuid" validate:"required,uuid"`
	MaxUses         *int   `json:"max_uses,omitempty" validate:"omitempty,gt=0"`
	AssignedUserIDs []uint `json:"assigned_user_ids,omitempty"`
	OneTimeUse      bool   `json:"one_time_use"`
}

// CreatePromoCodeResponse represents the response to create a promo code
type CreatePromoCodeResponse struct {
	Message   string `json:"message"`
	UUID      string `json:"uuid"`
	Code      string `json:"code"`
	CreatedAt string `json:"created_at"`
}

// RedeemPromoCodeRequest represents the request to redeem a promo code
// against an order. RequestID is the caller's idempotency key: retries with
// the same key return the original outcome.
type RedeemPromoCodeRequest struct {
	Code        string  `json:"code" validate:"required,min=3,max=64"`
	UserID      uint    `json:"user_id" validate:"required,gt=0"`
	OrderRef    string  `json:"order_ref" validate:"required,max=255"`
	OrderAmount float64 `json:"order_amount" validate:"gte=0"`
	RequestID   string  `json:"request_id" validate:"required,max=255"`
}

// RedeemPromoCodeResponse represents the response to redeem a promo code
type RedeemPromoCodeResponse struct {
	Message        string `json:"message"`
	RedemptionUUID string `json:"redemption_uuid"`
	OfferUUID      string `json:"offer_uuid"`
	Status         string `json:"status"`
	Replayed       bool   `json:"replayed,omitempty"`
}

// ConfirmRedemptionRequest represents the request to confirm a reservation
type ConfirmRedemptionRequest struct {
	RequestID string `json:"request_id" validate:"required,max=255"`
}

// VoidRedemptionRequest represents the request to void a redemption,
// releasing its consumed use
type VoidRedemptionRequest struct {
	RequestID string `json:"request_id" validate:"required,max=255"`
}

// RedemptionActionResponse represents the response to a ledger transition
type RedemptionActionResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// PromoCodeDTO represents a promo code in responses
type PromoCodeDTO struct {
	UUID       string     `json:"uuid"`
	Code       string     `json:"code"`
	OfferUUID  string     `json:"offer_uuid"`
	MaxUses    *int       `json:"max_uses,omitempty"`
	UsedCount  int        `json:"used_count"`
	OneTimeUse bool       `json:"one_time_use"`
	IsActive   *bool      `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RedemptionDTO represents one ledger entry in responses
type RedemptionDTO struct {
	UUID        string     `json:"uuid"`
	Code        string     `json:"code,omitempty"`
	UserID      uint       `json:"user_id"`
	OrderRef    string     `json:"order_ref"`
	OrderAmount float64    `json:"order_amount"`
	RequestID   string     `json:"request_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	VoidedAt    *time.Time `json:"voided_at,omitempty"`
}

// ListRedemptionsRequest represents the request to list ledger entries
type ListRedemptionsRequest struct {
	Code     *string `json:"code,omitempty" validate:"omitempty,max=64"`
	UserID   *uint   `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=reserved confirmed voided"`
	Page     int     `json:"page" validate:"omitempty,gte=1"`
	PageSize int     `json:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// ListRedemptionsResponse represents the response to list ledger entries
type ListRedemptionsResponse struct {
	Items []RedemptionDTO `json:"items"`
	Total int64           `json:"total"`
}
