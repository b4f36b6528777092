package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferStatus represents the lifecycle status of an offer
type OfferStatus string

const (
	OfferStatusPlanned   OfferStatus = "planned"
	OfferStatusActive    OfferStatus = "active"
	OfferStatusPaused    OfferStatus = "paused"
	OfferStatusExpired   OfferStatus = "expired"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// String returns the string representation of the status
func (s OfferStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s OfferStatus) Valid() bool {
	switch s {
	case OfferStatusPlanned, OfferStatusActive, OfferStatusPaused,
		OfferStatusExpired, OfferStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for OfferStatus
func (s *OfferStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = OfferStatus(v)
	case []byte:
		*s = OfferStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into OfferStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for OfferStatus
func (s OfferStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid OfferStatus: %s", s)
	}
	return string(s), nil
}

// Discount type constants
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
	DiscountTypeBuyXGetY   = "buy_x_get_y"
	DiscountTypeTiered     = "tiered"
)

// Offer type constants
const (
	OfferTypeSeasonal  = "seasonal"
	OfferTypeFlash     = "flash"
	OfferTypeLoyalty   = "loyalty"
	OfferTypePartner   = "partner"
	OfferTypePromoCode = "promo_code"
)

// Offer is a time-boxed discount with priority and combinability semantics.
// Empty applicability sets mean "applies to all".
type Offer struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_offers_uuid" json:"uuid"`
	Name              string      `gorm:"size:255;not null" json:"name"`
	Type              string      `gorm:"size:30;not null" json:"type"`
	DiscountType      string      `gorm:"size:20;not null" json:"discount_type"`
	DiscountValue     float64     `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MaxDiscountAmount *float64    `gorm:"type:numeric(12,2)" json:"max_discount_amount,omitempty"`
	MinOrderAmount    *float64    `gorm:"type:numeric(12,2)" json:"min_order_amount,omitempty"`
	MaxUsageCount     *int        `json:"max_usage_count,omitempty"`
	MaxUsagePerUser   *int        `json:"max_usage_per_user,omitempty"`
	ServiceIDs        UintSlice   `gorm:"type:jsonb" json:"service_ids,omitempty"`
	Channels          StringSlice `gorm:"type:jsonb" json:"channels,omitempty"`
	Segments          StringSlice `gorm:"type:jsonb" json:"segments,omitempty"`
	ValidFrom         time.Time   `gorm:"not null;index:idx_offers_valid_from" json:"valid_from"`
	ValidTo           time.Time   `gorm:"not null;index:idx_offers_valid_to" json:"valid_to"`
	Combinable        bool        `gorm:"not null;default:false" json:"combinable_with_others"`
	Priority          int         `gorm:"not null;default:1" json:"priority"`
	Status            OfferStatus `gorm:"type:offer_status;not null;default:'planned';index:idx_offers_status" json:"status"`
	UsageCount        int         `gorm:"not null;default:0" json:"usage_count"`
	Revenue           float64     `gorm:"type:numeric(14,2);not null;default:0" json:"revenue"`
	CreatedAt         time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_offers_created_at" json:"created_at"`
	UpdatedAt         *time.Time  `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Offer) TableName() string {
	return "offers"
}

// BeforeCreate is called before creating a new record
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OfferStatusPlanned
	}
	if o.Priority == 0 {
		o.Priority = utils.MinOfferPriority
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (o *Offer) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	o.UpdatedAt = &now
	return nil
}

// CanTransitionTo checks if the offer can transition to the given status.
// Transitions are one-directional except active<->paused.
func (o *Offer) CanTransitionTo(newStatus OfferStatus) bool {
	switch o.Status {
	case OfferStatusPlanned:
		return newStatus == OfferStatusActive || newStatus == OfferStatusCancelled
	case OfferStatusActive:
		return newStatus == OfferStatusPaused ||
			newStatus == OfferStatusExpired ||
			newStatus == OfferStatusCancelled
	case OfferStatusPaused:
		return newStatus == OfferStatusActive ||
			newStatus == OfferStatusExpired ||
			newStatus == OfferStatusCancelled
	default:
		return false
	}
}

// RunningAt reports whether the offer is active and inside its validity
// window at the given instant.
func (o *Offer) RunningAt(at time.Time) bool {
	if o.Status != OfferStatusActive {
		return false
	}
	return !at.Before(o.ValidFrom) && !at.After(o.ValidTo)
}

// AppliesToService reports whether the offer covers the given service.
func (o *Offer) AppliesToService(serviceID uint) bool {
	return len(o.ServiceIDs) == 0 || o.ServiceIDs.Contains(serviceID)
}

// AppliesToChannel reports whether the offer covers the given sales channel.
func (o *Offer) AppliesToChannel(channel string) bool {
	return len(o.Channels) == 0 || o.Channels.Contains(channel)
}

// AppliesToSegment reports whether the offer covers the given customer segment.
func (o *Offer) AppliesToSegment(segment string) bool {
	return len(o.Segments) == 0 || o.Segments.Contains(segment)
}

// UsageExhausted reports whether the global usage cap has been reached.
func (o *Offer) UsageExhausted() bool {
	return o.MaxUsageCount != nil && o.UsageCount >= *o.MaxUsageCount
}

// OfferFilter represents filter criteria for offers
type OfferFilter struct {
	ID            *uint        `json:"id,omitempty"`
	UUID          *uuid.UUID   `json:"uuid,omitempty"`
	Name          *string      `json:"name,omitempty"`
	Type          *string      `json:"type,omitempty"`
	DiscountType  *string      `json:"discount_type,omitempty"`
	Status        *OfferStatus `json:"status,omitempty"`
	Combinable    *bool        `json:"combinable,omitempty"`
	ValidAt       *time.Time   `json:"valid_at,omitempty"`
	CreatedAfter  *time.Time   `json:"created_after,omitempty"`
	CreatedBefore *time.Time   `json:"created_before,omitempty"`
}
