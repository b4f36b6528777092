package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromoCode is a redeemable token bound to an offer. The offer binding is a
// weak reference: the code survives offer deletion and redemption simply
// rejects with OfferNotActive.
type PromoCode struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_promo_codes_uuid" json:"uuid"`
	Code            string     `gorm:"size:64;not null;uniqueIndex:uk_promo_codes_code" json:"code"`
	OfferID         uint       `gorm:"not null;index:idx_promo_codes_offer_id" json:"offer_id"`
	MaxUses         *int       `json:"max_uses,omitempty"`
	UsedCount       int        `gorm:"not null;default:0" json:"used_count"`
	AssignedUserIDs UintSlice  `gorm:"type:jsonb" json:"assigned_user_ids,omitempty"`
	OneTimeUse      bool       `gorm:"not null;default:false" json:"one_time_use"`
	IsActive        *bool      `gorm:"default:true;index:idx_promo_codes_is_active" json:"is_active"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
	CreatedAt       time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (PromoCode) TableName() string {
	return "promo_codes"
}

// BeforeCreate is called before creating a new record.
// Codes are stored normalized so lookups are case-insensitive.
func (p *PromoCode) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	p.Code = utils.NormalizeCode(p.Code)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (p *PromoCode) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	p.UpdatedAt = &now
	return nil
}

// Exhausted reports whether the global usage cap has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses != nil && p.UsedCount >= *p.MaxUses
}

// AssignedTo reports whether the code is redeemable by the given user.
// An empty assignment set means any user may redeem.
func (p *PromoCode) AssignedTo(userID uint) bool {
	return len(p.AssignedUserIDs) == 0 || p.AssignedUserIDs.Contains(userID)
}

// PromoCodeFilter represents filter criteria for promo codes
type PromoCodeFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Code     *string    `json:"code,omitempty"`
	OfferID  *uint      `json:"offer_id,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

// RedemptionStatus represents the state of a single redemption
type RedemptionStatus string

const (
	RedemptionStatusReserved  RedemptionStatus = "reserved"
	RedemptionStatusConfirmed RedemptionStatus = "confirmed"
	RedemptionStatusVoided    RedemptionStatus = "voided"
)

// String returns the string representation of the status
func (s RedemptionStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionStatusReserved, RedemptionStatusConfirmed, RedemptionStatusVoided:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RedemptionStatus
func (s *RedemptionStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = RedemptionStatus(v)
	case []byte:
		*s = RedemptionStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RedemptionStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RedemptionStatus
func (s RedemptionStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid RedemptionStatus: %s", s)
	}
	return string(s), nil
}

// PromoRedemption is one ledger entry for a promo code. Entries are created
// reserved alongside the order, confirmed when the order settles and voided
// when it does not; the code's used_count moves with the entry, inside the
// same transaction.
type PromoRedemption struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uk_promo_redemptions_uuid" json:"uuid"`
	PromoCodeID uint             `gorm:"not null;index:idx_promo_redemptions_code_id" json:"promo_code_id"`
	OfferID     uint             `gorm:"not null;index:idx_promo_redemptions_offer_id" json:"offer_id"`
	UserID      uint             `gorm:"not null;index:idx_promo_redemptions_user_id" json:"user_id"`
	OrderRef    string           `gorm:"size:255;not null" json:"order_ref"`
	OrderAmount float64          `gorm:"type:numeric(14,2);not null;default:0" json:"order_amount"`
	RequestID   string           `gorm:"size:255;not null;uniqueIndex:uk_promo_redemptions_request_id" json:"request_id"`
	Status      RedemptionStatus `gorm:"type:redemption_status;not null;default:'reserved';index:idx_promo_redemptions_status" json:"status"`
	CreatedAt   time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_promo_redemptions_created_at" json:"created_at"`
	ConfirmedAt *time.Time       `json:"confirmed_at,omitempty"`
	VoidedAt    *time.Time       `json:"voided_at,omitempty"`

	// Relations
	PromoCode *PromoCode `gorm:"foreignKey:PromoCodeID;references:ID" json:"promo_code,omitempty"`
}

// TableName returns the table name for the model
func (PromoRedemption) TableName() string {
	return "promo_redemptions"
}

// BeforeCreate is called before creating a new record
func (r *PromoRedemption) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RedemptionStatusReserved
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// CountsAgainstCaps reports whether the entry still holds usage capacity.
func (r *PromoRedemption) CountsAgainstCaps() bool {
	return r.Status == RedemptionStatusReserved || r.Status == RedemptionStatusConfirmed
}

// PromoRedemptionFilter represents filter criteria for redemption entries
type PromoRedemptionFilter struct {
	ID          *uint             `json:"id,omitempty"`
	PromoCodeID *uint             `json:"promo_code_id,omitempty"`
	OfferID     *uint             `json:"offer_id,omitempty"`
	UserID      *uint             `json:"user_id,omitempty"`
	OrderRef    *string           `json:"order_ref,omitempty"`
	RequestID   *string           `json:"request_id,omitempty"`
	Status      *RedemptionStatus `json:"status,omitempty"`
}
