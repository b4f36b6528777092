package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceListStatus represents the publication status of a price list
type PriceListStatus string

const (
	PriceListStatusDraft     PriceListStatus = "draft"
	PriceListStatusPublished PriceListStatus = "published"
	PriceListStatusArchived  PriceListStatus = "archived"
)

// String returns the string representation of the status
func (s PriceListStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s PriceListStatus) Valid() bool {
	switch s {
	case PriceListStatusDraft, PriceListStatusPublished, PriceListStatusArchived:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PriceListStatus
func (s *PriceListStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PriceListStatus(v)
	case []byte:
		*s = PriceListStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PriceListStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PriceListStatus
func (s PriceListStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PriceListStatus: %s", s)
	}
	return string(s), nil
}

// Sales channel constants
const (
	ChannelWebsite = "website"
	ChannelPartner = "partner"
	ChannelOffice  = "office"
)

// Customer segment constants
const (
	SegmentStandard  = "standard"
	SegmentVIP       = "vip"
	SegmentCorporate = "corporate"
)

// Season constants
const (
	SeasonLow  = "low"
	SeasonHigh = "high"
	SeasonPeak = "peak"
)

// PriceList is a versioned, channel/segment/season-scoped collection of price
// rules with a publication lifecycle. Versions of the same list share a
// lineage; the version number is monotonic within it. At most one list per
// (channel, segment, season) may be published at a time.
type PriceList struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_price_lists_uuid" json:"uuid"`
	LineageID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_lists_lineage_id" json:"lineage_id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Season          string          `gorm:"size:20;not null;index:idx_price_lists_scope" json:"season"`
	Channel         string          `gorm:"size:20;not null;index:idx_price_lists_scope" json:"channel"`
	Segment         string          `gorm:"size:20;not null;index:idx_price_lists_scope" json:"segment"`
	Currency        string          `gorm:"size:3;not null;default:'RUB'" json:"currency"`
	Version         int             `gorm:"not null;default:1" json:"version"`
	ParentVersionID *uint           `gorm:"index:idx_price_lists_parent_version" json:"parent_version_id,omitempty"`
	Status          PriceListStatus `gorm:"type:price_list_status;not null;default:'draft';index:idx_price_lists_status" json:"status"`
	ValidFrom       time.Time       `gorm:"not null" json:"valid_from"`
	ValidTo         *time.Time      `json:"valid_to,omitempty"`
	LockVersion     int             `gorm:"not null;default:0" json:"lock_version"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	ArchivedAt      *time.Time      `json:"archived_at,omitempty"`
	CreatedAt       time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_price_lists_created_at" json:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`

	// Relations
	Rules []PriceRule `gorm:"foreignKey:PriceListID" json:"rules,omitempty"`
}

// TableName returns the table name for the model
func (PriceList) TableName() string {
	return "price_lists"
}

// BeforeCreate is called before creating a new record
func (l *PriceList) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	if l.LineageID == uuid.Nil {
		l.LineageID = uuid.New()
	}
	if l.Status == "" {
		l.Status = PriceListStatusDraft
	}
	if l.Version == 0 {
		l.Version = 1
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (l *PriceList) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	l.UpdatedAt = &now
	return nil
}

// IsEditable checks if the list and its rules can still be modified.
// Published and archived lists are immutable; edits require a cloned draft.
func (l *PriceList) IsEditable() bool {
	return l.Status == PriceListStatusDraft
}

// CanTransitionTo checks if the list can transition to the given status.
// Archived is terminal.
func (l *PriceList) CanTransitionTo(newStatus PriceListStatus) bool {
	switch l.Status {
	case PriceListStatusDraft:
		return newStatus == PriceListStatusPublished || newStatus == PriceListStatusArchived
	case PriceListStatusPublished:
		return newStatus == PriceListStatusArchived
	default:
		return false
	}
}

// ValidAt reports whether the list's own validity window covers the given date.
func (l *PriceList) ValidAt(at time.Time) bool {
	if at.Before(l.ValidFrom) {
		return false
	}
	if l.ValidTo != nil && at.After(*l.ValidTo) {
		return false
	}
	return true
}

// PriceListFilter represents filter criteria for price lists
type PriceListFilter struct {
	ID            *uint            `json:"id,omitempty"`
	UUID          *uuid.UUID       `json:"uuid,omitempty"`
	LineageID     *uuid.UUID       `json:"lineage_id,omitempty"`
	Season        *string          `json:"season,omitempty"`
	Channel       *string          `json:"channel,omitempty"`
	Segment       *string          `json:"segment,omitempty"`
	Status        *PriceListStatus `json:"status,omitempty"`
	Version       *int             `json:"version,omitempty"`
	CreatedAfter  *time.Time       `json:"created_after,omitempty"`
	CreatedBefore *time.Time       `json:"created_before,omitempty"`
}
