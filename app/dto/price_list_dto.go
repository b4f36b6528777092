package dto

import (
	"time"
)

// GroupDiscountRuleDTO is one tier of a rule's group discount ladder
type GroupDiscountRuleDTO struct {
	MinSize          int     `json:"min_size" validate:"required,gt=0"`
	DiscountFraction float64 `json:"discount_fraction" validate:"gte=0,lt=1"`
}

// TimeSlotDTO is an intra-day window in HH:MM
type TimeSlotDTO struct {
	Start string `json:"start" validate:"required,len=5"`
	End   string `json:"end" validate:"required,len=5"`
}

// AddOnDTO is an optional priced extra attached to a rule
type AddOnDTO struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Price float64 `json:"price" validate:"gte=0"`
}

// PriceRuleDTO represents one rule of a price list
type PriceRuleDTO struct {
	UUID              string                 `json:"uuid,omitempty"`
	ServiceUUID       string                 `json:"service_uuid" validate:"required,uuid"`
	BasePrice         float64                `json:"base_price" validate:"required,gt=0"`
	MinDuration       *int                   `json:"min_duration,omitempty" validate:"omitempty,gt=0"`
	MaxDuration       *int                   `json:"max_duration,omitempty" validate:"omitempty,gt=0"`
	MinGroupSize      *int                   `json:"min_group_size,omitempty" validate:"omitempty,gt=0"`
	MaxGroupSize      *int                   `json:"max_group_size,omitempty" validate:"omitempty,gt=0"`
	SeasonMultiplier  float64                `json:"season_multiplier" validate:"gt=0"`
	WeekendMultiplier float64                `json:"weekend_multiplier" validate:"gt=0"`
	GroupDiscounts    []GroupDiscountRuleDTO `json:"group_discounts,omitempty" validate:"omitempty,dive"`
	Weekdays          []int                  `json:"weekdays,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
	Slots             []TimeSlotDTO          `json:"slots,omitempty" validate:"omitempty,dive"`
	AddOns            []AddOnDTO             `json:"add_ons,omitempty" validate:"omitempty,dive"`
	IsActive          *bool                  `json:"is_active,omitempty"`
}

// CreatePriceListRequest represents the request to create a draft price list
type CreatePriceListRequest struct {
	AdminID   uint           `json:"-"`
	Name      string         `json:"name" validate:"required,min=3,max=255"`
	Season    string         `json:"season" validate:"required,oneof=low high peak"`
	Channel   string         `json:"channel" validate:"required,oneof=website partner office"`
	Segment   string         `json:"segment" validate:"required,oneof=standard vip corporate"`
	Currency  *string        `json:"currency,omitempty" validate:"omitempty,len=3"`
	ValidFrom time.Time      `json:"valid_from" validate:"required"`
	ValidTo   *time.Time     `json:"valid_to,omitempty"`
	Rules     []PriceRuleDTO `json:"rules,omitempty" validate:"omitempty,dive"`
}

// CreatePriceListResponse represents the response to create a draft price list
type CreatePriceListResponse struct {
	Message   string `json:"message"`
	UUID      string `json:"uuid"`
	LineageID string `json:"lineage_id"`
	Version   int    `json:"version"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// UpdatePriceListRequest represents the request to update a draft price list
type UpdatePriceListRequest struct {
	UUID      string         `json:"-"`
	AdminID   uint           `json:"-"`
	Name      *string        `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Season    *string        `json:"season,omitempty" validate:"omitempty,oneof=low high peak"`
	ValidFrom *time.Time     `json:"valid_from,omitempty"`
	ValidTo   *time.Time     `json:"valid_to,omitempty"`
	Rules     []PriceRuleDTO `json:"rules,omitempty" validate:"omitempty,dive"`
}

// UpdatePriceListResponse represents the response to update a draft price list
type UpdatePriceListResponse struct {
	Message string `json:"message"`
}

// PriceListDTO represents a price list in responses
type PriceListDTO struct {
	UUID        string         `json:"uuid"`
	LineageID   string         `json:"lineage_id"`
	Name        string         `json:"name"`
	Season      string         `json:"season"`
	Channel     string         `json:"channel"`
	Segment     string         `json:"segment"`
	Currency    string         `json:"currency"`
	Version     int            `json:"version"`
	Status      string         `json:"status"`
	ValidFrom   time.Time      `json:"valid_from"`
	ValidTo     *time.Time     `json:"valid_to,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	ArchivedAt  *time.Time     `json:"archived_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Rules       []PriceRuleDTO `json:"rules,omitempty"`
}

// ListPriceListsRequest represents the request to list price lists
type ListPriceListsRequest struct {
	Season   *string `json:"season,omitempty" validate:"omitempty,oneof=low high peak"`
	Channel  *string `json:"channel,omitempty" validate:"omitempty,oneof=website partner office"`
	Segment  *string `json:"segment,omitempty" validate:"omitempty,oneof=standard vip corporate"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	Page     int     `json:"page" validate:"omitempty,gte=1"`
	PageSize int     `json:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// ListPriceListsResponse represents the response to list price lists
type ListPriceListsResponse struct {
	Items []PriceListDTO `json:"items"`
	Total int64          `json:"total"`
}

// ClonePriceListRequest represents the request to clone a list into a new draft version
type ClonePriceListRequest struct {
	UUID    string `json:"-"`
	AdminID uint   `json:"-"`
}

// ClonePriceListResponse represents the response to clone a price list
type ClonePriceListResponse struct {
	Message string `json:"message"`
	UUID    string `json:"uuid"`
	Version int    `json:"version"`
	Status  string `json:"status"`
}

// PublishPriceListRequest represents the request to publish a draft
type PublishPriceListRequest struct {
	UUID    string `json:"-"`
	AdminID uint   `json:"-"`
}

// PublishPriceListResponse represents the response to publish a draft
type PublishPriceListResponse struct {
	Message     string             `json:"message"`
	UUID        string             `json:"uuid"`
	Version     int                `json:"version"`
	PublishedAt string             `json:"published_at"`
	Conflicts   []PriceConflictDTO `json:"conflicts,omitempty"`
}

// ArchivePriceListRequest represents the request to archive a list
type ArchivePriceListRequest struct {
	UUID    string `json:"-"`
	AdminID uint   `json:"-"`
}

// ArchivePriceListResponse represents the response to archive a list
type ArchivePriceListResponse struct {
	Message string `json:"message"`
}

// PriceConflictDTO represents one detected conflict in a price list
type PriceConflictDTO struct {
	Type      string   `json:"type"`
	Severity  string   `json:"severity"`
	ServiceID uint     `json:"service_id"`
	RuleUUIDs []string `json:"rule_uuids"`
	Message   string   `json:"message"`
}

// ListConflictsResponse represents the conflict report of a price list
type ListConflictsResponse struct {
	UUID      string             `json:"uuid"`
	Conflicts []PriceConflictDTO `json:"conflicts"`
	Blocking  bool               `json:"blocking"`
}

// LineageResponse represents the version history of a price list lineage
type LineageResponse struct {
	LineageID string         `json:"lineage_id"`
	Versions  []PriceListDTO `json:"versions"`
}

// ExportPriceListRequest represents the request to export a list as a spreadsheet
type ExportPriceListRequest struct {
	UUID string `json:"-"`
}
