package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupDiscountRule is one tier of a rule's group discount ladder.
type GroupDiscountRule struct {
	MinSize          int     `json:"min_size"`
	DiscountFraction float64 `json:"discount_fraction"`
}

// GroupDiscountRules is the ordered jsonb-backed discount ladder.
type GroupDiscountRules []GroupDiscountRule

// Value implements the driver.Valuer interface for GroupDiscountRules
func (g GroupDiscountRules) Value() (driver.Value, error) {
	if g == nil {
		return json.Marshal([]GroupDiscountRule{})
	}
	return json.Marshal(g)
}

// Scan implements the sql.Scanner interface for GroupDiscountRules
func (g *GroupDiscountRules) Scan(value any) error {
	if value == nil {
		*g = nil
		return nil
	}
	return scanJSON(value, g, "GroupDiscountRules")
}

// TimeSlot is a daily time window in "HH:MM" 24h notation, end exclusive.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Intersects reports whether two slots overlap. Malformed slots are treated
// as all-day so they surface as conflicts rather than disappear.
func (t TimeSlot) Intersects(other TimeSlot) bool {
	aStart, aEnd, aOK := t.minutes()
	bStart, bEnd, bOK := other.minutes()
	if !aOK || !bOK {
		return true
	}
	return aStart < bEnd && bStart < aEnd
}

func (t TimeSlot) minutes() (start, end int, ok bool) {
	parse := func(s string) (int, bool) {
		var h, m int
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, false
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return 0, false
		}
		return h*60 + m, true
	}
	s, sok := parse(t.Start)
	e, eok := parse(t.End)
	if !sok || !eok || e <= s {
		return 0, 0, false
	}
	return s, e, true
}

// TimeSlots is a jsonb-backed set of daily time windows. Empty means all day.
type TimeSlots []TimeSlot

// Value implements the driver.Valuer interface for TimeSlots
func (t TimeSlots) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal([]TimeSlot{})
	}
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for TimeSlots
func (t *TimeSlots) Scan(value any) error {
	if value == nil {
		*t = nil
		return nil
	}
	return scanJSON(value, t, "TimeSlots")
}

// Intersects reports whether any slot of t overlaps any slot of other.
// An empty set counts as the full day.
func (t TimeSlots) Intersects(other TimeSlots) bool {
	if len(t) == 0 || len(other) == 0 {
		return true
	}
	for _, a := range t {
		for _, b := range other {
			if a.Intersects(b) {
				return true
			}
		}
	}
	return false
}

// Weekdays is a jsonb-backed set of weekdays (time.Weekday values).
// Empty means every day of the week.
type Weekdays []time.Weekday

// Value implements the driver.Valuer interface for Weekdays
func (w Weekdays) Value() (driver.Value, error) {
	if w == nil {
		return json.Marshal([]time.Weekday{})
	}
	return json.Marshal(w)
}

// Scan implements the sql.Scanner interface for Weekdays
func (w *Weekdays) Scan(value any) error {
	if value == nil {
		*w = nil
		return nil
	}
	return scanJSON(value, w, "Weekdays")
}

// Contains reports whether the set covers the given weekday. Empty covers all.
func (w Weekdays) Contains(day time.Weekday) bool {
	if len(w) == 0 {
		return true
	}
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// AddOn is an optional priced extra attached to a rule.
type AddOn struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// AddOns is a jsonb-backed list of add-ons.
type AddOns []AddOn

// Value implements the driver.Valuer interface for AddOns
func (a AddOns) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal([]AddOn{})
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for AddOns
func (a *AddOns) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	return scanJSON(value, a, "AddOns")
}

// PriceRule prices one service under eligibility constraints (duration,
// group size, calendar). Rules are immutable once their owning list is
// published; edits require a new list version.
//
// Unset bounds mean unbounded. Contradictory bounds (min above max) are
// accepted at save time so the conflict detector can flag them as
// high-severity before publication blocks on them.
type PriceRule struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uk_price_rules_uuid" json:"uuid"`
	PriceListID       uint               `gorm:"not null;index:idx_price_rules_price_list_id" json:"price_list_id"`
	ServiceID         uint               `gorm:"not null;index:idx_price_rules_service_id" json:"service_id"`
	BasePrice         float64            `gorm:"type:numeric(12,2);not null" json:"base_price"`
	MinDuration       *int               `json:"min_duration,omitempty"`
	MaxDuration       *int               `json:"max_duration,omitempty"`
	MinGroupSize      *int               `json:"min_group_size,omitempty"`
	MaxGroupSize      *int               `json:"max_group_size,omitempty"`
	WeekdaySet        Weekdays           `gorm:"type:jsonb" json:"weekdays,omitempty"`
	Slots             TimeSlots          `gorm:"type:jsonb" json:"time_slots,omitempty"`
	ValidFrom         *time.Time         `json:"valid_from,omitempty"`
	ValidTo           *time.Time         `json:"valid_to,omitempty"`
	SeasonMultiplier  float64            `gorm:"type:numeric(6,4);not null;default:1" json:"season_multiplier"`
	WeekendMultiplier float64            `gorm:"type:numeric(6,4);not null;default:1" json:"weekend_multiplier"`
	GroupDiscounts    GroupDiscountRules `gorm:"type:jsonb" json:"group_discount_rules,omitempty"`
	Extras            AddOns             `gorm:"type:jsonb" json:"add_ons,omitempty"`
	IsActive          *bool              `gorm:"default:true;index:idx_price_rules_is_active" json:"is_active"`
	CreatedAt         time.Time          `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_price_rules_created_at" json:"created_at"`
	UpdatedAt         *time.Time         `json:"updated_at,omitempty"`

	// Relations
	PriceList *PriceList `gorm:"foreignKey:PriceListID;references:ID" json:"price_list,omitempty"`
	Service   *Service   `gorm:"foreignKey:ServiceID;references:ID" json:"service,omitempty"`
}

// TableName returns the table name for the model
func (PriceRule) TableName() string {
	return "price_rules"
}

// BeforeCreate is called before creating a new record
func (r *PriceRule) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.SeasonMultiplier == 0 {
		r.SeasonMultiplier = 1
	}
	if r.WeekendMultiplier == 0 {
		r.WeekendMultiplier = 1
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *PriceRule) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	r.UpdatedAt = &now
	return nil
}

// CoversDuration reports whether the requested duration falls inside the
// rule's duration bounds. Unset bounds are unbounded.
func (r *PriceRule) CoversDuration(duration int) bool {
	if r.MinDuration != nil && duration < *r.MinDuration {
		return false
	}
	if r.MaxDuration != nil && duration > *r.MaxDuration {
		return false
	}
	return true
}

// CoversGroupSize reports whether the requested group size falls inside the
// rule's group bounds. Unset bounds are unbounded.
func (r *PriceRule) CoversGroupSize(groupSize int) bool {
	if r.MinGroupSize != nil && groupSize < *r.MinGroupSize {
		return false
	}
	if r.MaxGroupSize != nil && groupSize > *r.MaxGroupSize {
		return false
	}
	return true
}

// CoversDate reports whether the rule's own validity window and weekday set
// cover the given date.
func (r *PriceRule) CoversDate(date time.Time) bool {
	if r.ValidFrom != nil && date.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && date.After(*r.ValidTo) {
		return false
	}
	return r.WeekdaySet.Contains(date.Weekday())
}

// HasContradictoryBounds reports whether the rule can never match anything.
func (r *PriceRule) HasContradictoryBounds() bool {
	if r.MinDuration != nil && r.MaxDuration != nil && *r.MinDuration > *r.MaxDuration {
		return true
	}
	if r.MinGroupSize != nil && r.MaxGroupSize != nil && *r.MinGroupSize > *r.MaxGroupSize {
		return true
	}
	if r.ValidFrom != nil && r.ValidTo != nil && r.ValidFrom.After(*r.ValidTo) {
		return true
	}
	return false
}

// DurationWindowWidth returns the width of the duration bounds, or a large
// sentinel when unbounded, for narrowest-window tie-breaking.
func (r *PriceRule) DurationWindowWidth() int {
	return windowWidth(r.MinDuration, r.MaxDuration)
}

// GroupWindowWidth returns the width of the group-size bounds, or a large
// sentinel when unbounded, for narrowest-window tie-breaking.
func (r *PriceRule) GroupWindowWidth() int {
	return windowWidth(r.MinGroupSize, r.MaxGroupSize)
}

const unboundedWindowWidth = 1 << 20

func windowWidth(min, max *int) int {
	if min == nil && max == nil {
		return unboundedWindowWidth
	}
	lo := 0
	if min != nil {
		lo = *min
	}
	if max == nil {
		return unboundedWindowWidth
	}
	return *max - lo
}

// PriceRuleFilter represents filter criteria for price rules
type PriceRuleFilter struct {
	ID          *uint      `json:"id,omitempty"`
	UUID        *uuid.UUID `json:"uuid,omitempty"`
	PriceListID *uint      `json:"price_list_id,omitempty"`
	ServiceID   *uint      `json:"service_id,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}
