package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service category constants
const (
	ServiceCategoryBoatTour       = "boat_tour"
	ServiceCategoryYachtCharter   = "yacht_charter"
	ServiceCategoryHelicopterTour = "helicopter_tour"
	ServiceCategoryBuggyRide      = "buggy_ride"
	ServiceCategoryJetSki         = "jet_ski"
)

// Service is a bookable tour-operator service that price rules and offers reference.
type Service struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_services_uuid" json:"uuid"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Category     string    `gorm:"size:50;not null;index:idx_services_category" json:"category"`
	Description  *string   `gorm:"type:text" json:"description,omitempty"`
	MaxGroupSize int       `gorm:"not null;default:1" json:"max_group_size"`
	IsActive     *bool     `gorm:"default:true;index:idx_services_is_active" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for the model
func (Service) TableName() string {
	return "services"
}

// BeforeCreate is called before creating a new record
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	return nil
}

// ServiceFilter represents filter criteria for service queries
type ServiceFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Category *string    `json:"category,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
