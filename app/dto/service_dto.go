package dto

import (
	"time"
)

// CreateServiceRequest represents the request to add a bookable service
type CreateServiceRequest struct {
	AdminID      uint    `json:"-"`
	Name         string  `json:"name" validate:"required,min=3,max=255"`
	Category     string  `json:"category" validate:"required,oneof=boat_tour yacht_charter helicopter_tour buggy_ride jet_ski"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	MaxGroupSize int     `json:"max_group_size" validate:"required,gt=0"`
}

// CreateServiceResponse represents the response to add a bookable service
type CreateServiceResponse struct {
	Message   string `json:"message"`
	UUID      string `json:"uuid"`
	CreatedAt string `json:"created_at"`
}

// UpdateServiceRequest represents the request to update a service
type UpdateServiceRequest struct {
	UUID         string  `json:"-"`
	AdminID      uint    `json:"-"`
	Name         *string `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	MaxGroupSize *int    `json:"max_group_size,omitempty" validate:"omitempty,gt=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// UpdateServiceResponse represents the response to update a service
type UpdateServiceResponse struct {
	Message string `json:"message"`
}

// ServiceDTO represents a bookable service in responses
type ServiceDTO struct {
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Description  *string   `json:"description,omitempty"`
	MaxGroupSize int       `json:"max_group_size"`
	IsActive     *bool     `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListServicesResponse represents the response to list services
type ListServicesResponse struct {
	Items []ServiceDTO `json:"items"`
}
