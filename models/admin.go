package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin role constants
const (
	AdminRoleViewer     = "viewer"
	AdminRoleEditor     = "editor"
	AdminRoleSuperadmin = "superadmin"
)

// Admin is an operator account on the administration surface.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_admins_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_admins_username" json:"username"`
	FullName     *string   `gorm:"size:255" json:"full_name,omitempty"`
	Role         string    `gorm:"size:20;not null;default:'editor'" json:"role"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`

	IsActive    *bool      `gorm:"default:true;index:idx_admins_is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_admins_last_login_at" json:"last_login_at,omitempty"`
}

// TableName returns the table name for the model
func (Admin) TableName() string {
	return "admins"
}

// CanEdit reports whether the account may mutate pricing data.
func (a *Admin) CanEdit() bool {
	return a.Role == AdminRoleEditor || a.Role == AdminRoleSuperadmin
}

// AdminFilter represents filter criteria for admin queries
type AdminFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Username *string    `json:"username,omitempty"`
	Role     *string    `json:"role,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
