package models

import (
	"encoding/json"
	"time"
)

// AuditLog is the persisted event-sink record for engine mutations: every
// publish, redemption and conflict detection leaves a row here.
type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AdminID      *uint           `gorm:"index:idx_audit_admin_id" json:"admin_id,omitempty"`
	Admin        *Admin          `gorm:"foreignKey:AdminID;references:ID" json:"admin,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionPriceListCreated   = "price_list_created"
	AuditActionPriceListUpdated   = "price_list_updated"
	AuditActionPriceListCloned    = "price_list_cloned"
	AuditActionPriceListPublished = "price_list_published"
	AuditActionPublishBlocked     = "price_list_publish_blocked"
	AuditActionPriceListArchived  = "price_list_archived"
	AuditActionConflictDetected   = "conflict_detected"
	AuditActionOfferCreated       = "offer_created"
	AuditActionOfferUpdated       = "offer_updated"
	AuditActionOfferStatusChanged = "offer_status_changed"
	AuditActionPromoCodeCreated   = "promo_code_created"
	AuditActionPromoRedeemed      = "promo_code_redeemed"
	AuditActionPromoRejected      = "promo_code_rejected"
	AuditActionPromoVoided        = "promo_redemption_voided"
	AuditActionAdminLoginSuccess  = "admin_login_success"
	AuditActionAdminLoginFailed   = "admin_login_failed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint      `json:"id,omitempty"`
	AdminID       *uint      `json:"admin_id,omitempty"`
	Action        *string    `json:"action,omitempty"`
	Success       *bool      `json:"success,omitempty"`
	RequestID     *string    `json:"request_id,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}

// IsFailed reports whether the logged action failed.
func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
