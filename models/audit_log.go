package models

import (
	"time"

	"gorm.io/datatypes"
)

// ZoneAuditLog records every administrative write to zone configuration
type ZoneAuditLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AdminID      *uint          `gorm:"index:idx_zone_audit_admin_id" json:"admin_id,omitempty"`
	ZoneID       *uint          `gorm:"index:idx_zone_audit_zone_id" json:"zone_id,omitempty"`
	Action       string         `gorm:"size:64;not null;index:idx_zone_audit_action" json:"action"`
	Description  *string        `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string        `gorm:"size:64" json:"ip_address,omitempty"`
	RequestID    *string        `gorm:"size:255;index:idx_zone_audit_request_id" json:"request_id,omitempty"`
	Metadata     datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool          `gorm:"default:true;index:idx_zone_audit_success" json:"success"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_zone_audit_created_at" json:"created_at"`
}

func (ZoneAuditLog) TableName() string {
	return "zone_audit_log"
}

// Audit action constants
const (
	AuditActionZoneCreated        = "zone_created"
	AuditActionZoneUpdated        = "zone_updated"
	AuditActionZoneDeactivated    = "zone_deactivated"
	AuditActionDistrictAssigned   = "district_assigned"
	AuditActionDistrictUpdated    = "district_updated"
	AuditActionDistrictRemoved    = "district_removed"
	AuditActionTierCreated        = "tier_created"
	AuditActionTierUpdated        = "tier_updated"
	AuditActionTierRemoved        = "tier_removed"
	AuditActionScheduleCreated    = "schedule_created"
	AuditActionScheduleUpdated    = "schedule_updated"
	AuditActionScheduleRemoved    = "schedule_removed"
	AuditActionExceptionCreated   = "exception_created"
	AuditActionExceptionRemoved   = "exception_removed"
	AuditActionAdminLoginSuccess  = "admin_login_success"
	AuditActionAdminLoginFailed   = "admin_login_failed"
	AuditActionAddressRevalidated = "addresses_revalidated"
)

// ZoneAuditLogFilter represents filter criteria for audit log queries
type ZoneAuditLogFilter struct {
	ID            *uint
	AdminID       *uint
	ZoneID        *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *ZoneAuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
