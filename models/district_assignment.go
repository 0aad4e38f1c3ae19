package models

import "time"

// District assignment priorities; lower wins
const (
	DistrictPriorityHigh   = 1
	DistrictPriorityMedium = 2
	DistrictPriorityLow    = 3
)

// DistrictAssignment maps an administrative district to a zone independently of geometry.
// At most one row exists per (zone_id, district_id).
// Table: district_assignments
type DistrictAssignment struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	ZoneID           uint     `gorm:"not null;uniqueIndex:uk_district_assignments_zone_district,priority:1;index:idx_district_assignments_zone_id" json:"zone_id"`
	DistrictID       uint     `gorm:"not null;uniqueIndex:uk_district_assignments_zone_district,priority:2;index:idx_district_assignments_district_id" json:"district_id"`
	Priority         int      `gorm:"not null;default:1;check:chk_district_assignments_priority,priority BETWEEN 1 AND 3" json:"priority"`
	CostOverride     *float64 `gorm:"type:numeric(12,2)" json:"cost_override,omitempty"`
	ExtraTimeMinutes *int     `json:"extra_time_minutes,omitempty"`
	IsActive         *bool    `gorm:"default:true;index:idx_district_assignments_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (DistrictAssignment) TableName() string {
	return "district_assignments"
}

// DistrictAssignmentFilter represents filter criteria for district assignment queries
type DistrictAssignmentFilter struct {
	ID         *uint
	ZoneID     *uint
	DistrictID *uint
	Priority   *int
	IsActive   *bool
}
