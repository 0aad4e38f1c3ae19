package models

import "time"

// WeeklySchedule is the recurring operating window of a zone on one weekday.
// Weekday follows time.Weekday (0=Sunday). At most one row per (zone_id, weekday).
// Table: weekly_schedules
type WeeklySchedule struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ZoneID    uint    `gorm:"not null;uniqueIndex:uk_weekly_schedules_zone_weekday,priority:1" json:"zone_id"`
	Weekday   int     `gorm:"not null;uniqueIndex:uk_weekly_schedules_zone_weekday,priority:2;check:chk_weekly_schedules_weekday,weekday BETWEEN 0 AND 6" json:"weekday"`
	StartTime *string `gorm:"size:5" json:"start_time,omitempty"`
	EndTime   *string `gorm:"size:5" json:"end_time,omitempty"`
	FullDay   *bool   `gorm:"default:false" json:"full_day"`
	IsActive  *bool   `gorm:"default:true;index:idx_weekly_schedules_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (WeeklySchedule) TableName() string {
	return "weekly_schedules"
}

// WeeklyScheduleFilter represents filter criteria for weekly schedule queries
type WeeklyScheduleFilter struct {
	ID       *uint
	ZoneID   *uint
	Weekday  *int
	IsActive *bool
}
