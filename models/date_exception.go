package models

import "time"

// Date exception types
const (
	DateExceptionUnavailable       = "unavailable"
	DateExceptionSpecialHours      = "special_hours"
	DateExceptionSpecialCost       = "special_cost"
	DateExceptionSpecialTimeWindow = "special_time_window"
)

// DateExceptionTypes lists every valid exception type
var DateExceptionTypes = []string{
	DateExceptionUnavailable,
	DateExceptionSpecialHours,
	DateExceptionSpecialCost,
	DateExceptionSpecialTimeWindow,
}

// DateException is a one-off override of a zone's rules on a calendar date.
// At most one row per (zone_id, date, type).
// Table: date_exceptions
type DateException struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	ZoneID uint      `gorm:"not null;uniqueIndex:uk_date_exceptions_zone_date_type,priority:1" json:"zone_id"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:uk_date_exceptions_zone_date_type,priority:2;index:idx_date_exceptions_date" json:"date"`
	Type   string    `gorm:"size:32;not null;uniqueIndex:uk_date_exceptions_zone_date_type,priority:3" json:"type"`

	// special_hours
	StartTime *string `gorm:"size:5" json:"start_time,omitempty"`
	EndTime   *string `gorm:"size:5" json:"end_time,omitempty"`
	// special_cost
	Amount *float64 `gorm:"type:numeric(12,2)" json:"amount,omitempty"`
	// special_time_window
	MinMinutes *int `json:"min_minutes,omitempty"`
	MaxMinutes *int `json:"max_minutes,omitempty"`

	Reason   *string `gorm:"type:text" json:"reason,omitempty"`
	IsActive *bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (DateException) TableName() string {
	return "date_exceptions"
}

// DateKey returns the exception's calendar date as YYYY-MM-DD
func (e *DateException) DateKey() string {
	return e.Date.Format("2006-01-02")
}

// DateExceptionFilter represents filter criteria for date exception queries.
// Dates are YYYY-MM-DD strings.
type DateExceptionFilter struct {
	ID       *uint
	ZoneID   *uint
	Date     *string
	DateFrom *string
	DateTo   *string
	Type     *string
	IsActive *bool
}
