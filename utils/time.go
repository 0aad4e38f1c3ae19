// Package utils provides utility functions for the application.
package utils

import (
	"fmt"
	"time"
)

// DateLayout is the layout used for date-only values (exceptions)
const DateLayout = "2006-01-02"

// ClockLayout is the layout used for wall-clock values (schedules)
const ClockLayout = "15:04"

// Clock supplies the current time. Flows take a Clock instead of calling time.Now
// so results stay reproducible under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock
type SystemClock struct{}

// Now returns the current time in UTC
func (SystemClock) Now() time.Time {
	return UTCNow()
}

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// DateOf formats the calendar date of t in its own location
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// ParseClock parses an HH:MM value into minutes since midnight.
// "24:00" is accepted as the end of day.
func ParseClock(s string) (int, error) {
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinuteOfDay returns minutes since midnight of t in its own location
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
