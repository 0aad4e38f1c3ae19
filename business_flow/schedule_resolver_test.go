package businessflow

import (
	"testing"
	"time"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/stretchr/testify/assert"
)

func TestScheduleResolverWeekly(t *testing.T) {
	r := NewScheduleResolver()
	zone := &models.Zone{Schedules: []models.WeeklySchedule{
		{Weekday: int(time.Monday), StartTime: utils.ToPtr("09:00"), EndTime: utils.ToPtr("18:00"), FullDay: utils.ToPtr(false), IsActive: utils.ToPtr(true)},
		{Weekday: int(time.Saturday), FullDay: utils.ToPtr(true), IsActive: utils.ToPtr(true)},
		{Weekday: int(time.Tuesday), FullDay: utils.ToPtr(true), IsActive: utils.ToPtr(false)},
	}}
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		when      time.Time
		available bool
		reason    string
	}{
		{name: "inside the window", when: at(19, 12, 0), available: true},
		{name: "start is inclusive", when: at(19, 9, 0), available: true},
		{name: "end is exclusive", when: at(19, 18, 0), reason: "outside operating hours on Monday"},
		{name: "before opening", when: at(19, 8, 59), reason: "outside operating hours on Monday"},
		{name: "full day", when: at(17, 23, 59), available: true},
		{name: "inactive row closes the day", when: at(20, 12, 0), reason: "closed on Tuesday"},
		{name: "no row closes the day", when: at(18, 12, 0), reason: "closed on Sunday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.IsAvailable(zone, nil, tt.when)
			assert.Equal(t, tt.available, got.Available)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestScheduleResolverExceptions(t *testing.T) {
	r := NewScheduleResolver()
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	noon := monday.Add(12 * time.Hour)
	open := &models.Zone{AlwaysOpen: utils.ToPtr(true)}

	exception := func(kind string) *models.DateException {
		return &models.DateException{Date: monday, Type: kind, IsActive: utils.ToPtr(true)}
	}

	t.Run("unavailable closes an always open zone", func(t *testing.T) {
		got := r.IsAvailable(open, []*models.DateException{exception(models.DateExceptionUnavailable)}, noon)
		assert.False(t, got.Available)
		assert.Equal(t, "zone unavailable on 2026-10-19", got.Reason)
	})

	t.Run("inactive exception is ignored", func(t *testing.T) {
		ex := exception(models.DateExceptionUnavailable)
		ex.IsActive = utils.ToPtr(false)
		got := r.IsAvailable(open, []*models.DateException{ex}, noon)
		assert.True(t, got.Available)
	})

	t.Run("exception for another date is ignored", func(t *testing.T) {
		ex := exception(models.DateExceptionUnavailable)
		ex.Date = monday.AddDate(0, 0, 1)
		got := r.IsAvailable(open, []*models.DateException{ex}, noon)
		assert.True(t, got.Available)
	})

	t.Run("special hours open a closed day", func(t *testing.T) {
		closed := &models.Zone{}
		ex := exception(models.DateExceptionSpecialHours)
		ex.StartTime = utils.ToPtr("10:00")
		ex.EndTime = utils.ToPtr("14:00")

		assert.True(t, r.IsAvailable(closed, []*models.DateException{ex}, noon).Available)
		got := r.IsAvailable(closed, []*models.DateException{ex}, monday.Add(15*time.Hour))
		assert.False(t, got.Available)
		assert.Equal(t, "outside special hours on 2026-10-19", got.Reason)
	})

	t.Run("always open zone still takes special cost and time window", func(t *testing.T) {
		cost := exception(models.DateExceptionSpecialCost)
		cost.Amount = utils.ToPtr(3.0)
		window := exception(models.DateExceptionSpecialTimeWindow)
		window.MinMinutes = utils.ToPtr(30)
		window.MaxMinutes = utils.ToPtr(90)

		got := r.IsAvailable(open, []*models.DateException{cost, window}, noon)
		assert.True(t, got.Available)
		assert.Equal(t, 3.0, *got.SpecialCost)
		assert.Equal(t, 30, *got.ETAMin)
		assert.Equal(t, 90, *got.ETAMax)
	})
}

func TestValidateWindow(t *testing.T) {
	tests := []struct {
		name       string
		start, end *string
		ok         bool
	}{
		{name: "valid", start: utils.ToPtr("08:30"), end: utils.ToPtr("17:00"), ok: true},
		{name: "until midnight", start: utils.ToPtr("20:00"), end: utils.ToPtr("24:00"), ok: true},
		{name: "equal bounds", start: utils.ToPtr("10:00"), end: utils.ToPtr("10:00")},
		{name: "missing end", start: utils.ToPtr("10:00")},
		{name: "out of range hour", start: utils.ToPtr("25:00"), end: utils.ToPtr("26:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.start, tt.end)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTimeWindow)
		})
	}
}
