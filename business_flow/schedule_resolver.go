package businessflow

import (
	"fmt"
	"time"

	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
)

// Availability is the schedule verdict for one zone at one instant.
// SpecialCost and the ETA bounds come from date exceptions and never affect Available.
type Availability struct {
	Available   bool
	Reason      string
	SpecialCost *float64
	ETAMin      *int
	ETAMax      *int
}

// ScheduleResolver merges weekly schedules with date exceptions
type ScheduleResolver interface {
	IsAvailable(zone *models.Zone, exceptions []*models.DateException, when time.Time) Availability
}

type ScheduleResolverImpl struct{}

func NewScheduleResolver() ScheduleResolver {
	return &ScheduleResolverImpl{}
}

// IsAvailable expects exceptions already narrowed to when's date; rows for other dates are ignored.
func (r *ScheduleResolverImpl) IsAvailable(zone *models.Zone, exceptions []*models.DateException, when time.Time) Availability {
	date := utils.DateOf(when)

	var unavailable, specialHours *models.DateException
	var result Availability
	for _, ex := range exceptions {
		if !utils.IsTrue(ex.IsActive) || ex.DateKey() != date {
			continue
		}
		switch ex.Type {
		case models.DateExceptionUnavailable:
			unavailable = ex
		case models.DateExceptionSpecialHours:
			specialHours = ex
		case models.DateExceptionSpecialCost:
			result.SpecialCost = ex.Amount
		case models.DateExceptionSpecialTimeWindow:
			result.ETAMin = ex.MinMinutes
			result.ETAMax = ex.MaxMinutes
		}
	}

	if unavailable != nil {
		result.Reason = utils.Deref(unavailable.Reason)
		if result.Reason == "" {
			result.Reason = fmt.Sprintf("zone unavailable on %s", date)
		}
		return result
	}

	// always_open skips hours only; special cost and time window still apply
	if utils.IsTrue(zone.AlwaysOpen) {
		result.Available = true
		return result
	}

	minute := utils.MinuteOfDay(when)

	if specialHours != nil {
		result.Available = inWindow(specialHours.StartTime, specialHours.EndTime, minute)
		if !result.Available {
			result.Reason = fmt.Sprintf("outside special hours on %s", date)
		}
		return result
	}

	weekday := int(when.Weekday())
	for i := range zone.Schedules {
		row := &zone.Schedules[i]
		if row.Weekday != weekday || !utils.IsTrue(row.IsActive) {
			continue
		}
		if utils.IsTrue(row.FullDay) {
			result.Available = true
			return result
		}
		result.Available = inWindow(row.StartTime, row.EndTime, minute)
		if !result.Available {
			result.Reason = fmt.Sprintf("outside operating hours on %s", when.Weekday())
		}
		return result
	}

	result.Reason = fmt.Sprintf("closed on %s", when.Weekday())
	return result
}

// inWindow reports whether minute lies in [start, end). Malformed bounds never match.
func inWindow(start, end *string, minute int) bool {
	if start == nil || end == nil {
		return false
	}
	from, err := utils.ParseClock(*start)
	if err != nil {
		return false
	}
	to, err := utils.ParseClock(*end)
	if err != nil {
		return false
	}
	return from <= minute && minute < to
}

// ValidateWindow checks an HH:MM pair with start strictly before end
func ValidateWindow(start, end *string) error {
	if start == nil || end == nil {
		return ErrInvalidTimeWindow
	}
	from, err := utils.ParseClock(*start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimeWindow, err)
	}
	to, err := utils.ParseClock(*end)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimeWindow, err)
	}
	if from >= to {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidTimeWindow, *start, *end)
	}
	return nil
}
