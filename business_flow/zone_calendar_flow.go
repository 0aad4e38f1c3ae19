package businessflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/utils"
)

func (f *ZoneAdminFlowImpl) AddSchedule(ctx context.Context, zoneID uint, req *dto.AdminWeeklyScheduleRequest) (*dto.WeeklyScheduleDTO, error) {
	row, err := scheduleFromRequest(req)
	if err != nil {
		return nil, err
	}
	row.ZoneID = zoneID

	w := &zoneWrite{
		action:      models.AuditActionScheduleCreated,
		description: fmt.Sprintf("Schedule for weekday %d added to zone %d", row.Weekday, zoneID),
		metadata:    map[string]any{"weekday": row.Weekday, "full_day": utils.IsTrue(row.FullDay)},
	}
	err = f.writeZone(ctx, zoneID, w, func(txCtx context.Context) error {
		if _, err := f.mustZone(txCtx, zoneID); err != nil {
			return err
		}
		existing, err := f.scheduleRepo.ByZoneAndWeekday(txCtx, zoneID, row.Weekday)
		if err != nil {
			return NewBusinessError("SCHEDULE_LOOKUP_FAILED", "Failed to lookup schedule", err)
		}
		if existing != nil {
			return NewBusinessError("DUPLICATE_SCHEDULE_ENTRY", "Schedule entry already exists", ErrDuplicateScheduleEntry)
		}
		if err := f.scheduleRepo.Save(txCtx, row); err != nil {
			return NewBusinessError("SCHEDULE_CREATE_FAILED", "Failed to create schedule", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToWeeklyScheduleDTO(*row)
	return &out, nil
}

func (f *ZoneAdminFlowImpl) UpdateSchedule(ctx context.Context, scheduleID uint, req *dto.AdminWeeklyScheduleRequest) (*dto.WeeklyScheduleDTO, error) {
	incoming, err := scheduleFromRequest(req)
	if err != nil {
		return nil, err
	}
	current, err := f.mustSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	w := &zoneWrite{
		action:      models.AuditActionScheduleUpdated,
		description: fmt.Sprintf("Schedule %d updated", scheduleID),
		metadata:    map[string]any{"schedule_id": scheduleID, "weekday": incoming.Weekday},
	}
	var updated *models.WeeklySchedule
	err = f.writeZone(ctx, current.ZoneID, w, func(txCtx context.Context) error {
		row, err := f.mustSchedule(txCtx, scheduleID)
		if err != nil {
			return err
		}
		if incoming.Weekday != row.Weekday {
			other, err := f.scheduleRepo.ByZoneAndWeekday(txCtx, row.ZoneID, incoming.Weekday)
			if err != nil {
				return NewBusinessError("SCHEDULE_LOOKUP_FAILED", "Failed to lookup schedule", err)
			}
			if other != nil && other.ID != row.ID {
				return NewBusinessError("DUPLICATE_SCHEDULE_ENTRY", "Schedule entry already exists", ErrDuplicateScheduleEntry)
			}
		}
		row.Weekday = incoming.Weekday
		row.StartTime = incoming.StartTime
		row.EndTime = incoming.EndTime
		row.FullDay = incoming.FullDay
		if req.IsActive != nil {
			row.IsActive = incoming.IsActive
		}
		if err := f.scheduleRepo.Update(txCtx, row); err != nil {
			return NewBusinessError("SCHEDULE_UPDATE_FAILED", "Failed to update schedule", err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToWeeklyScheduleDTO(*updated)
	return &out, nil
}

// RemoveSchedule deletes the row; the weekday becomes closed
func (f *ZoneAdminFlowImpl) RemoveSchedule(ctx context.Context, scheduleID uint) (*dto.AdminMessageResponse, error) {
	current, err := f.mustSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	w := &zoneWrite{
		action:      models.AuditActionScheduleRemoved,
		description: fmt.Sprintf("Schedule for weekday %d removed from zone %d", current.Weekday, current.ZoneID),
		metadata:    map[string]any{"schedule_id": scheduleID},
	}
	err = f.writeZone(ctx, current.ZoneID, w, func(txCtx context.Context) error {
		if _, err := f.mustSchedule(txCtx, scheduleID); err != nil {
			return err
		}
		if err := f.scheduleRepo.DeleteByID(txCtx, scheduleID); err != nil {
			return NewBusinessError("SCHEDULE_DELETE_FAILED", "Failed to delete schedule", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.AdminMessageResponse{Message: "schedule removed"}, nil
}

func (f *ZoneAdminFlowImpl) ListSchedules(ctx context.Context, zoneID uint) ([]dto.WeeklyScheduleDTO, error) {
	if _, err := f.mustZone(ctx, zoneID); err != nil {
		return nil, err
	}
	rows, err := f.scheduleRepo.ByFilter(ctx, models.WeeklyScheduleFilter{ZoneID: &zoneID}, "weekday ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LIST_FAILED", "Failed to list schedules", err)
	}
	out := make([]dto.WeeklyScheduleDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToWeeklyScheduleDTO(*row))
	}
	return out, nil
}

func (f *ZoneAdminFlowImpl) mustSchedule(ctx context.Context, id uint) (*models.WeeklySchedule, error) {
	row, err := f.scheduleRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LOOKUP_FAILED", "Failed to lookup schedule", err)
	}
	if row == nil {
		return nil, NewBusinessError("SCHEDULE_NOT_FOUND", "Schedule entry not found", ErrScheduleNotFound)
	}
	return row, nil
}

func (f *ZoneAdminFlowImpl) AddException(ctx context.Context, zoneID uint, req *dto.AdminDateExceptionRequest) (*dto.DateExceptionDTO, error) {
	row, err := exceptionFromRequest(req)
	if err != nil {
		return nil, err
	}
	row.ZoneID = zoneID
	dateKey := row.DateKey()

	w := &zoneWrite{
		action:      models.AuditActionExceptionCreated,
		description: fmt.Sprintf("%s exception on %s added to zone %d", row.Type, dateKey, zoneID),
		metadata:    map[string]any{"date": dateKey, "type": row.Type},
	}
	err = f.writeZone(ctx, zoneID, w, func(txCtx context.Context) error {
		if _, err := f.mustZone(txCtx, zoneID); err != nil {
			return err
		}
		existing, err := f.exceptionRepo.ByZoneDateType(txCtx, zoneID, dateKey, row.Type)
		if err != nil {
			return NewBusinessError("EXCEPTION_LOOKUP_FAILED", "Failed to lookup date exception", err)
		}
		if existing != nil {
			return NewBusinessError("DUPLICATE_EXCEPTION_ENTRY", "Date exception already exists", ErrDuplicateExceptionEntry)
		}
		if err := f.exceptionRepo.Save(txCtx, row); err != nil {
			return NewBusinessError("EXCEPTION_CREATE_FAILED", "Failed to create date exception", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToDateExceptionDTO(*row)
	return &out, nil
}

func (f *ZoneAdminFlowImpl) RemoveException(ctx context.Context, exceptionID uint) (*dto.AdminMessageResponse, error) {
	current, err := f.mustException(ctx, exceptionID)
	if err != nil {
		return nil, err
	}

	w := &zoneWrite{
		action:      models.AuditActionExceptionRemoved,
		description: fmt.Sprintf("%s exception on %s removed from zone %d", current.Type, current.DateKey(), current.ZoneID),
		metadata:    map[string]any{"exception_id": exceptionID},
	}
	err = f.writeZone(ctx, current.ZoneID, w, func(txCtx context.Context) error {
		if _, err := f.mustException(txCtx, exceptionID); err != nil {
			return err
		}
		if err := f.exceptionRepo.DeleteByID(txCtx, exceptionID); err != nil {
			return NewBusinessError("EXCEPTION_DELETE_FAILED", "Failed to delete date exception", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.AdminMessageResponse{Message: "date exception removed"}, nil
}

func (f *ZoneAdminFlowImpl) ListExceptions(ctx context.Context, zoneID uint, req *dto.AdminListDateExceptionsRequest) ([]dto.DateExceptionDTO, error) {
	if _, err := f.mustZone(ctx, zoneID); err != nil {
		return nil, err
	}

	filter := models.DateExceptionFilter{ZoneID: &zoneID}
	if req != nil {
		for _, bound := range []struct {
			value  string
			target **string
		}{{req.DateFrom, &filter.DateFrom}, {req.DateTo, &filter.DateTo}} {
			if bound.value == "" {
				continue
			}
			if _, err := utils.ParseDate(bound.value); err != nil {
				return nil, NewBusinessError("EXCEPTION_VALIDATION_FAILED", "Date must be YYYY-MM-DD", ErrInvalidDate)
			}
			v := bound.value
			*bound.target = &v
		}
	}

	rows, err := f.exceptionRepo.ByFilter(ctx, filter, "date ASC, type ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("EXCEPTION_LIST_FAILED", "Failed to list date exceptions", err)
	}
	out := make([]dto.DateExceptionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDateExceptionDTO(*row))
	}
	return out, nil
}

func (f *ZoneAdminFlowImpl) mustException(ctx context.Context, id uint) (*models.DateException, error) {
	row, err := f.exceptionRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("EXCEPTION_LOOKUP_FAILED", "Failed to lookup date exception", err)
	}
	if row == nil {
		return nil, NewBusinessError("EXCEPTION_NOT_FOUND", "Date exception not found", ErrExceptionNotFound)
	}
	return row, nil
}

func scheduleFromRequest(req *dto.AdminWeeklyScheduleRequest) (*models.WeeklySchedule, error) {
	if req == nil || req.Weekday < 0 || req.Weekday > 6 {
		return nil, NewBusinessError("SCHEDULE_VALIDATION_FAILED", "Weekday must be between 0 and 6", ErrInvalidWeekday)
	}
	row := &models.WeeklySchedule{
		Weekday:  req.Weekday,
		FullDay:  utils.ToPtr(req.FullDay),
		IsActive: utils.ToPtr(true),
	}
	if !req.FullDay {
		if err := ValidateWindow(req.StartTime, req.EndTime); err != nil {
			return nil, NewBusinessError("SCHEDULE_VALIDATION_FAILED", "Schedule window is invalid", err)
		}
		row.StartTime = req.StartTime
		row.EndTime = req.EndTime
	}
	if req.IsActive != nil {
		row.IsActive = utils.ToPtr(*req.IsActive)
	}
	return row, nil
}

// exceptionFromRequest checks that only the payload fields of the exception type are set
func exceptionFromRequest(req *dto.AdminDateExceptionRequest) (*models.DateException, error) {
	if req == nil {
		return nil, NewBusinessError("EXCEPTION_VALIDATION_FAILED", "Date exception validation failed", ErrInvalidExceptionType)
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, NewBusinessError("EXCEPTION_VALIDATION_FAILED", "Date must be YYYY-MM-DD", ErrInvalidDate)
	}
	if !slices.Contains(models.DateExceptionTypes, req.Type) {
		return nil, NewBusinessError("EXCEPTION_VALIDATION_FAILED", "Date exception type is invalid", ErrInvalidExceptionType)
	}

	hasWindow := req.StartTime != nil || req.EndTime != nil
	hasAmount := req.Amount != nil
	hasMinutes := req.MinMinutes != nil || req.MaxMinutes != nil
	payloadErr := func(msg string) error {
		return NewBusinessError("EXCEPTION_VALIDATION_FAILED", msg, ErrInvalidExceptionPayload)
	}

	row := &models.DateException{
		Date:     date,
		Type:     req.Type,
		Reason:   req.Reason,
		IsActive: utils.ToPtr(true),
	}
	switch req.Type {
	case models.DateExceptionUnavailable:
		if hasWindow || hasAmount || hasMinutes {
			return nil, payloadErr("unavailable exceptions take only a reason")
		}
	case models.DateExceptionSpecialHours:
		if hasAmount || hasMinutes {
			return nil, payloadErr("special_hours takes only start_time and end_time")
		}
		if err := ValidateWindow(req.StartTime, req.EndTime); err != nil {
			return nil, NewBusinessError("EXCEPTION_VALIDATION_FAILED", "Special hours window is invalid", err)
		}
		row.StartTime = req.StartTime
		row.EndTime = req.EndTime
	case models.DateExceptionSpecialCost:
		if hasWindow || hasMinutes || !hasAmount || *req.Amount < 0 {
			return nil, payloadErr("special_cost takes only a non-negative amount")
		}
		row.Amount = utils.ToPtr(utils.RoundMoney(*req.Amount))
	case models.DateExceptionSpecialTimeWindow:
		if hasWindow || hasAmount || req.MinMinutes == nil || req.MaxMinutes == nil {
			return nil, payloadErr("special_time_window takes only min_minutes and max_minutes")
		}
		if *req.MinMinutes < 0 || *req.MinMinutes > *req.MaxMinutes {
			return nil, payloadErr("min_minutes must be between 0 and max_minutes")
		}
		row.MinMinutes = req.MinMinutes
		row.MaxMinutes = req.MaxMinutes
	}
	return row, nil
}
