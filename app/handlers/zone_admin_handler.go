package handlers

import (
	"strconv"

	"github.com/amirphl/delivery-zones/app/dto"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ZoneAdminHandlerInterface defines admin endpoints for zone configuration
type ZoneAdminHandlerInterface interface {
	CreateZone(c fiber.Ctx) error
	UpdateZone(c fiber.Ctx) error
	GetZone(c fiber.Ctx) error
	ListZones(c fiber.Ctx) error
	DeactivateZone(c fiber.Ctx) error

	AssignDistrict(c fiber.Ctx) error
	ListDistrictAssignments(c fiber.Ctx) error
	UpdateDistrictAssignment(c fiber.Ctx) error
	RemoveDistrictAssignment(c fiber.Ctx) error

	AddTier(c fiber.Ctx) error
	ListTiers(c fiber.Ctx) error
	UpdateTier(c fiber.Ctx) error
	RemoveTier(c fiber.Ctx) error

	AddSchedule(c fiber.Ctx) error
	ListSchedules(c fiber.Ctx) error
	UpdateSchedule(c fiber.Ctx) error
	RemoveSchedule(c fiber.Ctx) error

	AddException(c fiber.Ctx) error
	ListExceptions(c fiber.Ctx) error
	RemoveException(c fiber.Ctx) error

	ListAuditLogs(c fiber.Ctx) error
}

// ZoneAdminHandler implements admin endpoints for zones and their rules
type ZoneAdminHandler struct {
	flow      businessflow.ZoneAdminFlow
	validator *validator.Validate
}

func NewZoneAdminHandler(flow businessflow.ZoneAdminFlow) ZoneAdminHandlerInterface {
	return &ZoneAdminHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ZoneAdminHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return errorResponse(c, status, message, code, details)
}

func (h *ZoneAdminHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return successResponse(c, status, message, data)
}

// bindBody parses and validates a JSON body. It writes the error response itself and returns false on failure.
func (h *ZoneAdminHandler) bindBody(c fiber.Ctx, req any) (bool, error) {
	if err := c.Bind().JSON(req); err != nil {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(req); err != nil {
		return false, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}
	return true, nil
}

func (h *ZoneAdminHandler) pathID(c fiber.Ctx, label string) (uint, bool, error) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return 0, false, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid "+label+" ID", "INVALID_ID", nil)
	}
	return id, true, nil
}

// CreateZone creates a delivery zone.
// @Summary Create Zone (Admin)
// @Description Create a zone with radius, polygon or catch-all geometry
// @Tags Admin Zones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminZoneRequest true "Zone payload"
// @Success 201 {object} dto.APIResponse{data=dto.ZoneDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Zone name already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/zones [post]
func (h *ZoneAdminHandler) CreateZone(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	var req dto.AdminZoneRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones")
	defer cancel()
	res, err := h.flow.CreateZone(ctx, &req)
	if err != nil {
		logUnexpected("Create zone", err)
		return flowErrorResponse(c, err, "Create zone failed", "ZONE_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Zone created", res)
}

// UpdateZone replaces a zone's attributes.
// @Summary Update Zone (Admin)
// @Tags Admin Zones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param request body dto.AdminZoneRequest true "Zone payload"
// @Success 200 {object} dto.APIResponse{data=dto.ZoneDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Failure 409 {object} dto.APIResponse "Zone name already exists"
// @Router /api/v1/admin/zones/{id} [put]
func (h *ZoneAdminHandler) UpdateZone(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}
	var req dto.AdminZoneRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id")
	defer cancel()
	res, err := h.flow.UpdateZone(ctx, zoneID, &req)
	if err != nil {
		logUnexpected("Update zone", err)
		return flowErrorResponse(c, err, "Update zone failed", "ZONE_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Zone updated", res)
}

// GetZone returns a zone with its active tiers and schedules.
// @Summary Get Zone (Admin)
// @Tags Admin Zones
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} dto.APIResponse{data=dto.ZoneDTO}
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Router /api/v1/admin/zones/{id} [get]
func (h *ZoneAdminHandler) GetZone(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id")
	defer cancel()
	res, err := h.flow.GetZone(ctx, zoneID)
	if err != nil {
		logUnexpected("Get zone", err)
		return flowErrorResponse(c, err, "Get zone failed", "ZONE_GET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Zone retrieved", res)
}

// ListZones lists zones with optional filters.
// @Summary List Zones (Admin)
// @Tags Admin Zones
// @Produce json
// @Security BearerAuth
// @Param name query string false "Name contains"
// @Param is_active query bool false "Active flag"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.AdminListZonesResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/admin/zones [get]
func (h *ZoneAdminHandler) ListZones(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	var req dto.AdminListZonesRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones")
	defer cancel()
	res, err := h.flow.ListZones(ctx, &req)
	if err != nil {
		logUnexpected("List zones", err)
		return flowErrorResponse(c, err, "List zones failed", "ZONE_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Zones retrieved", res)
}

// DeactivateZone removes a zone from coverage without deleting it.
// @Summary Deactivate Zone (Admin)
// @Tags Admin Zones
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminMessageResponse}
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Router /api/v1/admin/zones/{id} [delete]
func (h *ZoneAdminHandler) DeactivateZone(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id")
	defer cancel()
	res, err := h.flow.DeactivateZone(ctx, zoneID)
	if err != nil {
		logUnexpected("Deactivate zone", err)
		return flowErrorResponse(c, err, "Deactivate zone failed", "ZONE_DEACTIVATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Zone deactivated", res)
}

// AssignDistrict assigns a district to a zone.
// @Summary Assign District (Admin)
// @Tags Admin Zone Districts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param request body dto.AdminDistrictAssignmentRequest true "Assignment"
// @Success 201 {object} dto.APIResponse{data=dto.DistrictAssignmentDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Failure 409 {object} dto.APIResponse "District already assigned to zone"
// @Router /api/v1/admin/zones/{id}/districts [post]
func (h *ZoneAdminHandler) AssignDistrict(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}
	var req dto.AdminDistrictAssignmentRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/districts")
	defer cancel()
	res, err := h.flow.AssignDistrict(ctx, zoneID, &req)
	if err != nil {
		logUnexpected("Assign district", err)
		return flowErrorResponse(c, err, "Assign district failed", "DISTRICT_ASSIGN_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "District assigned", res)
}

// ListDistrictAssignments lists a zone's district assignments.
// @Summary List District Assignments (Admin)
// @Tags Admin Zone Districts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.DistrictAssignmentDTO}
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Router /api/v1/admin/zones/{id}/districts [get]
func (h *ZoneAdminHandler) ListDistrictAssignments(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/districts")
	defer cancel()
	res, err := h.flow.ListDistrictAssignments(ctx, zoneID)
	if err != nil {
		logUnexpected("List district assignments", err)
		return flowErrorResponse(c, err, "List district assignments failed", "DISTRICT_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "District assignments retrieved", res)
}

// UpdateDistrictAssignment changes priority, override or extra time of an assignment.
// @Summary Update District Assignment (Admin)
// @Tags Admin Zone Districts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Param request body dto.AdminUpdateDistrictAssignmentRequest true "Assignment"
// @Success 200 {object} dto.APIResponse{data=dto.DistrictAssignmentDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Assignment not found"
// @Router /api/v1/admin/districts/{id} [put]
func (h *ZoneAdminHandler) UpdateDistrictAssignment(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	assignmentID, ok, err := h.pathID(c, "assignment")
	if !ok {
		return err
	}
	var req dto.AdminUpdateDistrictAssignmentRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/districts/:id")
	defer cancel()
	res, err := h.flow.UpdateDistrictAssignment(ctx, assignmentID, &req)
	if err != nil {
		logUnexpected("Update district assignment", err)
		return flowErrorResponse(c, err, "Update district assignment failed", "DISTRICT_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "District assignment updated", res)
}

// RemoveDistrictAssignment deactivates an assignment.
// @Summary Remove District Assignment (Admin)
// @Tags Admin Zone Districts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminMessageResponse}
// @Failure 404 {object} dto.APIResponse "Assignment not found"
// @Router /api/v1/admin/districts/{id} [delete]
func (h *ZoneAdminHandler) RemoveDistrictAssignment(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	assignmentID, ok, err := h.pathID(c, "assignment")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/districts/:id")
	defer cancel()
	res, err := h.flow.RemoveDistrictAssignment(ctx, assignmentID)
	if err != nil {
		logUnexpected("Remove district assignment", err)
		return flowErrorResponse(c, err, "Remove district assignment failed", "DISTRICT_REMOVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "District assignment removed", res)
}

// AddTier adds a distance tier to a zone.
// @Summary Add Cost Tier (Admin)
// @Description Add a half-open distance range [from, to) with its additional cost; ranges of a zone must not overlap
// @Tags Admin Zone Tiers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param request body dto.AdminCostTierRequest true "Tier"
// @Success 201 {object} dto.APIResponse{data=dto.CostTierDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Failure 409 {object} dto.APIResponse "Tier overlaps an existing tier"
// @Router /api/v1/admin/zones/{id}/tiers [post]
func (h *ZoneAdminHandler) AddTier(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}
	var req dto.AdminCostTierRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/tiers")
	defer cancel()
	res, err := h.flow.AddTier(ctx, zoneID, &req)
	if err != nil {
		logUnexpected("Add tier", err)
		return flowErrorResponse(c, err, "Add tier failed", "TIER_ADD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Tier added", res)
}

// ListTiers lists a zone's active tiers.
// @Summary List Cost Tiers (Admin)
// @Tags Admin Zone Tiers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CostTierDTO}
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Router /api/v1/admin/zones/{id}/tiers [get]
func (h *ZoneAdminHandler) ListTiers(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/tiers")
	defer cancel()
	res, err := h.flow.ListTiers(ctx, zoneID)
	if err != nil {
		logUnexpected("List tiers", err)
		return flowErrorResponse(c, err, "List tiers failed", "TIER_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tiers retrieved", res)
}

// UpdateTier replaces a tier's range and cost.
// @Summary Update Cost Tier (Admin)
// @Tags Admin Zone Tiers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tier ID"
// @Param request body dto.AdminCostTierRequest true "Tier"
// @Success 200 {object} dto.APIResponse{data=dto.CostTierDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Tier not found"
// @Failure 409 {object} dto.APIResponse "Tier overlaps an existing tier"
// @Router /api/v1/admin/tiers/{id} [put]
func (h *ZoneAdminHandler) UpdateTier(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	tierID, ok, err := h.pathID(c, "tier")
	if !ok {
		return err
	}
	var req dto.AdminCostTierRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/tiers/:id")
	defer cancel()
	res, err := h.flow.UpdateTier(ctx, tierID, &req)
	if err != nil {
		logUnexpected("Update tier", err)
		return flowErrorResponse(c, err, "Update tier failed", "TIER_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tier updated", res)
}

// RemoveTier deactivates a tier.
// @Summary Remove Cost Tier (Admin)
// @Tags Admin Zone Tiers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tier ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminMessageResponse}
// @Failure 404 {object} dto.APIResponse "Tier not found"
// @Router /api/v1/admin/tiers/{id} [delete]
func (h *ZoneAdminHandler) RemoveTier(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	tierID, ok, err := h.pathID(c, "tier")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/tiers/:id")
	defer cancel()
	res, err := h.flow.RemoveTier(ctx, tierID)
	if err != nil {
		logUnexpected("Remove tier", err)
		return flowErrorResponse(c, err, "Remove tier failed", "TIER_REMOVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Tier removed", res)
}

// AddSchedule creates the weekly schedule entry of one weekday.
// @Summary Add Weekly Schedule (Admin)
// @Tags Admin Zone Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param request body dto.AdminWeeklyScheduleRequest true "Schedule entry"
// @Success 201 {object} dto.APIResponse{data=dto.WeeklyScheduleDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Failure 409 {object} dto.APIResponse "Weekday already scheduled"
// @Router /api/v1/admin/zones/{id}/schedules [post]
func (h *ZoneAdminHandler) AddSchedule(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}
	var req dto.AdminWeeklyScheduleRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/schedules")
	defer cancel()
	res, err := h.flow.AddSchedule(ctx, zoneID, &req)
	if err != nil {
		logUnexpected("Add schedule", err)
		return flowErrorResponse(c, err, "Add schedule failed", "SCHEDULE_ADD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Schedule added", res)
}

// ListSchedules lists a zone's weekly schedule.
// @Summary List Weekly Schedule (Admin)
// @Tags Admin Zone Schedules
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.WeeklyScheduleDTO}
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Router /api/v1/admin/zones/{id}/schedules [get]
func (h *ZoneAdminHandler) ListSchedules(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/schedules")
	defer cancel()
	res, err := h.flow.ListSchedules(ctx, zoneID)
	if err != nil {
		logUnexpected("List schedules", err)
		return flowErrorResponse(c, err, "List schedules failed", "SCHEDULE_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Schedules retrieved", res)
}

// UpdateSchedule replaces a weekly schedule entry.
// @Summary Update Weekly Schedule (Admin)
// @Tags Admin Zone Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID"
// @Param request body dto.AdminWeeklyScheduleRequest true "Schedule entry"
// @Success 200 {object} dto.APIResponse{data=dto.WeeklyScheduleDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Schedule not found"
// @Failure 409 {object} dto.APIResponse "Weekday already scheduled"
// @Router /api/v1/admin/schedules/{id} [put]
func (h *ZoneAdminHandler) UpdateSchedule(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	scheduleID, ok, err := h.pathID(c, "schedule")
	if !ok {
		return err
	}
	var req dto.AdminWeeklyScheduleRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/schedules/:id")
	defer cancel()
	res, err := h.flow.UpdateSchedule(ctx, scheduleID, &req)
	if err != nil {
		logUnexpected("Update schedule", err)
		return flowErrorResponse(c, err, "Update schedule failed", "SCHEDULE_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Schedule updated", res)
}

// RemoveSchedule deletes a weekly schedule entry.
// @Summary Remove Weekly Schedule (Admin)
// @Tags Admin Zone Schedules
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminMessageResponse}
// @Failure 404 {object} dto.APIResponse "Schedule not found"
// @Router /api/v1/admin/schedules/{id} [delete]
func (h *ZoneAdminHandler) RemoveSchedule(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	scheduleID, ok, err := h.pathID(c, "schedule")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/schedules/:id")
	defer cancel()
	res, err := h.flow.RemoveSchedule(ctx, scheduleID)
	if err != nil {
		logUnexpected("Remove schedule", err)
		return flowErrorResponse(c, err, "Remove schedule failed", "SCHEDULE_REMOVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Schedule removed", res)
}

// AddException adds a date exception to a zone.
// @Summary Add Date Exception (Admin)
// @Description Add an unavailable day, special hours, special cost or special time window on a date
// @Tags Admin Zone Exceptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param request body dto.AdminDateExceptionRequest true "Exception"
// @Success 201 {object} dto.APIResponse{data=dto.DateExceptionDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Failure 409 {object} dto.APIResponse "Exception of this type already exists on date"
// @Router /api/v1/admin/zones/{id}/exceptions [post]
func (h *ZoneAdminHandler) AddException(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}
	var req dto.AdminDateExceptionRequest
	if ok, err := h.bindBody(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/exceptions")
	defer cancel()
	res, err := h.flow.AddException(ctx, zoneID, &req)
	if err != nil {
		logUnexpected("Add exception", err)
		return flowErrorResponse(c, err, "Add exception failed", "EXCEPTION_ADD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Exception added", res)
}

// ListExceptions lists a zone's date exceptions.
// @Summary List Date Exceptions (Admin)
// @Tags Admin Zone Exceptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=[]dto.DateExceptionDTO}
// @Failure 400 {object} dto.APIResponse "Invalid date"
// @Failure 404 {object} dto.APIResponse "Zone not found"
// @Router /api/v1/admin/zones/{id}/exceptions [get]
func (h *ZoneAdminHandler) ListExceptions(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}
	var req dto.AdminListDateExceptionsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/exceptions")
	defer cancel()
	res, err := h.flow.ListExceptions(ctx, zoneID, &req)
	if err != nil {
		logUnexpected("List exceptions", err)
		return flowErrorResponse(c, err, "List exceptions failed", "EXCEPTION_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Exceptions retrieved", res)
}

// RemoveException deletes a date exception.
// @Summary Remove Date Exception (Admin)
// @Tags Admin Zone Exceptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exception ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminMessageResponse}
// @Failure 404 {object} dto.APIResponse "Exception not found"
// @Router /api/v1/admin/exceptions/{id} [delete]
func (h *ZoneAdminHandler) RemoveException(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	exceptionID, ok, err := h.pathID(c, "exception")
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/exceptions/:id")
	defer cancel()
	res, err := h.flow.RemoveException(ctx, exceptionID)
	if err != nil {
		logUnexpected("Remove exception", err)
		return flowErrorResponse(c, err, "Remove exception failed", "EXCEPTION_REMOVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Exception removed", res)
}

// ListAuditLogs lists configuration changes of a zone, newest first.
// @Summary List Zone Audit Logs (Admin)
// @Tags Admin Zones
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]dto.ZoneAuditLogDTO}
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Router /api/v1/admin/zones/{id}/audit-logs [get]
func (h *ZoneAdminHandler) ListAuditLogs(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	zoneID, ok, err := h.pathID(c, "zone")
	if !ok {
		return err
	}

	page, pageSize := 1, 50
	if v := c.Query("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_PAGE", nil)
		}
	}
	if v := c.Query("page_size"); v != "" {
		if pageSize, err = strconv.Atoi(v); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page size", "INVALID_PAGE_SIZE", nil)
		}
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/zones/:id/audit-logs")
	defer cancel()
	res, err := h.flow.ListAuditLogs(ctx, zoneID, page, pageSize)
	if err != nil {
		logUnexpected("List audit logs", err)
		return flowErrorResponse(c, err, "List audit logs failed", "AUDIT_LOG_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Audit logs retrieved", res)
}
