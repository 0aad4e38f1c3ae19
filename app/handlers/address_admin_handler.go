package handlers

import (
	"log"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/app/middleware"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AddressAdminHandlerInterface defines admin endpoints for bulk address revalidation
type AddressAdminHandlerInterface interface {
	Revalidate(c fiber.Ctx) error
	LastReport(c fiber.Ctx) error
	ExportReport(c fiber.Ctx) error
}

type AddressAdminHandler struct {
	flow      businessflow.AddressValidationFlow
	validator *validator.Validate
}

func NewAddressAdminHandler(flow businessflow.AddressValidationFlow) AddressAdminHandlerInterface {
	return &AddressAdminHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *AddressAdminHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return errorResponse(c, status, message, code, details)
}

func (h *AddressAdminHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return successResponse(c, status, message, data)
}

// Revalidate re-resolves coverage of previously validated addresses.
// @Summary Revalidate Addresses (Admin)
// @Description Re-run coverage resolution for selected validated addresses and report which ones changed
// @Tags Admin Addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RevalidateAddressesRequest true "Selection"
// @Success 200 {object} dto.APIResponse{data=dto.RevalidateAddressesResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 409 {object} dto.APIResponse "Another revalidation is running"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/addresses/revalidate [post]
func (h *AddressAdminHandler) Revalidate(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}

	var req dto.RevalidateAddressesRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContextWithTimeout(c, "/api/v1/admin/addresses/revalidate", revalidationTimeout)
	defer cancel()
	res, err := h.flow.Revalidate(ctx, &req)
	if err != nil {
		if !businessflow.IsValidation(err) && !businessflow.IsRevalidationLockBusy(err) {
			log.Println("Address revalidation failed:", err)
		}
		return flowErrorResponse(c, err, "Address revalidation failed", "ADDRESS_REVALIDATION_FAILED")
	}

	middleware.RecordRevalidation(len(res.Changed), len(res.Succeeded)-len(res.Changed), len(res.Failed))
	return h.SuccessResponse(c, fiber.StatusOK, "Addresses revalidated", res)
}

// LastReport returns the report of the most recent revalidation run.
// @Summary Last Revalidation Report (Admin)
// @Tags Admin Addresses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RevalidateAddressesResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "No revalidation has run yet"
// @Router /api/v1/admin/addresses/revalidate/last [get]
func (h *AddressAdminHandler) LastReport(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}

	report, err := h.flow.LastReport()
	if err != nil {
		return flowErrorResponse(c, err, "Get revalidation report failed", "REVALIDATION_REPORT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Revalidation report retrieved", businessflow.ToRevalidateAddressesResponse(report))
}

// ExportReport downloads the most recent revalidation report as an xlsx workbook.
// @Summary Export Revalidation Report (Admin)
// @Tags Admin Addresses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Revalidation report"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "No revalidation has run yet"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/addresses/revalidate/report [get]
func (h *AddressAdminHandler) ExportReport(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/addresses/revalidate/report")
	defer cancel()
	filename, data, err := h.flow.ExportLastReport(ctx)
	if err != nil {
		if !businessflow.IsNoRevalidationReport(err) {
			log.Println("Export revalidation report failed:", err)
		}
		return flowErrorResponse(c, err, "Export revalidation report failed", "REVALIDATION_REPORT_EXPORT_FAILED")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}
