// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/app/middleware"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const (
	requestTimeout      = 30 * time.Second
	revalidationTimeout = 5 * time.Minute
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func validationMessages(err error) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		messages = append(messages, getValidationErrorMessage(e))
	}
	return messages
}

func errorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    code,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// flowErrorResponse maps business errors to HTTP statuses. Unknown errors become 500 with fallbackCode.
func flowErrorResponse(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	code := fallbackCode
	message := fallbackMessage
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		code = be.Code
		message = be.Message
	}

	switch {
	case businessflow.IsValidation(err):
		return errorResponse(c, fiber.StatusBadRequest, message, code, err.Error())
	case businessflow.IsNotFound(err), businessflow.IsNoRevalidationReport(err):
		return errorResponse(c, fiber.StatusNotFound, message, code, nil)
	case businessflow.IsConflict(err), businessflow.IsRevalidationLockBusy(err):
		return errorResponse(c, fiber.StatusConflict, message, code, err.Error())
	default:
		return errorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}
}

// logUnexpected logs failures that are not caused by the caller
func logUnexpected(operation string, err error) {
	if businessflow.IsValidation(err) || businessflow.IsNotFound(err) || businessflow.IsConflict(err) {
		return
	}
	log.Println(operation+" failed:", err)
}

// requireAdmin writes a 401 and returns false when no admin is attached to the request
func requireAdmin(c fiber.Ctx) (bool, error) {
	err := middleware.RequireAdminAuth(c)
	if err == nil {
		return true, nil
	}
	message := "Admin authentication required"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		message = fe.Message
	}
	return false, errorResponse(c, fiber.StatusUnauthorized, message, "ADMIN_AUTHENTICATION_REQUIRED", nil)
}

func parseIDParam(c fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// createRequestContext carries request-scoped values into the flows.
// Callers must call the returned cancel func once the flow returns.
func createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return createRequestContextWithTimeout(c, endpoint, requestTimeout)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	if adminID, ok := c.Locals("admin_id").(uint); ok {
		ctx = context.WithValue(ctx, utils.AdminIDKey, adminID)
	}
	return ctx, cancel
}
