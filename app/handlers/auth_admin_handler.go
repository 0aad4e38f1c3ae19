package handlers

import (
	"log"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/app/middleware"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AdminHandlerInterface defines the contract for admin auth handlers
type AdminHandlerInterface interface {
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AdminHandler implements AdminHandlerInterface
type AdminHandler struct {
	flow      businessflow.AdminAuthFlow
	validator *validator.Validate
}

// ErrorResponse standard JSON error
func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse standard JSON success
func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func NewAdminHandler(flow businessflow.AdminAuthFlow) AdminHandlerInterface {
	return &AdminHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// Login authenticates an admin with username and password
// @Summary Admin login
// @Description Authenticate admin with username/password and issue a JWT pair
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Incorrect credentials or admin not found"
// @Failure 403 {object} dto.APIResponse "Admin inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/auth/login [post]
func (h *AdminHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	ctx, cancel := createRequestContext(c, "/api/v1/admin/auth/login")
	defer cancel()
	result, err := h.flow.Login(ctx, &req, metadata)
	if err != nil {
		if businessflow.IsAdminNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin not found", "ADMIN_NOT_FOUND", nil)
		}
		if businessflow.IsAdminInactive(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Admin inactive", "ADMIN_INACTIVE", nil)
		}
		if businessflow.IsIncorrectPassword(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect password", "INCORRECT_PASSWORD", nil)
		}
		log.Println("Admin login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh rotates an admin session
// @Summary Admin token refresh
// @Description Exchange a refresh token for a new token pair; the old refresh token is revoked
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminRefreshRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AdminSessionDTO} "Session refreshed"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Invalid or expired refresh token"
// @Router /api/v1/admin/auth/refresh [post]
func (h *AdminHandler) Refresh(c fiber.Ctx) error {
	var req dto.AdminRefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/auth/refresh")
	defer cancel()
	session, err := h.flow.Refresh(ctx, &req)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", "REFRESH_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Session refreshed", session)
}

// Logout revokes the caller's access token
// @Summary Admin logout
// @Tags Admin Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminMessageResponse} "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/auth/logout [post]
func (h *AdminHandler) Logout(c fiber.Ctx) error {
	if ok, err := requireAdmin(c); !ok {
		return err
	}
	token, ok := middleware.GetAccessTokenFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Access token is required", "MISSING_ACCESS_TOKEN", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/auth/logout")
	defer cancel()
	res, err := h.flow.Logout(ctx, token)
	if err != nil {
		log.Println("Admin logout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Logged out", res)
}
