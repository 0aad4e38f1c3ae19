package handlers

import (
	"log"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/app/middleware"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ShippingHandlerInterface defines the public coverage endpoints
type ShippingHandlerInterface interface {
	Quote(c fiber.Ctx) error
	ValidateAddress(c fiber.Ctx) error
	GetValidatedAddress(c fiber.Ctx) error
}

// ShippingHandler serves shipping quotes and address validation
type ShippingHandler struct {
	quoteFlow   businessflow.ShippingQuoteFlow
	addressFlow businessflow.AddressValidationFlow
	validator   *validator.Validate
}

func NewShippingHandler(quoteFlow businessflow.ShippingQuoteFlow, addressFlow businessflow.AddressValidationFlow) ShippingHandlerInterface {
	return &ShippingHandler{
		quoteFlow:   quoteFlow,
		addressFlow: addressFlow,
		validator:   validator.New(),
	}
}

func (h *ShippingHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return errorResponse(c, status, message, code, details)
}

func (h *ShippingHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return successResponse(c, status, message, data)
}

// Quote computes shipping cost, availability and ETA for a coordinate.
// @Summary Shipping Quote
// @Description Resolve the zone covering a coordinate and compute cost, availability and ETA at the requested time
// @Tags Shipping
// @Accept json
// @Produce json
// @Param request body dto.ShippingQuoteRequest true "Quote request"
// @Success 200 {object} dto.APIResponse{data=dto.ShippingQuoteResponse} "Quote computed; in_coverage=false when no zone covers the point"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/shipping/quote [post]
func (h *ShippingHandler) Quote(c fiber.Ctx) error {
	var req dto.ShippingQuoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/shipping/quote")
	defer cancel()
	res, err := h.quoteFlow.GetShippingQuote(ctx, &req)
	if err != nil {
		middleware.RecordQuote(middleware.QuoteOutcomeError)
		if !businessflow.IsValidation(err) {
			log.Println("Shipping quote failed:", err)
		}
		return flowErrorResponse(c, err, "Shipping quote failed", "SHIPPING_QUOTE_FAILED")
	}

	switch {
	case !res.InCoverage:
		middleware.RecordQuote(middleware.QuoteOutcomeOutOfCoverage)
		return h.SuccessResponse(c, fiber.StatusOK, "Location is not covered", res)
	case !res.Available:
		middleware.RecordQuote(middleware.QuoteOutcomeUnavailable)
	default:
		middleware.RecordQuote(middleware.QuoteOutcomeAvailable)
	}
	middleware.RecordZoneResolution(res.ResolvedBy)
	return h.SuccessResponse(c, fiber.StatusOK, "Shipping quote computed", res)
}

// ValidateAddress resolves and stores the coverage of an address.
// @Summary Validate Address
// @Description Resolve coverage of an address coordinate and cache the result for later revalidation
// @Tags Shipping
// @Accept json
// @Produce json
// @Param request body dto.ValidateAddressRequest true "Address to validate"
// @Success 200 {object} dto.APIResponse{data=dto.ValidatedAddressDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/addresses/validate [post]
func (h *ShippingHandler) ValidateAddress(c fiber.Ctx) error {
	var req dto.ValidateAddressRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/addresses/validate")
	defer cancel()
	res, err := h.addressFlow.Validate(ctx, &req)
	if err != nil {
		log.Println("Address validation failed:", err)
		return flowErrorResponse(c, err, "Address validation failed", "ADDRESS_VALIDATION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Address validated", res)
}

// GetValidatedAddress returns the stored validation of an address.
// @Summary Get Validated Address
// @Description Retrieve the most recent coverage validation of an address
// @Tags Shipping
// @Produce json
// @Param id path int true "Address ID"
// @Success 200 {object} dto.APIResponse{data=dto.ValidatedAddressDTO}
// @Failure 400 {object} dto.APIResponse "Invalid address ID"
// @Failure 404 {object} dto.APIResponse "Address has not been validated"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/addresses/{id} [get]
func (h *ShippingHandler) GetValidatedAddress(c fiber.Ctx) error {
	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid address ID", "INVALID_ADDRESS_ID", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/addresses/:id")
	defer cancel()
	res, err := h.addressFlow.GetValidatedAddress(ctx, addressID)
	if err != nil {
		if !businessflow.IsAddressNotFound(err) {
			log.Println("Get validated address failed:", err)
		}
		return flowErrorResponse(c, err, "Get validated address failed", "GET_VALIDATED_ADDRESS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Validated address retrieved", res)
}
