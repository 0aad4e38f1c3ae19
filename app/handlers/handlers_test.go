package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/delivery-zones/app/dto"
	businessflow "github.com/amirphl/delivery-zones/business_flow"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuoteFlow struct {
	businessflow.ShippingQuoteFlow
	resp *dto.ShippingQuoteResponse
	err  error
	last *dto.ShippingQuoteRequest
}

func (s *stubQuoteFlow) GetShippingQuote(ctx context.Context, req *dto.ShippingQuoteRequest) (*dto.ShippingQuoteResponse, error) {
	s.last = req
	return s.resp, s.err
}

type stubAddressFlow struct {
	businessflow.AddressValidationFlow
	validated  *dto.ValidatedAddressDTO
	revalidate *dto.RevalidateAddressesResponse
	report     *businessflow.RevalidationReport
	file       []byte
	err        error
	adminID    uint
}

func (s *stubAddressFlow) Validate(ctx context.Context, req *dto.ValidateAddressRequest) (*dto.ValidatedAddressDTO, error) {
	return s.validated, s.err
}

func (s *stubAddressFlow) GetValidatedAddress(ctx context.Context, addressID uint) (*dto.ValidatedAddressDTO, error) {
	return s.validated, s.err
}

func (s *stubAddressFlow) Revalidate(ctx context.Context, req *dto.RevalidateAddressesRequest) (*dto.RevalidateAddressesResponse, error) {
	if id, ok := ctx.Value(utils.AdminIDKey).(uint); ok {
		s.adminID = id
	}
	return s.revalidate, s.err
}

func (s *stubAddressFlow) LastReport() (*businessflow.RevalidationReport, error) {
	return s.report, s.err
}

func (s *stubAddressFlow) ExportLastReport(ctx context.Context) (string, []byte, error) {
	return "revalidation_report.xlsx", s.file, s.err
}

type stubZoneFlow struct {
	businessflow.ZoneAdminFlow
	zone    *dto.ZoneDTO
	tier    *dto.CostTierDTO
	err     error
	zoneID  uint
	adminID uint
}

func (s *stubZoneFlow) CreateZone(ctx context.Context, req *dto.AdminZoneRequest) (*dto.ZoneDTO, error) {
	if id, ok := ctx.Value(utils.AdminIDKey).(uint); ok {
		s.adminID = id
	}
	return s.zone, s.err
}

func (s *stubZoneFlow) GetZone(ctx context.Context, zoneID uint) (*dto.ZoneDTO, error) {
	s.zoneID = zoneID
	return s.zone, s.err
}

func (s *stubZoneFlow) AddTier(ctx context.Context, zoneID uint, req *dto.AdminCostTierRequest) (*dto.CostTierDTO, error) {
	s.zoneID = zoneID
	return s.tier, s.err
}

type stubAuthFlow struct {
	businessflow.AdminAuthFlow
	login *dto.AdminLoginResponse
	err   error
}

func (s *stubAuthFlow) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *businessflow.ClientMetadata) (*dto.AdminLoginResponse, error) {
	return s.login, s.err
}

// asAdmin stands in for AdminAuthenticate
func asAdmin(adminID uint) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals("admin_id", adminID)
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, dto.APIResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(data)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out dto.APIResponse
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func errorCode(t *testing.T, resp dto.APIResponse) string {
	t.Helper()
	detail, ok := resp.Error.(map[string]any)
	require.True(t, ok, "error detail missing")
	code, _ := detail["code"].(string)
	return code
}

func TestShippingHandler_Quote(t *testing.T) {
	zoneID := uint(3)
	flow := &stubQuoteFlow{resp: &dto.ShippingQuoteResponse{InCoverage: true, ZoneID: &zoneID, Cost: 15, Available: true}}
	app := fiber.New()
	h := NewShippingHandler(flow, &stubAddressFlow{})
	app.Post("/quote", h.Quote)

	t.Run("covered point", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/quote", map[string]any{"lat": -12.1, "lng": -77.03, "order_amount": 40, "requested_at": "2026-10-19T12:00:00Z"})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, body.Success)
		data := body.Data.(map[string]any)
		assert.Equal(t, true, data["in_coverage"])
		assert.Equal(t, float64(15), data["cost"])
		require.NotNil(t, flow.last)
		assert.InDelta(t, 40, flow.last.OrderAmount, 1e-9)
	})

	t.Run("missing coordinate", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/quote", map[string]any{"lng": -77.03})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
	})

	t.Run("missing requested_at", func(t *testing.T) {
		flow.last = nil
		resp, body := doJSON(t, app, http.MethodPost, "/quote", map[string]any{"lat": -12.1, "lng": -77.03})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
		assert.Nil(t, flow.last)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/quote", map[string]any{"lat": 91, "lng": 0})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/quote", "{")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))
	})

	t.Run("flow validation error", func(t *testing.T) {
		flow.err = businessflow.NewBusinessError("INVALID_QUOTE_TIME", "requested_at must be RFC3339", businessflow.ErrInvalidQuoteTime)
		defer func() { flow.err = nil }()
		resp, body := doJSON(t, app, http.MethodPost, "/quote", map[string]any{"lat": 0, "lng": 0, "requested_at": "yesterday"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_QUOTE_TIME", errorCode(t, body))
	})

	t.Run("uncovered point is not an error", func(t *testing.T) {
		flow.resp = &dto.ShippingQuoteResponse{InCoverage: false}
		resp, body := doJSON(t, app, http.MethodPost, "/quote", map[string]any{"lat": 50, "lng": 50, "requested_at": "2026-10-19T12:00:00Z"})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, body.Success)
		assert.Equal(t, false, body.Data.(map[string]any)["in_coverage"])
	})
}

func TestShippingHandler_Addresses(t *testing.T) {
	flow := &stubAddressFlow{validated: &dto.ValidatedAddressDTO{AddressID: 10, InCoverage: true}}
	app := fiber.New()
	h := NewShippingHandler(&stubQuoteFlow{}, flow)
	app.Post("/addresses/validate", h.ValidateAddress)
	app.Get("/addresses/:id", h.GetValidatedAddress)

	resp, body := doJSON(t, app, http.MethodPost, "/addresses/validate", map[string]any{"address_id": 10, "lat": 1, "lng": 2})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10), body.Data.(map[string]any)["address_id"])

	resp, body = doJSON(t, app, http.MethodPost, "/addresses/validate", map[string]any{"lat": 1, "lng": 2})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))

	resp, body = doJSON(t, app, http.MethodGet, "/addresses/abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ADDRESS_ID", errorCode(t, body))

	flow.err = businessflow.NewBusinessError("ADDRESS_NOT_FOUND", "Address has not been validated", businessflow.ErrAddressNotFound)
	resp, body = doJSON(t, app, http.MethodGet, "/addresses/99", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ADDRESS_NOT_FOUND", errorCode(t, body))
}

func TestZoneAdminHandler(t *testing.T) {
	flow := &stubZoneFlow{
		zone: &dto.ZoneDTO{ID: 5, Name: "Central"},
		tier: &dto.CostTierDTO{ID: 8, ZoneID: 5, DistanceFromKm: 0, DistanceToKm: 5},
	}
	h := NewZoneAdminHandler(flow)

	unauthenticated := fiber.New()
	unauthenticated.Post("/zones", h.CreateZone)

	app := fiber.New()
	app.Use(asAdmin(42))
	app.Post("/zones", h.CreateZone)
	app.Get("/zones/:id", h.GetZone)
	app.Post("/zones/:id/tiers", h.AddTier)

	t.Run("requires admin", func(t *testing.T) {
		resp, body := doJSON(t, unauthenticated, http.MethodPost, "/zones", map[string]any{"name": "Central"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "ADMIN_AUTHENTICATION_REQUIRED", errorCode(t, body))
	})

	t.Run("create passes admin id to flow", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/zones", map[string]any{"name": "Central", "covers_everywhere": true, "base_cost": 10})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.True(t, body.Success)
		assert.Equal(t, uint(42), flow.adminID)
	})

	t.Run("create validation", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/zones", map[string]any{"base_cost": -1})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
		details := body.Error.(map[string]any)["details"].([]any)
		assert.Contains(t, details, "Name is required")
	})

	t.Run("duplicate name", func(t *testing.T) {
		flow.err = businessflow.NewBusinessError("ZONE_NAME_EXISTS", "Zone name already exists", businessflow.ErrZoneNameExists)
		defer func() { flow.err = nil }()
		resp, body := doJSON(t, app, http.MethodPost, "/zones", map[string]any{"name": "Central"})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ZONE_NAME_EXISTS", errorCode(t, body))
	})

	t.Run("get unknown zone", func(t *testing.T) {
		flow.err = businessflow.NewBusinessError("ZONE_NOT_FOUND", "Zone not found", businessflow.ErrZoneNotFound)
		defer func() { flow.err = nil }()
		resp, body := doJSON(t, app, http.MethodGet, "/zones/77", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "ZONE_NOT_FOUND", errorCode(t, body))
		assert.Equal(t, uint(77), flow.zoneID)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/zones/0", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", errorCode(t, body))
	})

	t.Run("tier range must be increasing", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/zones/5/tiers", map[string]any{"distance_from_km": 5, "distance_to_km": 5})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
	})

	t.Run("overlapping tier", func(t *testing.T) {
		flow.err = businessflow.NewBusinessError("OVERLAPPING_TIER", "Tier overlaps an existing tier", businessflow.ErrOverlappingTier)
		defer func() { flow.err = nil }()
		resp, body := doJSON(t, app, http.MethodPost, "/zones/5/tiers", map[string]any{"distance_from_km": 0, "distance_to_km": 5})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		assert.Equal(t, "OVERLAPPING_TIER", errorCode(t, body))
		assert.Equal(t, uint(5), flow.zoneID)
	})
}

func TestAddressAdminHandler(t *testing.T) {
	flow := &stubAddressFlow{
		revalidate: &dto.RevalidateAddressesResponse{Succeeded: []uint{1, 2}, Changed: []uint{2}, Failed: []dto.RevalidationFailureDTO{}},
		file:       []byte("xlsx-bytes"),
	}
	h := NewAddressAdminHandler(flow)
	app := fiber.New()
	app.Use(asAdmin(7))
	app.Post("/revalidate", h.Revalidate)
	app.Get("/revalidate/last", h.LastReport)
	app.Get("/revalidate/report", h.ExportReport)

	t.Run("empty body revalidates stale rows", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/revalidate", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, body.Success)
		assert.Equal(t, uint(7), flow.adminID)
	})

	t.Run("invalid address id", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/revalidate", map[string]any{"address_ids": []int{1, 0}})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
	})

	t.Run("lock busy", func(t *testing.T) {
		flow.err = businessflow.NewBusinessError("REVALIDATION_BUSY", "Another revalidation is running", businessflow.ErrRevalidationLockBusy)
		defer func() { flow.err = nil }()
		resp, body := doJSON(t, app, http.MethodPost, "/revalidate", map[string]any{"zone_id": 3})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		assert.Equal(t, "REVALIDATION_BUSY", errorCode(t, body))
	})

	t.Run("no report yet", func(t *testing.T) {
		flow.err = businessflow.NewBusinessError("NO_REVALIDATION_REPORT", "No revalidation has run yet", businessflow.ErrNoRevalidationReport)
		defer func() { flow.err = nil }()
		resp, _ := doJSON(t, app, http.MethodGet, "/revalidate/last", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		resp, _ = doJSON(t, app, http.MethodGet, "/revalidate/report", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("last report", func(t *testing.T) {
		flow.report = &businessflow.RevalidationReport{Succeeded: []uint{4}, Changed: []uint{}, Failed: []businessflow.RevalidationFailure{}}
		resp, body := doJSON(t, app, http.MethodGet, "/revalidate/last", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []any{float64(4)}, body.Data.(map[string]any)["succeeded"])
	})

	t.Run("export attachment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/revalidate/report", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "attachment; filename=revalidation_report.xlsx", resp.Header.Get("Content-Disposition"))
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("xlsx-bytes"), data)
	})
}

func TestAdminHandler_Login(t *testing.T) {
	flow := &stubAuthFlow{login: &dto.AdminLoginResponse{
		Admin:   dto.AdminDTO{ID: 1, Username: "root"},
		Session: dto.AdminSessionDTO{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", ExpiresIn: 3600},
	}}
	app := fiber.New()
	h := NewAdminHandler(flow)
	app.Post("/login", h.Login)

	tests := []struct {
		name   string
		body   map[string]any
		err    error
		status int
		code   string
	}{
		{name: "success", body: map[string]any{"username": "root", "password": "password123"}, status: fiber.StatusOK},
		{name: "short password", body: map[string]any{"username": "root", "password": "short"}, status: fiber.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "unknown admin", body: map[string]any{"username": "ghost", "password": "password123"},
			err: businessflow.NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", businessflow.ErrAdminNotFound), status: fiber.StatusUnauthorized, code: "ADMIN_NOT_FOUND"},
		{name: "wrong password", body: map[string]any{"username": "root", "password": "password124"},
			err: businessflow.NewBusinessError("ADMIN_INCORRECT_PASSWORD", "Incorrect password", businessflow.ErrIncorrectPassword), status: fiber.StatusUnauthorized, code: "INCORRECT_PASSWORD"},
		{name: "inactive", body: map[string]any{"username": "root", "password": "password123"},
			err: businessflow.NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", businessflow.ErrAdminInactive), status: fiber.StatusForbidden, code: "ADMIN_INACTIVE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow.err = tt.err
			resp, body := doJSON(t, app, http.MethodPost, "/login", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, body))
				return
			}
			session := body.Data.(map[string]any)["session"].(map[string]any)
			assert.Equal(t, "a", session["access_token"])
		})
	}
}

func TestCreateRequestContext(t *testing.T) {
	var ctx context.Context
	var errAfterCancel error
	var hadDeadline bool

	app := fiber.New()
	app.Use(asAdmin(5))
	app.Get("/ctx", func(c fiber.Ctx) error {
		var cancel context.CancelFunc
		ctx, cancel = createRequestContext(c, "/ctx")
		_, hadDeadline = ctx.Deadline()
		cancel()
		errAfterCancel = ctx.Err()
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set("X-Request-ID", "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	require.NotNil(t, ctx)
	assert.True(t, hadDeadline)
	assert.ErrorIs(t, errAfterCancel, context.Canceled)
	assert.Equal(t, "req-1", ctx.Value(utils.RequestIDKey))
	assert.Equal(t, "/ctx", ctx.Value(utils.EndpointKey))
	assert.Equal(t, uint(5), ctx.Value(utils.AdminIDKey))
}
