// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/app/services"
	"github.com/gofiber/fiber/v3"
)

// Locals keys set by AdminAuthenticate
const (
	localAdminID     = "admin_id"
	localTokenID     = "token_id"
	localTokenClaims = "token_claims"
	localAccessToken = "access_token"
	localRequestID   = "request_id"
)

// AuthMiddleware guards the administrative surface with admin access tokens
type AuthMiddleware struct {
	tokenService services.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

var tokenFailures = []struct {
	err     error
	code    string
	message string
}{
	{services.ErrTokenExpired, "TOKEN_EXPIRED", "Access token has expired"},
	{services.ErrTokenInvalid, "TOKEN_INVALID", "Invalid access token"},
	{services.ErrTokenRevoked, "TOKEN_REVOKED", "Access token has been revoked"},
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// AdminAuthenticate accepts only unexpired, unrevoked admin access tokens.
// Refresh tokens are rejected even though they carry the same claims.
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, code, message := bearerToken(c.Get("Authorization"))
		if code != "" {
			return unauthorized(c, message, code)
		}

		claims, err := m.tokenService.ValidateAdminToken(token)
		if err != nil {
			for _, f := range tokenFailures {
				if errors.Is(err, f.err) {
					return unauthorized(c, f.message, f.code)
				}
			}
			return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
		}
		if claims.TokenType != services.TokenTypeAccess {
			return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
		}

		c.Locals(localAdminID, claims.AdminID)
		c.Locals(localTokenID, claims.TokenID)
		c.Locals(localTokenClaims, claims)
		c.Locals(localAccessToken, token)
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals(localRequestID, requestID)
		}

		return c.Next()
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// A non-empty code reports why the header was rejected.
func bearerToken(header string) (token, code, message string) {
	switch {
	case header == "":
		return "", "MISSING_AUTHORIZATION_HEADER", "Authorization header is required"
	case !strings.HasPrefix(header, "Bearer "):
		return "", "INVALID_AUTHORIZATION_FORMAT", "Invalid authorization header format. Expected 'Bearer <token>'"
	}
	token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", "MISSING_ACCESS_TOKEN", "Access token is required"
	}
	return token, "", ""
}

// GetAdminIDFromContext extracts admin ID from the request context
func GetAdminIDFromContext(c fiber.Ctx) (uint, bool) {
	adminID, ok := c.Locals(localAdminID).(uint)
	return adminID, ok
}

// GetAdminClaimsFromContext extracts admin token claims from the request context
func GetAdminClaimsFromContext(c fiber.Ctx) (*services.AdminTokenClaims, bool) {
	claims, ok := c.Locals(localTokenClaims).(*services.AdminTokenClaims)
	return claims, ok
}

// GetAccessTokenFromContext returns the raw bearer token accepted by AdminAuthenticate
func GetAccessTokenFromContext(c fiber.Ctx) (string, bool) {
	token, ok := c.Locals(localAccessToken).(string)
	return token, ok
}

// RequireAdminAuth fails with a 401 *fiber.Error when the request carries no admin.
// The router's error handler renders it.
func RequireAdminAuth(c fiber.Ctx) error {
	adminID, ok := GetAdminIDFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Admin authentication required")
	}
	if adminID == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid admin ID")
	}
	return nil
}
