package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/app/services"
	"github.com/amirphl/delivery-zones/models"
	"github.com/amirphl/delivery-zones/repository"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error)
	Logout(ctx context.Context, accessToken string) (*dto.AdminMessageResponse, error)
	EnsureBootstrapAdmin(ctx context.Context, username, password string) error
}

// AdminAuthFlowImpl verifies admin credentials and issues tokens
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	auditRepo    repository.ZoneAuditLogRepository
	tokenService services.TokenService
	clock        utils.Clock
}

func NewAdminAuthFlow(adminRepo repository.AdminRepository, auditRepo repository.ZoneAuditLogRepository, tokenService services.TokenService, clock utils.Clock) AdminAuthFlow {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		clock:        clock,
	}
}

func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	// Validate request
	if req == nil {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrAdminNotFound)
	}
	if len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectPassword)
	}

	// Lookup admin
	admin, err := af.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if admin == nil {
		af.recordLogin(ctx, nil, req.Username, metadata, ErrAdminNotFound)
		return nil, NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !utils.IsTrue(admin.IsActive) {
		af.recordLogin(ctx, &admin.ID, req.Username, metadata, ErrAdminInactive)
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		af.recordLogin(ctx, &admin.ID, req.Username, metadata, ErrIncorrectPassword)
		return nil, NewBusinessError("ADMIN_INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateAdminTokens(admin.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	now := af.clock.Now().UTC()
	if err := af.adminRepo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		log.Printf("failed to update last login of admin %d: %v", admin.ID, err)
	}
	af.recordLogin(ctx, &admin.ID, req.Username, metadata, nil)

	resp := &dto.AdminLoginResponse{
		Admin:   ToAdminDTOModel(*admin),
		Session: ToAdminSessionDTO(accessToken, refreshToken, af.tokenService.AccessTokenTTL(), now),
	}
	return resp, nil
}

func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, NewBusinessError("ADMIN_REFRESH_FAILED", "Refresh token is required", services.ErrTokenInvalid)
	}
	accessToken, refreshToken, err := af.tokenService.RefreshAdminToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("ADMIN_REFRESH_FAILED", "Failed to refresh session", err)
	}
	session := ToAdminSessionDTO(accessToken, refreshToken, af.tokenService.AccessTokenTTL(), af.clock.Now().UTC())
	return &session, nil
}

func (af *AdminAuthFlowImpl) Logout(ctx context.Context, accessToken string) (*dto.AdminMessageResponse, error) {
	if err := af.tokenService.RevokeToken(accessToken); err != nil {
		return nil, NewBusinessError("ADMIN_LOGOUT_FAILED", "Failed to revoke token", err)
	}
	return &dto.AdminMessageResponse{Message: "logged out"}, nil
}

// EnsureBootstrapAdmin creates the first admin when none exists. Empty credentials are a no-op.
func (af *AdminAuthFlowImpl) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}

	count, err := af.adminRepo.Count(ctx, models.AdminFilter{})
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
	}
	if err := af.adminRepo.Save(ctx, admin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	log.Printf("created bootstrap admin %q", username)
	return nil
}

func (af *AdminAuthFlowImpl) recordLogin(ctx context.Context, adminID *uint, username string, metadata *ClientMetadata, loginErr error) {
	if af.auditRepo == nil {
		return
	}
	action := models.AuditActionAdminLoginSuccess
	description := fmt.Sprintf("Admin %q logged in", username)
	var errMsg *string
	if loginErr != nil {
		action = models.AuditActionAdminLoginFailed
		description = fmt.Sprintf("Admin %q login failed", username)
		errMsg = utils.ToPtr(loginErr.Error())
	}

	audit := &models.ZoneAuditLog{
		AdminID:      adminID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(loginErr == nil),
		ErrorMessage: errMsg,
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			audit.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.RequestID != "" {
			audit.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	if err := af.auditRepo.Save(ctx, audit); err != nil {
		log.Printf("failed to record admin login audit: %v", err)
	}
}
