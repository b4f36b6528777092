// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/app/services"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/repository"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AdminSessionDTO, error)
}

// AdminAuthFlowImpl provides admin credential verification and token issuance
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
}

func NewAdminAuthFlow(adminRepo repository.AdminRepository, auditRepo repository.AuditLogRepository, tokenService services.TokenService) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
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
		af.auditLoginFailure(ctx, 0, req.Username, "admin not found", metadata)
		return nil, NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !utils.IsTrue(admin.IsActive) {
		af.auditLoginFailure(ctx, admin.ID, req.Username, "admin inactive", metadata)
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		af.auditLoginFailure(ctx, admin.ID, req.Username, "incorrect password", metadata)
		return nil, NewBusinessError("ADMIN_INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	// Generate admin tokens
	accessToken, refreshToken, err := af.tokenService.GenerateAdminTokens(admin.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	if err := af.adminRepo.UpdateLastLogin(ctx, admin.ID); err != nil {
		return nil, NewBusinessError("ADMIN_UPDATE_FAILED", "Failed to update last login", err)
	}

	msg := fmt.Sprintf("Admin %s logged in", admin.Username)
	_ = saveAuditLog(ctx, af.auditRepo, admin.ID, models.AuditActionAdminLoginSuccess, msg, true, nil, metadata)

	resp := &dto.AdminLoginResponse{
		Admin:   ToAdminDTO(*admin),
		Session: ToAdminSessionDTO(accessToken, refreshToken, af.tokenService.AccessTokenTTL()),
	}
	return resp, nil
}

func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, refreshToken string) (*dto.AdminSessionDTO, error) {
	newAccessToken, newRefreshToken, err := af.tokenService.RefreshAdminToken(refreshToken)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh tokens", err)
	}
	session := ToAdminSessionDTO(newAccessToken, newRefreshToken, af.tokenService.AccessTokenTTL())
	return &session, nil
}

func (af *AdminAuthFlowImpl) auditLoginFailure(ctx context.Context, adminID uint, username, reason string, metadata *ClientMetadata) {
	errMsg := fmt.Sprintf("Login for %s rejected: %s", username, reason)
	_ = saveAuditLog(ctx, af.auditRepo, adminID, models.AuditActionAdminLoginFailed, errMsg, false, &errMsg, metadata)
}
