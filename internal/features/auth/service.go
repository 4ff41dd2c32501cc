package auth

import (
	"context"
	"errors"

	common_models "crm-access/internal/common/models"
	"crm-access/internal/features/audit"
	"crm-access/internal/features/user"
	"crm-access/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthServiceImpl struct {
	UserRepo     user.UserRepository
	AuditService audit.AuditService
}

func NewAuthService(userRepo user.UserRepository, auditService audit.AuditService) AuthService {
	return &AuthServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
	}
}

// Login authenticates by email and returns a signed token carrying user and
// tenant identity. Permissions are resolved per request, never baked into the
// token, so role and assignment edits take effect without re-issuing it.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	// Global lookup; there is no tenant context before authentication.
	usr, err := s.UserRepo.FindByEmailGlobal(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if !usr.IsActive {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(usr.ID.Hex(), usr.TenantID.Hex())
	if err != nil {
		return "", err
	}

	auditCtx := context.WithValue(ctx, common_models.TenantIDKey, usr.TenantID.Hex())
	auditCtx = context.WithValue(auditCtx, common_models.UserIDKey, usr.ID.Hex())
	_ = s.AuditService.LogChange(auditCtx, common_models.AuditActionLogin, "users", usr.ID.Hex(), nil)

	return token, nil
}
