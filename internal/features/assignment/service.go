package assignment

import (
	"context"
	"fmt"
	"strconv"

	"crm-access/internal/authz"
	common_models "crm-access/internal/common/models"
	"crm-access/internal/features/audit"
)

// InvalidationNotifier pushes a permission-change event to a single user's
// live connections.
type InvalidationNotifier interface {
	NotifyUser(tenantID, userID string)
}

type AssignmentService interface {
	GetActive(ctx context.Context, userID string) (*Assignment, error)
	ListActive(ctx context.Context) ([]Assignment, error)
	Assign(ctx context.Context, req CreateAssignmentRequest) (*Assignment, error)
	ChangeRole(ctx context.Context, userID, roleID string) error
	SetOverride(ctx context.Context, userID string, override *authz.Override) error
	Revoke(ctx context.Context, userID string) error
}

type AssignmentServiceImpl struct {
	Repo         AssignmentRepository
	AuditService audit.AuditService
	Notifier     InvalidationNotifier
}

func NewAssignmentService(
	repo AssignmentRepository,
	auditService audit.AuditService,
	notifier InvalidationNotifier,
) AssignmentService {
	return &AssignmentServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Notifier:     notifier,
	}
}

func tenantFromContext(ctx context.Context) (string, error) {
	tenantID, ok := ctx.Value(common_models.TenantIDKey).(string)
	if !ok || tenantID == "" {
		return "", fmt.Errorf("tenant not found in context")
	}
	return tenantID, nil
}

func (s *AssignmentServiceImpl) GetActive(ctx context.Context, userID string) (*Assignment, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.Repo.FindActive(ctx, userID, tenantID)
}

func (s *AssignmentServiceImpl) ListActive(ctx context.Context) ([]Assignment, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListActive(ctx, tenantID)
}

func (s *AssignmentServiceImpl) Assign(ctx context.Context, req CreateAssignmentRequest) (*Assignment, error) {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" || req.RoleID == "" {
		return nil, fmt.Errorf("user_id and role_id are required")
	}
	if req.Override != nil {
		if err := authz.ValidateOverride(*req.Override); err != nil {
			return nil, err
		}
	}

	created, err := s.Repo.Create(ctx, Assignment{
		UserID:        req.UserID,
		TenantID:      tenantID,
		RoleID:        req.RoleID,
		HasFullAccess: req.HasFullAccess,
		Override:      req.Override,
		ExpiresAt:     req.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionAssignment, "assignments", strconv.FormatInt(created.ID, 10), map[string]common_models.Change{
		"user_id": {New: created.UserID},
		"role_id": {New: created.RoleID},
	})
	s.Notifier.NotifyUser(tenantID, created.UserID)

	return created, nil
}

func (s *AssignmentServiceImpl) ChangeRole(ctx context.Context, userID, roleID string) error {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}
	if roleID == "" {
		return fmt.Errorf("role_id is required")
	}

	existing, err := s.Repo.FindActive(ctx, userID, tenantID)
	if err != nil {
		return err
	}

	if err := s.Repo.SetRole(ctx, userID, tenantID, roleID); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionAssignment, "assignments", strconv.FormatInt(existing.ID, 10), map[string]common_models.Change{
		"role_id": {Old: existing.RoleID, New: roleID},
	})
	s.Notifier.NotifyUser(tenantID, userID)

	return nil
}

// SetOverride replaces the assignment's per-module override wholesale. A nil
// override clears any customization and the role base applies untouched.
func (s *AssignmentServiceImpl) SetOverride(ctx context.Context, userID string, override *authz.Override) error {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}
	if override != nil {
		if err := authz.ValidateOverride(*override); err != nil {
			return err
		}
	}

	existing, err := s.Repo.FindActive(ctx, userID, tenantID)
	if err != nil {
		return err
	}

	if err := s.Repo.SetOverride(ctx, userID, tenantID, override); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionAssignment, "assignments", strconv.FormatInt(existing.ID, 10), map[string]common_models.Change{
		"override": {Old: existing.Override, New: override},
	})
	s.Notifier.NotifyUser(tenantID, userID)

	return nil
}

func (s *AssignmentServiceImpl) Revoke(ctx context.Context, userID string) error {
	tenantID, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}

	existing, err := s.Repo.FindActive(ctx, userID, tenantID)
	if err != nil {
		return err
	}

	if err := s.Repo.Deactivate(ctx, userID, tenantID); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionAssignment, "assignments", strconv.FormatInt(existing.ID, 10), map[string]common_models.Change{
		"is_active": {Old: true, New: false},
	})
	s.Notifier.NotifyUser(tenantID, userID)

	return nil
}
