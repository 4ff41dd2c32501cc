package role

import (
	"context"
	"fmt"

	"crm-access/internal/authz"
	common_models "crm-access/internal/common/models"
	"crm-access/internal/features/audit"
)

// InvalidationNotifier fans a permission-change event out to connected
// clients so any cached effective permission set is dropped immediately.
type InvalidationNotifier interface {
	NotifyTenant(tenantID string)
}

type RoleService interface {
	GetRole(ctx context.Context, name string) (*Role, error)
	GetRoleByID(ctx context.Context, id string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpsertRole(ctx context.Context, name string, req UpsertRoleRequest) (*Role, error)
	DeleteRole(ctx context.Context, name string) error
}

type RoleServiceImpl struct {
	RoleRepo     RoleRepository
	AuditService audit.AuditService
	Notifier     InvalidationNotifier
}

func NewRoleService(
	roleRepo RoleRepository,
	auditService audit.AuditService,
	notifier InvalidationNotifier,
) RoleService {
	return &RoleServiceImpl{
		RoleRepo:     roleRepo,
		AuditService: auditService,
		Notifier:     notifier,
	}
}

func (s *RoleServiceImpl) GetRole(ctx context.Context, name string) (*Role, error) {
	return s.RoleRepo.FindByName(ctx, name)
}

func (s *RoleServiceImpl) GetRoleByID(ctx context.Context, id string) (*Role, error) {
	return s.RoleRepo.FindByID(ctx, id)
}

func (s *RoleServiceImpl) ListRoles(ctx context.Context) ([]Role, error) {
	return s.RoleRepo.List(ctx)
}

// UpsertRole writes a role after validating that every granted scope is
// satisfiable. Unsatisfiable scopes are rejected here, at write time, so the
// query path never has to special-case them.
func (s *RoleServiceImpl) UpsertRole(ctx context.Context, name string, req UpsertRoleRequest) (*Role, error) {
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}
	if err := authz.ValidatePermissionSet(req.Permissions); err != nil {
		return nil, err
	}

	role, err := s.RoleRepo.Upsert(ctx, name, req)
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRole, "roles", role.ID.Hex(), map[string]common_models.Change{
		"name":        {New: role.Name},
		"permissions": {New: role.Permissions},
	})

	// Any already-resolved effective set derived from this role is stale now.
	if tenantID, ok := ctx.Value(common_models.TenantIDKey).(string); ok {
		s.Notifier.NotifyTenant(tenantID)
	}

	return role, nil
}

func (s *RoleServiceImpl) DeleteRole(ctx context.Context, name string) error {
	role, err := s.RoleRepo.FindByName(ctx, name)
	if err != nil {
		return err
	}

	if role.IsSystem {
		return fmt.Errorf("cannot delete system role")
	}

	if err := s.RoleRepo.Delete(ctx, name); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRole, "roles", role.ID.Hex(), map[string]common_models.Change{
		"name": {Old: role.Name},
	})

	if tenantID, ok := ctx.Value(common_models.TenantIDKey).(string); ok {
		s.Notifier.NotifyTenant(tenantID)
	}

	return nil
}
