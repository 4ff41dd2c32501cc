package permission

import (
	"context"
	"errors"

	"crm-access/internal/authz"
	common_models "crm-access/internal/common/models"
	"crm-access/internal/features/assignment"
	"crm-access/internal/features/role"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type PermissionService interface {
	// ResolveForUser computes the user's effective permission set within a
	// tenant. A user with no active assignment resolves to the empty set,
	// not an error: absence of access is a normal answer.
	ResolveForUser(ctx context.Context, userID, tenantID string) (authz.PermissionSet, error)
	GuardForUser(ctx context.Context, userID, tenantID string) (authz.Guard, error)
	CheckAccess(ctx context.Context, userID, tenantID string, module authz.Module, action authz.Action, record *authz.OwnedRecord) (bool, error)
	AccessFilter(ctx context.Context, userID, tenantID string, module authz.Module, action authz.Action) (bson.M, error)
}

type PermissionServiceImpl struct {
	AssignmentRepo assignment.AssignmentRepository
	RoleRepo       role.RoleRepository
	Logger         *zap.Logger
}

func NewPermissionService(
	assignmentRepo assignment.AssignmentRepository,
	roleRepo role.RoleRepository,
	logger *zap.Logger,
) PermissionService {
	return &PermissionServiceImpl{
		AssignmentRepo: assignmentRepo,
		RoleRepo:       roleRepo,
		Logger:         logger,
	}
}

func (s *PermissionServiceImpl) ResolveForUser(ctx context.Context, userID, tenantID string) (authz.PermissionSet, error) {
	if userID == "" || tenantID == "" {
		return authz.PermissionSet{}, nil
	}

	a, err := s.AssignmentRepo.FindActive(ctx, userID, tenantID)
	if err != nil {
		if errors.Is(err, assignment.ErrNotFound) {
			return authz.PermissionSet{}, nil
		}
		return authz.PermissionSet{}, err
	}

	if a.HasFullAccess {
		return authz.FullAccess(), nil
	}

	// Role lookups are tenant-scoped through the context.
	roleCtx := context.WithValue(ctx, common_models.TenantIDKey, tenantID)
	r, err := s.RoleRepo.FindByID(roleCtx, a.RoleID)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			// A dangling role reference denies rather than errors.
			s.Logger.Warn("assignment references missing role",
				zap.String("tenant_id", tenantID),
				zap.String("user_id", userID),
				zap.String("role_id", a.RoleID))
			return authz.PermissionSet{}, nil
		}
		return authz.PermissionSet{}, err
	}

	return authz.Resolve(r.Permissions, a.Override), nil
}

func (s *PermissionServiceImpl) GuardForUser(ctx context.Context, userID, tenantID string) (authz.Guard, error) {
	effective, err := s.ResolveForUser(ctx, userID, tenantID)
	if err != nil {
		return authz.Guard{}, err
	}
	return authz.Guard{Effective: effective, UserID: userID}, nil
}

func (s *PermissionServiceImpl) CheckAccess(ctx context.Context, userID, tenantID string, module authz.Module, action authz.Action, record *authz.OwnedRecord) (bool, error) {
	effective, err := s.ResolveForUser(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	return authz.Can(effective, module, action, record, userID), nil
}

// AccessFilter returns the row predicate that mirrors CheckAccess for list
// queries against the document store.
func (s *PermissionServiceImpl) AccessFilter(ctx context.Context, userID, tenantID string, module authz.Module, action authz.Action) (bson.M, error) {
	g, err := s.GuardForUser(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}
	return g.Filter(module, action), nil
}
