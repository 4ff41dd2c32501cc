package permission

import (
	"context"
	"testing"

	"crm-access/internal/authz"
	"crm-access/internal/features/assignment"
	"crm-access/internal/features/role"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeAssignmentRepo struct {
	byUser map[string]*assignment.Assignment
}

func (f *fakeAssignmentRepo) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeAssignmentRepo) FindActive(ctx context.Context, userID, tenantID string) (*assignment.Assignment, error) {
	a, ok := f.byUser[userID+"/"+tenantID]
	if !ok {
		return nil, assignment.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssignmentRepo) ListActive(ctx context.Context, tenantID string) ([]assignment.Assignment, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, a assignment.Assignment) (*assignment.Assignment, error) {
	return &a, nil
}

func (f *fakeAssignmentRepo) Ensure(ctx context.Context, a assignment.Assignment) (*assignment.Assignment, error) {
	return &a, nil
}

func (f *fakeAssignmentRepo) SetRole(ctx context.Context, userID, tenantID, roleID string) error {
	return nil
}

func (f *fakeAssignmentRepo) SetOverride(ctx context.Context, userID, tenantID string, override *authz.Override) error {
	return nil
}

func (f *fakeAssignmentRepo) Deactivate(ctx context.Context, userID, tenantID string) error {
	return nil
}

func (f *fakeAssignmentRepo) DeactivateExpired(ctx context.Context) ([]assignment.Assignment, error) {
	return nil, nil
}

type fakeRoleRepo struct {
	byID map[string]*role.Role
}

func (f *fakeRoleRepo) FindByID(ctx context.Context, id string) (*role.Role, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, role.ErrNotFound
	}
	return r, nil
}

func (f *fakeRoleRepo) FindByName(ctx context.Context, name string) (*role.Role, error) {
	return nil, role.ErrNotFound
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]role.Role, error) { return nil, nil }

func (f *fakeRoleRepo) Upsert(ctx context.Context, name string, req role.UpsertRoleRequest) (*role.Role, error) {
	return nil, nil
}

func (f *fakeRoleRepo) Delete(ctx context.Context, name string) error { return nil }

func (f *fakeRoleRepo) EnsureIndexes(ctx context.Context) error { return nil }

const (
	testTenant = "64a000000000000000000001"
	testRoleID = "64a0000000000000000000aa"
)

func salesRole() *role.Role {
	oid, _ := primitive.ObjectIDFromHex(testRoleID)
	return &role.Role{
		ID:   oid,
		Name: "Sales Rep",
		Permissions: authz.PermissionSet{
			Dashboard: true,
			Grants: map[authz.Module]authz.ActionScopes{
				authz.ModuleLeads: {
					authz.ActionRead:   authz.ScopeAll,
					authz.ActionUpdate: authz.ScopeOwn,
				},
				authz.ModulePipeline: {
					authz.ActionRead: authz.ScopeOwnAssignee,
				},
			},
		},
	}
}

func newTestService(assignments map[string]*assignment.Assignment, roles map[string]*role.Role) PermissionService {
	return NewPermissionService(
		&fakeAssignmentRepo{byUser: assignments},
		&fakeRoleRepo{byID: roles},
		zap.NewNop(),
	)
}

func TestResolveForUserNoAssignment(t *testing.T) {
	svc := newTestService(map[string]*assignment.Assignment{}, map[string]*role.Role{})

	effective, err := svc.ResolveForUser(context.Background(), "u1", testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if effective.Dashboard {
		t.Error("expected dashboard denied for unassigned user")
	}
	for _, m := range authz.Modules {
		for _, a := range authz.Actions {
			if effective.Scope(m, a) != authz.ScopeDenied {
				t.Errorf("expected %s.%s denied for unassigned user", m, a)
			}
		}
	}
}

func TestResolveForUserRoleOnly(t *testing.T) {
	svc := newTestService(
		map[string]*assignment.Assignment{
			"u1/" + testTenant: {UserID: "u1", TenantID: testTenant, RoleID: testRoleID, IsActive: true},
		},
		map[string]*role.Role{testRoleID: salesRole()},
	)

	effective, err := svc.ResolveForUser(context.Background(), "u1", testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := effective.Scope(authz.ModuleLeads, authz.ActionRead); got != authz.ScopeAll {
		t.Errorf("leads.read = %q, want %q", got, authz.ScopeAll)
	}
	if got := effective.Scope(authz.ModuleLeads, authz.ActionUpdate); got != authz.ScopeOwn {
		t.Errorf("leads.update = %q, want %q", got, authz.ScopeOwn)
	}
	if got := effective.Scope(authz.ModuleLeads, authz.ActionDelete); got != authz.ScopeDenied {
		t.Errorf("leads.delete = %q, want denied", got)
	}
}

func TestResolveForUserOverrideReplacesModule(t *testing.T) {
	svc := newTestService(
		map[string]*assignment.Assignment{
			"u1/" + testTenant: {
				UserID: "u1", TenantID: testTenant, RoleID: testRoleID, IsActive: true,
				Override: &authz.Override{
					Grants: map[authz.Module]authz.ActionScopes{
						authz.ModuleLeads: {authz.ActionRead: authz.ScopeOwn},
					},
				},
			},
		},
		map[string]*role.Role{testRoleID: salesRole()},
	)

	effective, err := svc.ResolveForUser(context.Background(), "u1", testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := effective.Scope(authz.ModuleLeads, authz.ActionRead); got != authz.ScopeOwn {
		t.Errorf("leads.read = %q, want %q after override", got, authz.ScopeOwn)
	}
	// The override replaces the whole leads map; update is no longer granted.
	if got := effective.Scope(authz.ModuleLeads, authz.ActionUpdate); got != authz.ScopeDenied {
		t.Errorf("leads.update = %q, want denied after module replacement", got)
	}
	// Untouched modules inherit from the role.
	if got := effective.Scope(authz.ModulePipeline, authz.ActionRead); got != authz.ScopeOwnAssignee {
		t.Errorf("pipeline.read = %q, want %q", got, authz.ScopeOwnAssignee)
	}
}

func TestResolveForUserFullAccess(t *testing.T) {
	svc := newTestService(
		map[string]*assignment.Assignment{
			"u1/" + testTenant: {
				UserID: "u1", TenantID: testTenant, RoleID: testRoleID, IsActive: true,
				HasFullAccess: true,
				Override: &authz.Override{
					Grants: map[authz.Module]authz.ActionScopes{
						authz.ModuleLeads: {},
					},
				},
			},
		},
		// Role lookup must not even matter.
		map[string]*role.Role{},
	)

	effective, err := svc.ResolveForUser(context.Background(), "u1", testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range authz.Modules {
		if m == authz.ModuleDashboard {
			// Dashboard carries only the read flag; full access grants it too.
			if got := effective.Scope(m, authz.ActionRead); got != authz.ScopeAll {
				t.Errorf("dashboard.read = %q, want all under full access", got)
			}
			continue
		}
		for _, a := range authz.Actions {
			if effective.Scope(m, a) != authz.ScopeAll {
				t.Errorf("expected %s.%s = all under full access", m, a)
			}
		}
	}
}

func TestResolveForUserMissingRoleDenies(t *testing.T) {
	svc := newTestService(
		map[string]*assignment.Assignment{
			"u1/" + testTenant: {UserID: "u1", TenantID: testTenant, RoleID: "64a0000000000000000000ff", IsActive: true},
		},
		map[string]*role.Role{},
	)

	effective, err := svc.ResolveForUser(context.Background(), "u1", testTenant)
	if err != nil {
		t.Fatalf("dangling role reference should deny, not error: %v", err)
	}
	if effective.Scope(authz.ModuleLeads, authz.ActionRead) != authz.ScopeDenied {
		t.Error("expected denial when the assigned role no longer exists")
	}
}

func TestCheckAccessMatchesGuardFilter(t *testing.T) {
	svc := newTestService(
		map[string]*assignment.Assignment{
			"u1/" + testTenant: {UserID: "u1", TenantID: testTenant, RoleID: testRoleID, IsActive: true},
		},
		map[string]*role.Role{testRoleID: salesRole()},
	)
	ctx := context.Background()

	ownRecord := &authz.OwnedRecord{OwnerID: "u1"}
	otherRecord := &authz.OwnedRecord{OwnerID: "u2"}

	allowed, err := svc.CheckAccess(ctx, "u1", testTenant, authz.ModuleLeads, authz.ActionUpdate, ownRecord)
	if err != nil || !allowed {
		t.Errorf("own record update: allowed=%v err=%v, want allowed", allowed, err)
	}
	allowed, err = svc.CheckAccess(ctx, "u1", testTenant, authz.ModuleLeads, authz.ActionUpdate, otherRecord)
	if err != nil || allowed {
		t.Errorf("foreign record update: allowed=%v err=%v, want denied", allowed, err)
	}

	filter, err := svc.AccessFilter(ctx, "u1", testTenant, authz.ModuleLeads, authz.ActionUpdate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := filter[authz.FieldOwner]; got != "u1" {
		t.Errorf("update filter = %v, want ownership constraint on u1", filter)
	}
}
