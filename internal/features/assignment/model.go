package assignment

import (
	"time"

	"crm-access/internal/authz"
)

// Assignment binds a user to a role within a tenant. At most one active row
// may exist per (user, tenant); the partial unique index in EnsureSchema
// enforces that at the storage tier.
type Assignment struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"user_id"`
	TenantID      string          `json:"tenant_id"`
	RoleID        string          `json:"role_id"`
	IsActive      bool            `json:"is_active"`
	HasFullAccess bool            `json:"has_full_access"`
	Override      *authz.Override `json:"override,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateAssignmentRequest struct {
	UserID        string          `json:"user_id"`
	RoleID        string          `json:"role_id"`
	HasFullAccess bool            `json:"has_full_access"`
	Override      *authz.Override `json:"override,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}

type SetOverrideRequest struct {
	Override *authz.Override `json:"override"`
}

type SetRoleRequest struct {
	RoleID string `json:"role_id"`
}
