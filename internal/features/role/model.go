package role

import (
	"time"

	"crm-access/internal/authz"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a tenant-scoped named bundle of default permissions. Names are
// unique per tenant; roles are never shared across tenants.
type Role struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TenantID    primitive.ObjectID  `json:"tenant_id" bson:"tenant_id"`
	Name        string              `json:"name" bson:"name"`
	Description string              `json:"description" bson:"description"`
	Permissions authz.PermissionSet `json:"permissions" bson:"permissions"`
	IsSystem    bool                `json:"is_system" bson:"is_system"` // Prevent deletion of system roles
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// UpsertRoleRequest is the write payload: a full overwrite, never a
// field-level merge.
type UpsertRoleRequest struct {
	Description string              `json:"description"`
	Permissions authz.PermissionSet `json:"permissions"`
	IsSystem    bool                `json:"is_system"`
}
