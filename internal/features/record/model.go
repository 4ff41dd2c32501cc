package record

import (
	"time"

	"crm-access/internal/authz"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a generic CRM row. Ownership lives in two dedicated fields so the
// row-visibility filters can target them directly; everything else is payload.
type Record struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	TenantID   primitive.ObjectID     `bson:"tenant_id" json:"tenant_id"`
	Module     authz.Module           `bson:"module" json:"module"`
	OwnerID    string                 `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	AssignedTo string                 `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Data       map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	CreatedBy  string                 `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at" json:"updated_at"`
}

func (r *Record) Owned() *authz.OwnedRecord {
	return &authz.OwnedRecord{OwnerID: r.OwnerID, AssignedTo: r.AssignedTo}
}

type UpsertRecordRequest struct {
	OwnerID    string                 `json:"owner_id"`
	AssignedTo string                 `json:"assigned_to"`
	Data       map[string]interface{} `json:"data"`
}
