package record

import (
	"context"
	"errors"
	"fmt"

	"crm-access/internal/authz"
	"crm-access/internal/common/models"
	"crm-access/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("record not found")

// RecordRepository runs every query through the caller's guard. Visibility is
// enforced in the query itself, not filtered after the fact, so a row the
// caller may not see never leaves the database.
type RecordRepository interface {
	List(ctx context.Context, guard authz.Guard, module authz.Module) ([]Record, error)
	FindByID(ctx context.Context, guard authz.Guard, module authz.Module, id string) (*Record, error)
	Insert(ctx context.Context, record *Record) error
	Update(ctx context.Context, guard authz.Guard, record *Record) error
	Delete(ctx context.Context, guard authz.Guard, module authz.Module, id string) error
	EnsureIndexes(ctx context.Context) error
}

type RecordRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRecordRepository(mongodb *database.MongodbDB) RecordRepository {
	return &RecordRepositoryImpl{
		Collection: mongodb.DB.Collection("records"),
	}
}

func tenantFromContext(ctx context.Context) (primitive.ObjectID, error) {
	tenantID, ok := ctx.Value(models.TenantIDKey).(string)
	if !ok || tenantID == "" {
		return primitive.NilObjectID, fmt.Errorf("tenant context missing")
	}
	return primitive.ObjectIDFromHex(tenantID)
}

// scopedQuery merges tenant scoping, the module partition and the guard's
// row-visibility filter into one query document.
func scopedQuery(tenant primitive.ObjectID, module authz.Module, access bson.M, extra bson.M) bson.M {
	query := bson.M{"tenant_id": tenant, "module": string(module)}
	for k, v := range access {
		query[k] = v
	}
	for k, v := range extra {
		query[k] = v
	}
	return query
}

func (r *RecordRepositoryImpl) List(ctx context.Context, guard authz.Guard, module authz.Module) ([]Record, error) {
	tenant, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := scopedQuery(tenant, module, guard.Filter(module, authz.ActionRead), nil)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []Record
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *RecordRepositoryImpl) FindByID(ctx context.Context, guard authz.Guard, module authz.Module, id string) (*Record, error) {
	tenant, err := tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	query := scopedQuery(tenant, module, guard.Filter(module, authz.ActionRead), bson.M{"_id": objectID})

	var record Record
	err = r.Collection.FindOne(ctx, query).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Invisible and nonexistent are indistinguishable on purpose.
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *RecordRepositoryImpl) Insert(ctx context.Context, record *Record) error {
	tenant, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}
	record.TenantID = tenant

	_, err = r.Collection.InsertOne(ctx, record)
	return err
}

// Update rewrites the row only if the update-scope filter still matches it.
// The service has already vetted the resulting row via the write guard.
func (r *RecordRepositoryImpl) Update(ctx context.Context, guard authz.Guard, record *Record) error {
	tenant, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}

	query := scopedQuery(tenant, record.Module, guard.Filter(record.Module, authz.ActionUpdate), bson.M{"_id": record.ID})
	update := bson.M{
		"$set": bson.M{
			"owner_id":    record.OwnerID,
			"assigned_to": record.AssignedTo,
			"data":        record.Data,
			"updated_at":  record.UpdatedAt,
		},
	}

	result, err := r.Collection.UpdateOne(ctx, query, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecordRepositoryImpl) Delete(ctx context.Context, guard authz.Guard, module authz.Module, id string) error {
	tenant, err := tenantFromContext(ctx)
	if err != nil {
		return err
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	query := scopedQuery(tenant, module, guard.Filter(module, authz.ActionDelete), bson.M{"_id": objectID})

	result, err := r.Collection.DeleteOne(ctx, query)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecordRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "module", Value: 1}, {Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "module", Value: 1}, {Key: "assigned_to", Value: 1}}},
	})
	return err
}
