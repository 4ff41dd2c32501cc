package record

import (
	"context"
	"fmt"
	"time"

	"crm-access/internal/authz"
	common_models "crm-access/internal/common/models"
	"crm-access/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecordService interface {
	ListRecords(ctx context.Context, guard authz.Guard, module authz.Module) ([]Record, error)
	GetRecord(ctx context.Context, guard authz.Guard, module authz.Module, id string) (*Record, error)
	CreateRecord(ctx context.Context, guard authz.Guard, module authz.Module, req UpsertRecordRequest) (*Record, error)
	UpdateRecord(ctx context.Context, guard authz.Guard, module authz.Module, id string, req UpsertRecordRequest) (*Record, error)
	DeleteRecord(ctx context.Context, guard authz.Guard, module authz.Module, id string) error
}

type RecordServiceImpl struct {
	RecordRepo   RecordRepository
	AuditService audit.AuditService
}

func NewRecordService(recordRepo RecordRepository, auditService audit.AuditService) RecordService {
	return &RecordServiceImpl{
		RecordRepo:   recordRepo,
		AuditService: auditService,
	}
}

// recordModules is the set of modules that carry row data. Dashboard and
// settings are capability switches, not collections.
var recordModules = map[authz.Module]bool{
	authz.ModuleCustomers:           true,
	authz.ModuleLeads:               true,
	authz.ModuleActivities:          true,
	authz.ModuleProducts:            true,
	authz.ModulePipeline:            true,
	authz.ModuleEventTypes:          true,
	authz.ModuleQuotations:          true,
	authz.ModulePaymentVerification: true,
	authz.ModuleTemplates:           true,
}

func ValidRecordModule(m authz.Module) bool {
	return recordModules[m]
}

func (s *RecordServiceImpl) ListRecords(ctx context.Context, guard authz.Guard, module authz.Module) ([]Record, error) {
	if !ValidRecordModule(module) {
		return nil, fmt.Errorf("unknown record module %q", module)
	}
	return s.RecordRepo.List(ctx, guard, module)
}

func (s *RecordServiceImpl) GetRecord(ctx context.Context, guard authz.Guard, module authz.Module, id string) (*Record, error) {
	if !ValidRecordModule(module) {
		return nil, fmt.Errorf("unknown record module %q", module)
	}
	return s.RecordRepo.FindByID(ctx, guard, module, id)
}

// CreateRecord inserts after the write guard has vetted the new row: a user
// scoped to Own may not create a record owned by someone else.
func (s *RecordServiceImpl) CreateRecord(ctx context.Context, guard authz.Guard, module authz.Module, req UpsertRecordRequest) (*Record, error) {
	if !ValidRecordModule(module) {
		return nil, fmt.Errorf("unknown record module %q", module)
	}

	now := time.Now()
	rec := &Record{
		ID:         primitive.NewObjectID(),
		Module:     module,
		OwnerID:    req.OwnerID,
		AssignedTo: req.AssignedTo,
		Data:       req.Data,
		CreatedBy:  guard.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if rec.OwnerID == "" {
		rec.OwnerID = guard.UserID
	}

	if err := guard.Allow(module, authz.ActionCreate, rec.Owned()); err != nil {
		return nil, err
	}

	if err := s.RecordRepo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, string(module), rec.ID.Hex(), map[string]common_models.Change{
		"owner_id": {New: rec.OwnerID},
	})

	return rec, nil
}

// UpdateRecord loads the row under the update-scope filter, applies the
// change, then vets the resulting row. Both the row as it was and the row as
// it will be must fall inside the caller's scope, or ownership could be
// rewritten to smuggle a record out of reach.
func (s *RecordServiceImpl) UpdateRecord(ctx context.Context, guard authz.Guard, module authz.Module, id string, req UpsertRecordRequest) (*Record, error) {
	if !ValidRecordModule(module) {
		return nil, fmt.Errorf("unknown record module %q", module)
	}

	existing, err := s.RecordRepo.FindByID(ctx, guard, module, id)
	if err != nil {
		return nil, err
	}
	if err := guard.Allow(module, authz.ActionUpdate, existing.Owned()); err != nil {
		return nil, err
	}

	updated := *existing
	if req.OwnerID != "" {
		updated.OwnerID = req.OwnerID
	}
	if req.AssignedTo != "" {
		updated.AssignedTo = req.AssignedTo
	}
	if req.Data != nil {
		updated.Data = req.Data
	}
	updated.UpdatedAt = time.Now()

	if err := guard.Allow(module, authz.ActionUpdate, updated.Owned()); err != nil {
		return nil, err
	}

	if err := s.RecordRepo.Update(ctx, guard, &updated); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(module), updated.ID.Hex(), map[string]common_models.Change{
		"owner_id":    {Old: existing.OwnerID, New: updated.OwnerID},
		"assigned_to": {Old: existing.AssignedTo, New: updated.AssignedTo},
	})

	return &updated, nil
}

func (s *RecordServiceImpl) DeleteRecord(ctx context.Context, guard authz.Guard, module authz.Module, id string) error {
	if !ValidRecordModule(module) {
		return fmt.Errorf("unknown record module %q", module)
	}

	if err := s.RecordRepo.Delete(ctx, guard, module, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, string(module), id, nil)
	return nil
}
