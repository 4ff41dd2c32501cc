package expiry

import (
	"context"
	"fmt"
	"strconv"

	common_models "crm-access/internal/common/models"
	"crm-access/internal/config"
	"crm-access/internal/features/assignment"
	"crm-access/internal/features/audit"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweeperService retires role assignments whose expiry has passed. Expiry is
// belt and braces: the resolver already treats an expired assignment's absence
// as denial once the sweep lands, and the sweep makes the denial durable.
type SweeperService interface {
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
	SweepOnce(ctx context.Context) (int, error)
}

type SweeperServiceImpl struct {
	AssignmentRepo assignment.AssignmentRepository
	AuditService   audit.AuditService
	Notifier       assignment.InvalidationNotifier
	Logger         *zap.Logger
	Schedule       string

	scheduler *cron.Cron
}

func NewSweeperService(
	assignmentRepo assignment.AssignmentRepository,
	auditService audit.AuditService,
	notifier assignment.InvalidationNotifier,
	logger *zap.Logger,
	cfg *config.Config,
) SweeperService {
	return &SweeperServiceImpl{
		AssignmentRepo: assignmentRepo,
		AuditService:   auditService,
		Notifier:       notifier,
		Logger:         logger,
		Schedule:       cfg.SweepCron,
	}
}

func (s *SweeperServiceImpl) InitializeScheduler(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.Schedule); err != nil {
		return fmt.Errorf("invalid sweep cron expression %q: %w", s.Schedule, err)
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.Schedule, func() {
		if _, err := s.SweepOnce(context.Background()); err != nil {
			s.Logger.Error("assignment expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.Start()
	s.Logger.Info("assignment expiry sweeper started", zap.String("schedule", s.Schedule))
	return nil
}

func (s *SweeperServiceImpl) StopScheduler() error {
	if s.scheduler != nil {
		stopCtx := s.scheduler.Stop()
		<-stopCtx.Done()
	}
	return nil
}

// SweepOnce deactivates all expired assignments and returns how many were
// retired. Each retirement is audited and the affected user notified.
func (s *SweeperServiceImpl) SweepOnce(ctx context.Context) (int, error) {
	expired, err := s.AssignmentRepo.DeactivateExpired(ctx)
	if err != nil {
		return 0, err
	}

	for _, a := range expired {
		auditCtx := context.WithValue(ctx, common_models.TenantIDKey, a.TenantID)
		_ = s.AuditService.LogChange(auditCtx, common_models.AuditActionExpiry, "assignments", strconv.FormatInt(a.ID, 10), map[string]common_models.Change{
			"is_active":  {Old: true, New: false},
			"expires_at": {Old: a.ExpiresAt},
		})
		s.Notifier.NotifyUser(a.TenantID, a.UserID)
	}

	if len(expired) > 0 {
		s.Logger.Info("retired expired assignments", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}
