package assignment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"crm-access/internal/authz"
	"crm-access/internal/database"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("assignment not found")
	ErrDuplicate = errors.New("user already has an active assignment in this tenant")
)

type AssignmentRepository interface {
	EnsureSchema(ctx context.Context) error
	FindActive(ctx context.Context, userID, tenantID string) (*Assignment, error)
	ListActive(ctx context.Context, tenantID string) ([]Assignment, error)
	Create(ctx context.Context, a Assignment) (*Assignment, error)
	Ensure(ctx context.Context, a Assignment) (*Assignment, error)
	SetRole(ctx context.Context, userID, tenantID, roleID string) error
	SetOverride(ctx context.Context, userID, tenantID string, override *authz.Override) error
	Deactivate(ctx context.Context, userID, tenantID string) error
	DeactivateExpired(ctx context.Context) ([]Assignment, error)
}

type AssignmentRepositoryImpl struct {
	DB *sql.DB
}

func NewAssignmentRepository(pg *database.PostgresDB) AssignmentRepository {
	return &AssignmentRepositoryImpl{DB: pg.DB}
}

const assignmentColumns = `id, user_id, tenant_id, role_id, is_active, has_full_access, override, expires_at, created_at, updated_at`

// EnsureSchema creates the assignments table. The partial unique index is the
// storage-tier guarantee behind the one-active-assignment rule: deactivated
// rows stay behind as history without blocking a replacement.
func (r *AssignmentRepositoryImpl) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assignments (
			id              BIGSERIAL PRIMARY KEY,
			user_id         TEXT NOT NULL,
			tenant_id       TEXT NOT NULL,
			role_id         TEXT NOT NULL,
			is_active       BOOLEAN NOT NULL DEFAULT TRUE,
			has_full_access BOOLEAN NOT NULL DEFAULT FALSE,
			override        JSONB,
			expires_at      TIMESTAMPTZ,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS assignments_one_active_idx
			ON assignments (user_id, tenant_id) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS assignments_expiry_idx
			ON assignments (expires_at) WHERE is_active AND expires_at IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure assignments schema: %w", err)
		}
	}
	return nil
}

func (r *AssignmentRepositoryImpl) FindActive(ctx context.Context, userID, tenantID string) (*Assignment, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE user_id = $1 AND tenant_id = $2 AND is_active`,
		userID, tenantID)

	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AssignmentRepositoryImpl) ListActive(ctx context.Context, tenantID string) ([]Assignment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE tenant_id = $1 AND is_active
		 ORDER BY user_id`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AssignmentRepositoryImpl) Create(ctx context.Context, a Assignment) (*Assignment, error) {
	overrideJSON, err := marshalOverride(a.Override)
	if err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO assignments (user_id, tenant_id, role_id, is_active, has_full_access, override, expires_at)
		 VALUES ($1, $2, $3, TRUE, $4, $5, $6)
		 RETURNING `+assignmentColumns,
		a.UserID, a.TenantID, a.RoleID, a.HasFullAccess, overrideJSON, a.ExpiresAt)

	created, err := scanAssignment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, raised here when an insert hits assignments_one_active_idx.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// assignmentWriter is the slice of the repository that the ensure policy
// needs. It lets the policy run against any backing store.
type assignmentWriter interface {
	FindActive(ctx context.Context, userID, tenantID string) (*Assignment, error)
	Create(ctx context.Context, a Assignment) (*Assignment, error)
}

// ensureAssigned creates the assignment if the user has no active one, and is
// a no-op when an identical-role assignment already exists. A live assignment
// with a different role is a conflict, not something to silently replace.
func ensureAssigned(ctx context.Context, store assignmentWriter, a Assignment) (*Assignment, error) {
	existing, err := store.FindActive(ctx, a.UserID, a.TenantID)
	if err == nil {
		if existing.RoleID == a.RoleID {
			return existing, nil
		}
		return nil, ErrDuplicate
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return store.Create(ctx, a)
}

func (r *AssignmentRepositoryImpl) Ensure(ctx context.Context, a Assignment) (*Assignment, error) {
	return ensureAssigned(ctx, r, a)
}

func (r *AssignmentRepositoryImpl) SetRole(ctx context.Context, userID, tenantID, roleID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE assignments SET role_id = $3, updated_at = now()
		 WHERE user_id = $1 AND tenant_id = $2 AND is_active`,
		userID, tenantID, roleID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *AssignmentRepositoryImpl) SetOverride(ctx context.Context, userID, tenantID string, override *authz.Override) error {
	overrideJSON, err := marshalOverride(override)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx,
		`UPDATE assignments SET override = $3, updated_at = now()
		 WHERE user_id = $1 AND tenant_id = $2 AND is_active`,
		userID, tenantID, overrideJSON)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *AssignmentRepositoryImpl) Deactivate(ctx context.Context, userID, tenantID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE assignments SET is_active = FALSE, updated_at = now()
		 WHERE user_id = $1 AND tenant_id = $2 AND is_active`,
		userID, tenantID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeactivateExpired retires every active assignment whose expiry has passed
// and returns the retired rows so callers can audit and notify.
func (r *AssignmentRepositoryImpl) DeactivateExpired(ctx context.Context) ([]Assignment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`UPDATE assignments SET is_active = FALSE, updated_at = now()
		 WHERE is_active AND expires_at IS NOT NULL AND expires_at <= now()
		 RETURNING `+assignmentColumns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssignment(row rowScanner) (*Assignment, error) {
	var (
		a            Assignment
		overrideJSON []byte
		expiresAt    sql.NullTime
	)
	err := row.Scan(&a.ID, &a.UserID, &a.TenantID, &a.RoleID, &a.IsActive,
		&a.HasFullAccess, &overrideJSON, &expiresAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(overrideJSON) > 0 {
		var o authz.Override
		if err := json.Unmarshal(overrideJSON, &o); err != nil {
			return nil, fmt.Errorf("decode assignment override: %w", err)
		}
		if !o.IsZero() {
			a.Override = &o
		}
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		a.ExpiresAt = &t
	}
	return &a, nil
}

func marshalOverride(o *authz.Override) (interface{}, error) {
	if o == nil || o.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode assignment override: %w", err)
	}
	return b, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
