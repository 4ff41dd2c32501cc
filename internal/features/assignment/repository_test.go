package assignment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// memoryAssignmentStore keeps one active assignment per user/tenant pair,
// mirroring the partial unique index on the real table.
type memoryAssignmentStore struct {
	active      map[string]*Assignment
	createCalls int
	nextID      int64
}

func newMemoryAssignmentStore() *memoryAssignmentStore {
	return &memoryAssignmentStore{active: map[string]*Assignment{}}
}

func storeKey(userID, tenantID string) string {
	return userID + "/" + tenantID
}

func (s *memoryAssignmentStore) FindActive(ctx context.Context, userID, tenantID string) (*Assignment, error) {
	a, ok := s.active[storeKey(userID, tenantID)]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *memoryAssignmentStore) Create(ctx context.Context, a Assignment) (*Assignment, error) {
	s.createCalls++
	key := storeKey(a.UserID, a.TenantID)
	if _, ok := s.active[key]; ok {
		return nil, ErrDuplicate
	}
	s.nextID++
	a.ID = s.nextID
	a.IsActive = true
	s.active[key] = &a
	return &a, nil
}

func TestEnsureAssignedCreatesWhenAbsent(t *testing.T) {
	store := newMemoryAssignmentStore()

	created, err := ensureAssigned(context.Background(), store, Assignment{
		UserID: "u1", TenantID: "t1", RoleID: "r1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.RoleID != "r1" || !created.IsActive {
		t.Errorf("created = %+v, want active r1 assignment", created)
	}
	if len(store.active) != 1 {
		t.Errorf("active rows = %d, want 1", len(store.active))
	}
}

func TestEnsureAssignedIsIdempotent(t *testing.T) {
	store := newMemoryAssignmentStore()
	ctx := context.Background()

	first, err := ensureAssigned(ctx, store, Assignment{UserID: "u1", TenantID: "t1", RoleID: "r1"})
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := ensureAssigned(ctx, store, Assignment{UserID: "u1", TenantID: "t1", RoleID: "r1"})
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second ensure returned row %d, want existing row %d", second.ID, first.ID)
	}
	if store.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", store.createCalls)
	}
	if len(store.active) != 1 {
		t.Errorf("active rows = %d, want exactly 1", len(store.active))
	}
}

func TestEnsureAssignedRejectsRoleConflict(t *testing.T) {
	store := newMemoryAssignmentStore()
	ctx := context.Background()

	if _, err := ensureAssigned(ctx, store, Assignment{UserID: "u1", TenantID: "t1", RoleID: "r1"}); err != nil {
		t.Fatalf("first ensure: %v", err)
	}

	_, err := ensureAssigned(ctx, store, Assignment{UserID: "u1", TenantID: "t1", RoleID: "r2"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want duplicate", err)
	}
	if store.active[storeKey("u1", "t1")].RoleID != "r1" {
		t.Error("existing assignment was replaced")
	}
}

func TestEnsureAssignedScopedPerUserAndTenant(t *testing.T) {
	store := newMemoryAssignmentStore()
	ctx := context.Background()

	pairs := []struct{ user, tenant string }{
		{"u1", "t1"},
		{"u1", "t2"},
		{"u2", "t1"},
	}
	for _, p := range pairs {
		if _, err := ensureAssigned(ctx, store, Assignment{UserID: p.user, TenantID: p.tenant, RoleID: "r1"}); err != nil {
			t.Fatalf("ensure %s/%s: %v", p.user, p.tenant, err)
		}
	}
	if len(store.active) != len(pairs) {
		t.Errorf("active rows = %d, want %d", len(store.active), len(pairs))
	}
}

// failingStore simulates a lookup that misses just before a concurrent insert
// lands, so Create hits the unique index.
type failingStore struct {
	createErr error
}

func (s *failingStore) FindActive(ctx context.Context, userID, tenantID string) (*Assignment, error) {
	return nil, ErrNotFound
}

func (s *failingStore) Create(ctx context.Context, a Assignment) (*Assignment, error) {
	return nil, s.createErr
}

func TestEnsureAssignedSurfacesCreateConflict(t *testing.T) {
	store := &failingStore{createErr: ErrDuplicate}

	_, err := ensureAssigned(context.Background(), store, Assignment{UserID: "u1", TenantID: "t1", RoleID: "r1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want duplicate", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert assignment: %w", &pq.Error{Code: "23505"}), true},
		{"foreign key violation", &pq.Error{Code: "23503"}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
