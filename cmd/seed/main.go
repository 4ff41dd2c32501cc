package main

import (
	"context"
	"log"
	"time"

	"crm-access/internal/authz"
	common_models "crm-access/internal/common/models"
	"crm-access/internal/config"
	"crm-access/internal/database"
	"crm-access/internal/features/assignment"
	"crm-access/internal/features/record"
	"crm-access/internal/features/role"
	"crm-access/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app := fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			database.NewDatabase,
			database.NewPostgres,
			role.NewRoleRepository,
			user.NewUserRepository,
			record.NewRecordRepository,
			assignment.NewAssignmentRepository,
		),
		fx.Invoke(seed),
	)

	app.Run()
}

func seed(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	roleRepo role.RoleRepository,
	userRepo user.UserRepository,
	recordRepo record.RecordRepository,
	assignmentRepo assignment.AssignmentRepository,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				runSeed(roleRepo, userRepo, recordRepo, assignmentRepo)
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

func allScopes() authz.ActionScopes {
	return authz.ActionScopes{
		authz.ActionCreate: authz.ScopeAll,
		authz.ActionRead:   authz.ScopeAll,
		authz.ActionUpdate: authz.ScopeAll,
		authz.ActionDelete: authz.ScopeAll,
	}
}

func systemRoles() map[string]role.UpsertRoleRequest {
	adminGrants := make(map[authz.Module]authz.ActionScopes)
	for _, m := range authz.Modules {
		if m == authz.ModuleDashboard {
			continue
		}
		adminGrants[m] = allScopes()
	}

	return map[string]role.UpsertRoleRequest{
		"Administrator": {
			Description: "Full access to every module",
			Permissions: authz.PermissionSet{Dashboard: true, Grants: adminGrants},
			IsSystem:    true,
		},
		"Sales Rep": {
			Description: "Works own leads and customers, sees own deals in the pipeline",
			Permissions: authz.PermissionSet{
				Dashboard: true,
				Grants: map[authz.Module]authz.ActionScopes{
					authz.ModuleCustomers: {
						authz.ActionCreate: authz.ScopeOwn,
						authz.ActionRead:   authz.ScopeAll,
						authz.ActionUpdate: authz.ScopeOwn,
					},
					authz.ModuleLeads: {
						authz.ActionCreate: authz.ScopeOwn,
						authz.ActionRead:   authz.ScopeOwn,
						authz.ActionUpdate: authz.ScopeOwn,
						authz.ActionDelete: authz.ScopeOwn,
					},
					authz.ModulePipeline: {
						authz.ActionRead:   authz.ScopeOwnAssignee,
						authz.ActionUpdate: authz.ScopeOwnAssignee,
					},
					authz.ModuleActivities: {
						authz.ActionCreate: authz.ScopeOwn,
						authz.ActionRead:   authz.ScopeOwn,
						authz.ActionUpdate: authz.ScopeOwn,
					},
					authz.ModuleProducts: {
						authz.ActionRead: authz.ScopeAll,
					},
					authz.ModuleQuotations: {
						authz.ActionCreate: authz.ScopeOwn,
						authz.ActionRead:   authz.ScopeOwn,
						authz.ActionUpdate: authz.ScopeOwn,
					},
				},
			},
			IsSystem: true,
		},
		"Support Agent": {
			Description: "Handles activities and customer records",
			Permissions: authz.PermissionSet{
				Dashboard: true,
				Grants: map[authz.Module]authz.ActionScopes{
					authz.ModuleCustomers: {
						authz.ActionRead:   authz.ScopeAll,
						authz.ActionUpdate: authz.ScopeAll,
					},
					authz.ModuleActivities: {
						authz.ActionCreate: authz.ScopeAll,
						authz.ActionRead:   authz.ScopeAll,
						authz.ActionUpdate: authz.ScopeOwn,
					},
					authz.ModuleTemplates: {
						authz.ActionRead: authz.ScopeAll,
					},
				},
			},
			IsSystem: true,
		},
		"Read Only": {
			Description: "Read everything, change nothing",
			Permissions: authz.PermissionSet{
				Dashboard: true,
				Grants: map[authz.Module]authz.ActionScopes{
					authz.ModuleCustomers:  {authz.ActionRead: authz.ScopeAll},
					authz.ModuleLeads:      {authz.ActionRead: authz.ScopeAll},
					authz.ModuleActivities: {authz.ActionRead: authz.ScopeAll},
					authz.ModuleProducts:   {authz.ActionRead: authz.ScopeAll},
					authz.ModulePipeline:   {authz.ActionRead: authz.ScopeAll},
					authz.ModuleQuotations: {authz.ActionRead: authz.ScopeAll},
				},
			},
			IsSystem: true,
		},
	}
}

func runSeed(
	roleRepo role.RoleRepository,
	userRepo user.UserRepository,
	recordRepo record.RecordRepository,
	assignmentRepo assignment.AssignmentRepository,
) {
	ctx := context.Background()

	log.Println("Starting database seeding...")

	if err := assignmentRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure assignment schema: %v", err)
	}

	tenantID := primitive.NewObjectID()
	tenantCtx := context.WithValue(ctx, common_models.TenantIDKey, tenantID.Hex())
	log.Printf("Seeding tenant %s", tenantID.Hex())

	if err := roleRepo.EnsureIndexes(tenantCtx); err != nil {
		log.Printf("Warning: failed to ensure role indexes: %v", err)
	}
	if err := userRepo.EnsureIndexes(tenantCtx); err != nil {
		log.Printf("Warning: failed to ensure user indexes: %v", err)
	}
	if err := recordRepo.EnsureIndexes(tenantCtx); err != nil {
		log.Printf("Warning: failed to ensure record indexes: %v", err)
	}

	// 1. System roles
	roleIDs := make(map[string]string)
	for name, req := range systemRoles() {
		r, err := roleRepo.Upsert(tenantCtx, name, req)
		if err != nil {
			log.Fatalf("Failed to seed role %q: %v", name, err)
		}
		roleIDs[name] = r.ID.Hex()
		log.Printf("Seeded role %q", name)
	}

	// 2. Demo users
	users := []struct {
		name, email, roleName string
		fullAccess            bool
	}{
		{"Ava Admin", "ava@example.com", "Administrator", false},
		{"Sam Seller", "sam@example.com", "Sales Rep", false},
		{"Olivia Ops", "olivia@example.com", "Support Agent", false},
		{"Root", "root@example.com", "Administrator", true},
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	userIDs := make(map[string]string)
	now := time.Now()

	for _, u := range users {
		doc := &user.User{
			ID:           primitive.NewObjectID(),
			Name:         u.name,
			Email:        u.email,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := userRepo.Create(tenantCtx, doc); err != nil {
			log.Printf("Warning: failed to seed user %q (may already exist): %v", u.email, err)
			continue
		}
		userIDs[u.name] = doc.ID.Hex()
		log.Printf("Seeded user %q", u.email)
	}

	// 3. Assignments
	for _, u := range users {
		uid, ok := userIDs[u.name]
		if !ok {
			continue
		}
		_, err := assignmentRepo.Ensure(ctx, assignment.Assignment{
			UserID:        uid,
			TenantID:      tenantID.Hex(),
			RoleID:        roleIDs[u.roleName],
			HasFullAccess: u.fullAccess,
		})
		if err != nil {
			log.Printf("Warning: failed to assign %q to %q: %v", u.roleName, u.name, err)
		}
	}

	// 4. Demo records
	samID := userIDs["Sam Seller"]
	oliviaID := userIDs["Olivia Ops"]
	demo := []*record.Record{
		{Module: authz.ModuleLeads, OwnerID: samID, CreatedBy: samID,
			Data: map[string]interface{}{"title": "Acme renewal", "value": 12000}},
		{Module: authz.ModuleLeads, OwnerID: oliviaID, CreatedBy: oliviaID,
			Data: map[string]interface{}{"title": "Globex onboarding", "value": 4500}},
		{Module: authz.ModulePipeline, OwnerID: oliviaID, AssignedTo: samID, CreatedBy: oliviaID,
			Data: map[string]interface{}{"stage": "negotiation", "deal": "Acme renewal"}},
		{Module: authz.ModuleCustomers, OwnerID: samID, CreatedBy: samID,
			Data: map[string]interface{}{"name": "Acme Corp", "country": "DE"}},
	}
	for _, rec := range demo {
		rec.ID = primitive.NewObjectID()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := recordRepo.Insert(tenantCtx, rec); err != nil {
			log.Printf("Warning: failed to seed %s record: %v", rec.Module, err)
		}
	}

	log.Println("Seeding complete")
}
