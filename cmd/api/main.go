package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "crm-access/internal/common/api"
	"crm-access/internal/config"
	"crm-access/internal/database"
	"crm-access/internal/features/assignment"
	"crm-access/internal/features/audit"
	"crm-access/internal/features/auth"
	"crm-access/internal/features/expiry"
	"crm-access/internal/features/permission"
	"crm-access/internal/features/record"
	"crm-access/internal/features/report"
	"crm-access/internal/features/role"
	"crm-access/internal/features/system"
	"crm-access/internal/features/user"
	"crm-access/internal/logger"
	"crm-access/internal/middleware"
	"crm-access/pkg/utils"

	_ "crm-access/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeStorage ensures indexes and relational schema on startup.
func InitializeStorage(
	lc fx.Lifecycle,
	roleRepo role.RoleRepository,
	userRepo user.UserRepository,
	recordRepo record.RecordRepository,
	assignmentRepo assignment.AssignmentRepository,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := roleRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure role indexes: %v", err)
				}
				if err := userRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure user indexes: %v", err)
				}
				if err := recordRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure record indexes: %v", err)
				}
				if err := assignmentRepo.EnsureSchema(ctx); err != nil {
					log.Printf("Failed to ensure assignment schema: %v", err)
				}
			}()
			return nil
		},
	})
}

// @title           CRM Access Control API
// @version         1.0
// @description     Scoped role-based access control for a multi-tenant CRM.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Databases
			database.NewDatabase,
			database.NewPostgres,

			// Initialize Repositories
			audit.NewAuditRepository,
			role.NewRoleRepository,
			assignment.NewAssignmentRepository,
			user.NewUserRepository,
			record.NewRecordRepository,

			// Initialize Services
			audit.NewAuditService,
			role.NewRoleService,
			assignment.NewAssignmentService,
			permission.NewPermissionService,
			user.NewUserService,
			auth.NewAuthService,
			record.NewRecordService,
			report.NewReportService,
			expiry.NewSweeperService,
			system.NewHub,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s permission.PermissionService) middleware.PermissionResolver { return s },
			func(h *system.Hub) role.InvalidationNotifier { return h },
			func(h *system.Hub) assignment.InvalidationNotifier { return h },

			// Initialize Controllers
			auth.NewAuthController,
			role.NewRoleController,
			assignment.NewAssignmentController,
			permission.NewPermissionController,
			user.NewUserController,
			record.NewRecordController,
			audit.NewAuditController,
			report.NewReportController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(role.NewRoleApi),
			AsRoute(assignment.NewAssignmentApi),
			AsRoute(permission.NewPermissionApi),
			AsRoute(user.NewUserApi),
			AsRoute(record.NewRecordApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(report.NewReportApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, sweeper expiry.SweeperService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sweeper.InitializeScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return sweeper.StopScheduler()
					},
				})
			},
			InitializeStorage,
		),
	)

	app.Run()
}
