package user

import (
	"crm-access/internal/authz"
	"crm-access/internal/config"
	"crm-access/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
	resolver   middleware.PermissionResolver
}

func NewUserApi(controller *UserController, cfg *config.Config, resolver middleware.PermissionResolver) *UserApi {
	return &UserApi{
		controller: controller,
		config:     cfg,
		resolver:   resolver,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	users := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))

	users.Get("/", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.ListUsers)
	users.Get("/:id", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.GetUser)
	users.Post("/", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionCreate), h.controller.CreateUser)
}
