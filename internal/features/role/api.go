package role

import (
	"crm-access/internal/authz"
	"crm-access/internal/config"
	"crm-access/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoleApi struct {
	controller *RoleController
	config     *config.Config
	resolver   middleware.PermissionResolver
}

func NewRoleApi(controller *RoleController, cfg *config.Config, resolver middleware.PermissionResolver) *RoleApi {
	return &RoleApi{
		controller: controller,
		config:     cfg,
		resolver:   resolver,
	}
}

// Setup registers role routes. Role administration is part of the settings
// module in the permission vocabulary.
func (h *RoleApi) Setup(app *fiber.App) {
	roles := app.Group("/api/roles", middleware.AuthMiddleware(h.config.SkipAuth))

	roles.Get("/", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.ListRoles)
	roles.Get("/:name", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.GetRole)
	roles.Put("/:name", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionUpdate), h.controller.UpsertRole)
	roles.Delete("/:name", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionDelete), h.controller.DeleteRole)
}
