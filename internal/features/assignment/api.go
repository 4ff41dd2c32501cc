package assignment

import (
	"crm-access/internal/authz"
	"crm-access/internal/config"
	"crm-access/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AssignmentApi struct {
	controller *AssignmentController
	config     *config.Config
	resolver   middleware.PermissionResolver
}

func NewAssignmentApi(controller *AssignmentController, cfg *config.Config, resolver middleware.PermissionResolver) *AssignmentApi {
	return &AssignmentApi{
		controller: controller,
		config:     cfg,
		resolver:   resolver,
	}
}

func (h *AssignmentApi) Setup(app *fiber.App) {
	assignments := app.Group("/api/assignments", middleware.AuthMiddleware(h.config.SkipAuth))

	assignments.Get("/", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.ListAssignments)
	assignments.Get("/:userId", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.GetAssignment)
	assignments.Post("/", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionCreate), h.controller.CreateAssignment)
	assignments.Put("/:userId/role", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionUpdate), h.controller.ChangeRole)
	assignments.Put("/:userId/override", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionUpdate), h.controller.SetOverride)
	assignments.Delete("/:userId", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionDelete), h.controller.RevokeAssignment)
}
