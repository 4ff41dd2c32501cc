package audit

import (
	"crm-access/internal/authz"
	"crm-access/internal/config"
	"crm-access/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
	resolver   middleware.PermissionResolver
}

func NewAuditApi(controller *AuditController, cfg *config.Config, resolver middleware.PermissionResolver) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     cfg,
		resolver:   resolver,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	logs := app.Group("/api/audit", middleware.AuthMiddleware(h.config.SkipAuth))

	logs.Get("/", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.ListLogs)
}
