package report

import (
	"crm-access/internal/authz"
	"crm-access/internal/config"
	"crm-access/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
	resolver   middleware.PermissionResolver
}

func NewReportApi(controller *ReportController, cfg *config.Config, resolver middleware.PermissionResolver) *ReportApi {
	return &ReportApi{
		controller: controller,
		config:     cfg,
		resolver:   resolver,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	reports := app.Group("/api/reports", middleware.AuthMiddleware(h.config.SkipAuth))

	reports.Get("/access-matrix", middleware.RequirePermission(h.resolver, authz.ModuleSettings, authz.ActionRead), h.controller.AccessMatrix)
}
