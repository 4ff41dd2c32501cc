package permission

import (
	"crm-access/internal/config"
	"crm-access/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PermissionApi struct {
	controller *PermissionController
	config     *config.Config
}

func NewPermissionApi(controller *PermissionController, cfg *config.Config) *PermissionApi {
	return &PermissionApi{
		controller: controller,
		config:     cfg,
	}
}

// Setup registers permission routes. These require only authentication, not a
// module grant: every signed-in user may ask what they are allowed to do.
func (h *PermissionApi) Setup(app *fiber.App) {
	permissions := app.Group("/api/permissions", middleware.AuthMiddleware(h.config.SkipAuth))

	permissions.Get("/me", h.controller.GetMyPermissions)
	permissions.Post("/check", h.controller.CheckAccess)
}
