package permission

import (
	"crm-access/internal/authz"
	"crm-access/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PermissionController struct {
	PermissionService PermissionService
}

func NewPermissionController(permissionService PermissionService) *PermissionController {
	return &PermissionController{
		PermissionService: permissionService,
	}
}

type checkRequest struct {
	Module string             `json:"module"`
	Action string             `json:"action"`
	Record *authz.OwnedRecord `json:"record,omitempty"`
}

// GetMyPermissions godoc
// @Summary      Effective permissions for the caller
// @Description  The merged role-plus-override permission set for the authenticated user
// @Tags         permissions
// @Produce      json
// @Success      200 {object} authz.PermissionSet
// @Router       /api/permissions/me [get]
func (ctrl *PermissionController) GetMyPermissions(c *fiber.Ctx) error {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	effective, err := ctrl.PermissionService.ResolveForUser(c.UserContext(), claims.UserID, claims.TenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(effective)
}

// CheckAccess godoc
// @Summary      Evaluate a single permission question
// @Description  Answers whether the caller may perform an action, optionally against a concrete record's ownership fields
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        check body permission.checkRequest true "Check"
// @Success      200 {object} map[string]bool
// @Router       /api/permissions/check [post]
func (ctrl *PermissionController) CheckAccess(c *fiber.Ctx) error {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	allowed, err := ctrl.PermissionService.CheckAccess(c.UserContext(),
		claims.UserID, claims.TenantID,
		authz.Module(req.Module), authz.Action(req.Action), req.Record)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"allowed": allowed})
}
