package role

import (
	"errors"

	"crm-access/internal/authz"

	"github.com/gofiber/fiber/v2"
)

type RoleController struct {
	RoleService RoleService
}

func NewRoleController(roleService RoleService) *RoleController {
	return &RoleController{
		RoleService: roleService,
	}
}

// ListRoles godoc
// @Summary      List roles
// @Description  List the tenant's roles ordered by name
// @Tags         roles
// @Produce      json
// @Success      200  {array} Role
// @Failure      500  {string} string "Failed to list roles"
// @Router       /api/roles [get]
func (ctrl *RoleController) ListRoles(c *fiber.Ctx) error {
	roles, err := ctrl.RoleService.ListRoles(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(roles)
}

// GetRole godoc
// @Summary      Get a role by name
// @Tags         roles
// @Produce      json
// @Param        name path string true "Role name"
// @Success      200  {object} Role
// @Failure      404  {string} string "Role not found"
// @Router       /api/roles/{name} [get]
func (ctrl *RoleController) GetRole(c *fiber.Ctx) error {
	role, err := ctrl.RoleService.GetRole(c.UserContext(), c.Params("name"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(role)
}

// UpsertRole godoc
// @Summary      Create or fully overwrite a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        name path string true "Role name"
// @Param        role body UpsertRoleRequest true "Role payload"
// @Success      200  {object} Role
// @Failure      400  {string} string "Invalid request body or permission configuration"
// @Router       /api/roles/{name} [put]
func (ctrl *RoleController) UpsertRole(c *fiber.Ctx) error {
	var req UpsertRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	role, err := ctrl.RoleService.UpsertRole(c.UserContext(), c.Params("name"), req)
	if err != nil {
		if errors.Is(err, authz.ErrInvalidConfiguration) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(role)
}

// DeleteRole godoc
// @Summary      Delete a role
// @Tags         roles
// @Produce      json
// @Param        name path string true "Role name"
// @Success      200  {object} map[string]string
// @Failure      404  {string} string "Role not found"
// @Router       /api/roles/{name} [delete]
func (ctrl *RoleController) DeleteRole(c *fiber.Ctx) error {
	if err := ctrl.RoleService.DeleteRole(c.UserContext(), c.Params("name")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Role not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Role deleted successfully",
	})
}
