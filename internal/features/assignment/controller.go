package assignment

import (
	"errors"

	"crm-access/internal/authz"

	"github.com/gofiber/fiber/v2"
)

type AssignmentController struct {
	AssignmentService AssignmentService
}

func NewAssignmentController(assignmentService AssignmentService) *AssignmentController {
	return &AssignmentController{
		AssignmentService: assignmentService,
	}
}

// ListAssignments godoc
// @Summary      List active assignments
// @Tags         assignments
// @Produce      json
// @Success      200 {array} assignment.Assignment
// @Router       /api/assignments [get]
func (ctrl *AssignmentController) ListAssignments(c *fiber.Ctx) error {
	assignments, err := ctrl.AssignmentService.ListActive(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(assignments)
}

// GetAssignment godoc
// @Summary      Get a user's active assignment
// @Tags         assignments
// @Produce      json
// @Param        userId path string true "User ID"
// @Success      200 {object} assignment.Assignment
// @Failure      404 {object} map[string]string
// @Router       /api/assignments/{userId} [get]
func (ctrl *AssignmentController) GetAssignment(c *fiber.Ctx) error {
	a, err := ctrl.AssignmentService.GetActive(c.UserContext(), c.Params("userId"))
	if err != nil {
		return assignmentError(c, err)
	}
	return c.JSON(a)
}

// CreateAssignment godoc
// @Summary      Assign a role to a user
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Param        assignment body assignment.CreateAssignmentRequest true "Assignment"
// @Success      201 {object} assignment.Assignment
// @Failure      409 {object} map[string]string
// @Router       /api/assignments [post]
func (ctrl *AssignmentController) CreateAssignment(c *fiber.Ctx) error {
	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	created, err := ctrl.AssignmentService.Assign(c.UserContext(), req)
	if err != nil {
		return assignmentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ChangeRole godoc
// @Summary      Change the role on a user's active assignment
// @Tags         assignments
// @Accept       json
// @Param        userId path string true "User ID"
// @Param        role body assignment.SetRoleRequest true "Role"
// @Success      200 {object} map[string]string
// @Router       /api/assignments/{userId}/role [put]
func (ctrl *AssignmentController) ChangeRole(c *fiber.Ctx) error {
	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := ctrl.AssignmentService.ChangeRole(c.UserContext(), c.Params("userId"), req.RoleID); err != nil {
		return assignmentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "role updated"})
}

// SetOverride godoc
// @Summary      Replace the per-assignment permission override
// @Description  The override replaces role permissions module by module; a null override clears it
// @Tags         assignments
// @Accept       json
// @Param        userId path string true "User ID"
// @Param        override body assignment.SetOverrideRequest true "Override"
// @Success      200 {object} map[string]string
// @Router       /api/assignments/{userId}/override [put]
func (ctrl *AssignmentController) SetOverride(c *fiber.Ctx) error {
	var req SetOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := ctrl.AssignmentService.SetOverride(c.UserContext(), c.Params("userId"), req.Override); err != nil {
		return assignmentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "override updated"})
}

// RevokeAssignment godoc
// @Summary      Revoke a user's active assignment
// @Tags         assignments
// @Param        userId path string true "User ID"
// @Success      200 {object} map[string]string
// @Router       /api/assignments/{userId} [delete]
func (ctrl *AssignmentController) RevokeAssignment(c *fiber.Ctx) error {
	if err := ctrl.AssignmentService.Revoke(c.UserContext(), c.Params("userId")); err != nil {
		return assignmentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "assignment revoked"})
}

func assignmentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, authz.ErrInvalidConfiguration):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
