package record

import (
	"errors"

	"crm-access/internal/authz"
	"crm-access/internal/middleware"
	"crm-access/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RecordController resolves the caller's guard per request: the module is a
// path parameter, so the static route-level permission middleware cannot be
// used here.
type RecordController struct {
	RecordService RecordService
	Resolver      middleware.PermissionResolver
}

func NewRecordController(recordService RecordService, resolver middleware.PermissionResolver) *RecordController {
	return &RecordController{
		RecordService: recordService,
		Resolver:      resolver,
	}
}

func (ctrl *RecordController) guardFor(c *fiber.Ctx, module authz.Module, action authz.Action) (authz.Guard, bool) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return authz.Guard{}, false
	}
	guard, err := ctrl.Resolver.GuardForUser(c.UserContext(), claims.UserID, claims.TenantID)
	if err != nil {
		return authz.Guard{}, false
	}
	if !authz.HasAny(guard.Effective, module, action) {
		return authz.Guard{}, false
	}
	return guard, true
}

func recordError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, authz.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func deny(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "Access denied: insufficient permissions for this action",
	})
}

// ListRecords godoc
// @Summary      List records visible to the caller
// @Description  Applies the caller's row-visibility filter; rows outside scope are never returned
// @Tags         records
// @Produce      json
// @Param        module path string true "Module"
// @Success      200 {array} record.Record
// @Router       /api/records/{module} [get]
func (ctrl *RecordController) ListRecords(c *fiber.Ctx) error {
	module := authz.Module(c.Params("module"))
	if !ValidRecordModule(module) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown module"})
	}

	guard, ok := ctrl.guardFor(c, module, authz.ActionRead)
	if !ok {
		return deny(c)
	}

	records, err := ctrl.RecordService.ListRecords(c.UserContext(), guard, module)
	if err != nil {
		return recordError(c, err)
	}
	return c.JSON(records)
}

// GetRecord godoc
// @Summary      Get a record
// @Tags         records
// @Produce      json
// @Param        module path string true "Module"
// @Param        id path string true "Record ID"
// @Success      200 {object} record.Record
// @Failure      404 {object} map[string]string
// @Router       /api/records/{module}/{id} [get]
func (ctrl *RecordController) GetRecord(c *fiber.Ctx) error {
	module := authz.Module(c.Params("module"))
	if !ValidRecordModule(module) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown module"})
	}

	guard, ok := ctrl.guardFor(c, module, authz.ActionRead)
	if !ok {
		return deny(c)
	}

	rec, err := ctrl.RecordService.GetRecord(c.UserContext(), guard, module, c.Params("id"))
	if err != nil {
		return recordError(c, err)
	}
	return c.JSON(rec)
}

// CreateRecord godoc
// @Summary      Create a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Param        module path string true "Module"
// @Param        record body record.UpsertRecordRequest true "Record"
// @Success      201 {object} record.Record
// @Router       /api/records/{module} [post]
func (ctrl *RecordController) CreateRecord(c *fiber.Ctx) error {
	module := authz.Module(c.Params("module"))
	if !ValidRecordModule(module) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown module"})
	}

	guard, ok := ctrl.guardFor(c, module, authz.ActionCreate)
	if !ok {
		return deny(c)
	}

	var req UpsertRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	rec, err := ctrl.RecordService.CreateRecord(c.UserContext(), guard, module, req)
	if err != nil {
		return recordError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// UpdateRecord godoc
// @Summary      Update a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Param        module path string true "Module"
// @Param        id path string true "Record ID"
// @Param        record body record.UpsertRecordRequest true "Record"
// @Success      200 {object} record.Record
// @Router       /api/records/{module}/{id} [put]
func (ctrl *RecordController) UpdateRecord(c *fiber.Ctx) error {
	module := authz.Module(c.Params("module"))
	if !ValidRecordModule(module) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown module"})
	}

	guard, ok := ctrl.guardFor(c, module, authz.ActionUpdate)
	if !ok {
		return deny(c)
	}

	var req UpsertRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	rec, err := ctrl.RecordService.UpdateRecord(c.UserContext(), guard, module, c.Params("id"), req)
	if err != nil {
		return recordError(c, err)
	}
	return c.JSON(rec)
}

// DeleteRecord godoc
// @Summary      Delete a record
// @Tags         records
// @Param        module path string true "Module"
// @Param        id path string true "Record ID"
// @Success      200 {object} map[string]string
// @Router       /api/records/{module}/{id} [delete]
func (ctrl *RecordController) DeleteRecord(c *fiber.Ctx) error {
	module := authz.Module(c.Params("module"))
	if !ValidRecordModule(module) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown module"})
	}

	guard, ok := ctrl.guardFor(c, module, authz.ActionDelete)
	if !ok {
		return deny(c)
	}

	if err := ctrl.RecordService.DeleteRecord(c.UserContext(), guard, module, c.Params("id")); err != nil {
		return recordError(c, err)
	}
	return c.JSON(fiber.Map{"message": "record deleted"})
}
