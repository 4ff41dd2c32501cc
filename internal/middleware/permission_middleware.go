package middleware

import (
	"context"

	"crm-access/internal/authz"
	"crm-access/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// GuardKey is where the request-scoped authz.Guard lives in fiber Locals.
// Handlers reuse it instead of re-resolving; it never outlives the request.
const GuardKey = "authz_guard"

// PermissionResolver is the slice of the permission service the middleware
// needs. Declared here to keep the route packages free of import cycles.
type PermissionResolver interface {
	GuardForUser(ctx context.Context, userID, tenantID string) (authz.Guard, error)
}

// RequirePermission denies the request unless the caller holds any scope for
// (module, action). Row-level narrowing still happens at the storage boundary;
// this gate only separates Denied from the rest.
//
// Every failure mode denies: missing claims, resolution errors, timeouts. An
// authorization path must never fail open.
func RequirePermission(resolver PermissionResolver, module authz.Module, action authz.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		guard, err := resolver.GuardForUser(c.UserContext(), claims.UserID, claims.TenantID)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: could not resolve permissions",
			})
		}

		if !authz.HasAny(guard.Effective, module, action) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: insufficient permissions for this action",
			})
		}

		c.Locals(GuardKey, guard)
		return c.Next()
	}
}

// GuardFromLocals retrieves the guard stored by RequirePermission.
func GuardFromLocals(c *fiber.Ctx) (authz.Guard, bool) {
	guard, ok := c.Locals(GuardKey).(authz.Guard)
	return guard, ok
}
