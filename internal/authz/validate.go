package authz

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a role or override grants a scope a
// module cannot support. Caught at write time so query-time evaluation never
// sees an unsatisfiable scope.
var ErrInvalidConfiguration = errors.New("invalid permission configuration")

// ownableModules are the modules whose records carry owner_id / assigned_to.
// Catalog and configuration modules support only All or Denied.
var ownableModules = map[Module]bool{
	ModuleCustomers:           true,
	ModuleLeads:               true,
	ModuleActivities:          true,
	ModulePipeline:            true,
	ModuleQuotations:          true,
	ModulePaymentVerification: true,
}

func ModuleIsOwnable(m Module) bool {
	return ownableModules[m]
}

// ValidatePermissionSet checks a role's base permission set before it is written.
func ValidatePermissionSet(p PermissionSet) error {
	return validateGrants(p.Grants)
}

// ValidateOverride checks an assignment override before it is written.
func ValidateOverride(o Override) error {
	return validateGrants(o.Grants)
}

func validateGrants(grants map[Module]ActionScopes) error {
	for m, actions := range grants {
		if !m.Valid() {
			return fmt.Errorf("%w: unknown module %q", ErrInvalidConfiguration, m)
		}
		if m == ModuleDashboard {
			return fmt.Errorf("%w: dashboard only supports the boolean read flag", ErrInvalidConfiguration)
		}
		for a, s := range actions {
			if !a.Valid() {
				return fmt.Errorf("%w: unknown action %q on module %q", ErrInvalidConfiguration, a, m)
			}
			switch s {
			case ScopeAll, ScopeDenied:
			case ScopeOwn, ScopeOwnAssignee:
				if !ModuleIsOwnable(m) {
					return fmt.Errorf("%w: module %q has no ownership attribute, scope %q is unsatisfiable", ErrInvalidConfiguration, m, s)
				}
			default:
				return fmt.Errorf("%w: unknown scope %q on %s.%s", ErrInvalidConfiguration, s, m, a)
			}
		}
	}
	return nil
}
