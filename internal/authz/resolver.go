package authz

// Resolve merges a role's base permission set with an assignment's override into
// the effective permission set for one (user, tenant). It is a pure function:
// no I/O, deterministic, and the result never aliases the inputs.
//
// Override replacement is module-granular: a module key present in the override
// replaces the base module's whole action map, so actions omitted from an
// overridden module become Denied rather than inheriting from the base. Modules
// absent from the override pass through unchanged.
func Resolve(base PermissionSet, override *Override) PermissionSet {
	effective := PermissionSet{
		Dashboard: base.Dashboard,
		Grants:    make(map[Module]ActionScopes, len(base.Grants)),
	}
	for m, actions := range base.Grants {
		effective.Grants[m] = cloneActions(actions)
	}

	if override.IsZero() {
		return effective
	}

	if override.Dashboard != nil {
		effective.Dashboard = *override.Dashboard
	}
	for m, actions := range override.Grants {
		if len(actions) == 0 {
			// Overridden module with nothing granted: every action denied.
			delete(effective.Grants, m)
			continue
		}
		effective.Grants[m] = cloneActions(actions)
	}

	return effective
}

// FullAccess is the pseudo permission set behind the legacy unrestricted-access
// flag: All on every module, dashboard included, independent of any role
// definition. Kept as a fixed set so the authorizer and the storage predicates
// need no special-cased branch for legacy users.
func FullAccess() PermissionSet {
	full := PermissionSet{
		Dashboard: true,
		Grants:    make(map[Module]ActionScopes, len(Modules)),
	}
	for _, m := range Modules {
		if m == ModuleDashboard {
			continue
		}
		full.Grants[m] = ActionScopes{
			ActionCreate: ScopeAll,
			ActionRead:   ScopeAll,
			ActionUpdate: ScopeAll,
			ActionDelete: ScopeAll,
		}
	}
	return full
}

func cloneActions(actions ActionScopes) ActionScopes {
	out := make(ActionScopes, len(actions))
	for a, s := range actions {
		out[a] = s
	}
	return out
}
