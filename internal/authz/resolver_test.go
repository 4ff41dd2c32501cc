package authz

import (
	"reflect"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestResolveDeterministic(t *testing.T) {
	base := PermissionSet{
		Dashboard: true,
		Grants: map[Module]ActionScopes{
			ModuleLeads:    {ActionRead: ScopeAll, ActionCreate: ScopeAll},
			ModulePipeline: {ActionRead: ScopeOwnAssignee},
		},
	}
	override := &Override{
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeOwn},
		},
	}

	first := Resolve(base, override)
	second := Resolve(base, override)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve is not deterministic: %v vs %v", first, second)
	}
}

func TestResolveModuleReplacement(t *testing.T) {
	base := PermissionSet{
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeAll, ActionCreate: ScopeAll},
		},
	}
	override := &Override{
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeOwn},
		},
	}

	effective := Resolve(base, override)

	if got := effective.Scope(ModuleLeads, ActionRead); got != ScopeOwn {
		t.Errorf("leads.read = %q, want %q", got, ScopeOwn)
	}
	// create was omitted from the overridden module: denied, not inherited.
	if got := effective.Scope(ModuleLeads, ActionCreate); got != ScopeDenied {
		t.Errorf("leads.create = %q, want denied", got)
	}
}

func TestResolveModulesAbsentFromOverridePassThrough(t *testing.T) {
	base := PermissionSet{
		Grants: map[Module]ActionScopes{
			ModuleLeads:     {ActionRead: ScopeAll},
			ModuleCustomers: {ActionUpdate: ScopeOwn},
		},
	}
	override := &Override{
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeOwn},
		},
	}

	effective := Resolve(base, override)

	if got := effective.Scope(ModuleCustomers, ActionUpdate); got != ScopeOwn {
		t.Errorf("customers.update = %q, want %q", got, ScopeOwn)
	}
}

func TestResolveEmptyOverriddenModuleDeniesAll(t *testing.T) {
	base := PermissionSet{
		Grants: map[Module]ActionScopes{
			ModuleQuotations: {ActionRead: ScopeAll, ActionDelete: ScopeAll},
		},
	}
	override := &Override{
		Grants: map[Module]ActionScopes{
			ModuleQuotations: {},
		},
	}

	effective := Resolve(base, override)

	for _, a := range Actions {
		if got := effective.Scope(ModuleQuotations, a); got != ScopeDenied {
			t.Errorf("quotations.%s = %q, want denied", a, got)
		}
	}
}

func TestResolveDashboardOverride(t *testing.T) {
	base := PermissionSet{Dashboard: true}

	effective := Resolve(base, &Override{Dashboard: boolPtr(false)})
	if effective.Dashboard {
		t.Error("dashboard override false should disable dashboard.read")
	}

	effective = Resolve(base, &Override{Grants: map[Module]ActionScopes{ModuleLeads: {ActionRead: ScopeOwn}}})
	if !effective.Dashboard {
		t.Error("dashboard absent from override should inherit the base flag")
	}
}

func TestResolveNilOverride(t *testing.T) {
	base := PermissionSet{
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeAll},
		},
	}

	effective := Resolve(base, nil)

	if !reflect.DeepEqual(effective.Grants, base.Grants) {
		t.Errorf("nil override should return the base unchanged, got %v", effective.Grants)
	}

	// The result must not alias the base maps.
	effective.Grants[ModuleLeads][ActionRead] = ScopeOwn
	if base.Grants[ModuleLeads][ActionRead] != ScopeAll {
		t.Error("Resolve result aliases the base permission set")
	}
}

func TestFullAccessCoversEveryModule(t *testing.T) {
	full := FullAccess()

	for _, m := range Modules {
		if m == ModuleDashboard {
			if got := full.Scope(m, ActionRead); got != ScopeAll {
				t.Errorf("dashboard.read = %q, want all", got)
			}
			continue
		}
		for _, a := range Actions {
			if got := full.Scope(m, a); got != ScopeAll {
				t.Errorf("%s.%s = %q, want all", m, a, got)
			}
		}
	}
}
