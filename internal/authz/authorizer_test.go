package authz

import "testing"

func TestCan(t *testing.T) {
	effective := PermissionSet{
		Dashboard: true,
		Grants: map[Module]ActionScopes{
			ModuleLeads:    {ActionRead: ScopeOwn},
			ModuleProducts: {ActionRead: ScopeAll},
			ModulePipeline: {ActionRead: ScopeOwnAssignee},
		},
	}

	tests := []struct {
		name   string
		module Module
		action Action
		record *OwnedRecord
		userID string
		want   bool
	}{
		{
			name:   "own scope matching owner",
			module: ModuleLeads, action: ActionRead,
			record: &OwnedRecord{OwnerID: "U1"}, userID: "U1",
			want: true,
		},
		{
			name:   "own scope different owner",
			module: ModuleLeads, action: ActionRead,
			record: &OwnedRecord{OwnerID: "U1"}, userID: "U2",
			want: false,
		},
		{
			name:   "own scope without record fails closed",
			module: ModuleLeads, action: ActionRead,
			userID: "U1",
			want:   false,
		},
		{
			name:   "own scope without user fails closed",
			module: ModuleLeads, action: ActionRead,
			record: &OwnedRecord{OwnerID: "U1"},
			want:   false,
		},
		{
			name:   "all scope ignores record",
			module: ModuleProducts, action: ActionRead,
			want: true,
		},
		{
			name:   "absent entry is default deny",
			module: ModuleSettings, action: ActionCreate,
			userID: "U1",
			want:   false,
		},
		{
			name:   "assignee scope matching assignee",
			module: ModulePipeline, action: ActionRead,
			record: &OwnedRecord{AssignedTo: "U7"}, userID: "U7",
			want: true,
		},
		{
			name:   "assignee scope other user",
			module: ModulePipeline, action: ActionRead,
			record: &OwnedRecord{AssignedTo: "U7"}, userID: "U8",
			want: false,
		},
		{
			name:   "dashboard boolean allows read",
			module: ModuleDashboard, action: ActionRead,
			want: true,
		},
		{
			name:   "dashboard never allows writes",
			module: ModuleDashboard, action: ActionCreate,
			userID: "U1",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(effective, tt.module, tt.action, tt.record, tt.userID); got != tt.want {
				t.Errorf("Can() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanDeniedForMissingAssignment(t *testing.T) {
	// The empty permission set is what a missing assignment resolves to:
	// every module, every action denied.
	var none PermissionSet
	for _, m := range Modules {
		for _, a := range Actions {
			if Can(none, m, a, &OwnedRecord{OwnerID: "U1"}, "U1") {
				t.Errorf("empty set allowed %s.%s", m, a)
			}
		}
	}
}

func TestHasAny(t *testing.T) {
	effective := PermissionSet{
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeOwn},
		},
	}

	if !HasAny(effective, ModuleLeads, ActionRead) {
		t.Error("own scope should count as granted")
	}
	if HasAny(effective, ModuleLeads, ActionDelete) {
		t.Error("absent action should be denied")
	}
}
