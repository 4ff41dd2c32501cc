package authz

import (
	"math/rand"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestGuardFilter(t *testing.T) {
	guard := Guard{
		Effective: PermissionSet{
			Grants: map[Module]ActionScopes{
				ModuleLeads:    {ActionRead: ScopeOwn},
				ModuleProducts: {ActionRead: ScopeAll},
				ModulePipeline: {ActionRead: ScopeOwnAssignee},
			},
		},
		UserID: "U7",
	}

	tests := []struct {
		name   string
		module Module
		action Action
		want   bson.M
	}{
		{"all is unfiltered", ModuleProducts, ActionRead, bson.M{}},
		{"own filters on owner", ModuleLeads, ActionRead, bson.M{"owner_id": "U7"}},
		{"assignee filters on assigned_to", ModulePipeline, ActionRead, bson.M{"assigned_to": "U7"}},
		{"denied matches nothing", ModuleSettings, ActionRead, bson.M{"_id": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guard.Filter(tt.module, tt.action); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGuardSQLPredicate(t *testing.T) {
	guard := Guard{
		Effective: PermissionSet{
			Grants: map[Module]ActionScopes{
				ModuleLeads:    {ActionRead: ScopeOwn},
				ModuleProducts: {ActionRead: ScopeAll},
			},
		},
		UserID: "U7",
	}

	clause, args := guard.SQLPredicate(ModuleProducts, ActionRead, 3)
	if clause != "TRUE" || args != nil {
		t.Errorf("all scope: got %q %v", clause, args)
	}

	clause, args = guard.SQLPredicate(ModuleLeads, ActionRead, 3)
	if clause != "owner_id = $3" || len(args) != 1 || args[0] != "U7" {
		t.Errorf("own scope: got %q %v", clause, args)
	}

	clause, args = guard.SQLPredicate(ModuleSettings, ActionRead, 1)
	if clause != "FALSE" || args != nil {
		t.Errorf("denied scope: got %q %v", clause, args)
	}
}

func TestGuardAllow(t *testing.T) {
	guard := Guard{
		Effective: PermissionSet{
			Grants: map[Module]ActionScopes{
				ModuleLeads: {ActionUpdate: ScopeOwn},
			},
		},
		UserID: "U1",
	}

	if err := guard.Allow(ModuleLeads, ActionUpdate, &OwnedRecord{OwnerID: "U1"}); err != nil {
		t.Errorf("owned row should pass the write guard: %v", err)
	}
	if err := guard.Allow(ModuleLeads, ActionUpdate, &OwnedRecord{OwnerID: "U2"}); err != ErrForbidden {
		t.Errorf("foreign row should be forbidden, got %v", err)
	}
	if err := guard.Allow(ModuleLeads, ActionDelete, &OwnedRecord{OwnerID: "U1"}); err != ErrForbidden {
		t.Errorf("denied action should be forbidden, got %v", err)
	}
}

// matchesFilter mirrors how Mongo would evaluate the three filter shapes the
// guard can emit against a record's ownership fields.
func matchesFilter(filter bson.M, rec OwnedRecord) bool {
	if len(filter) == 0 {
		return true
	}
	if _, denied := filter["_id"]; denied {
		return false
	}
	for field, want := range filter {
		if rec.field(field) != want {
			return false
		}
	}
	return true
}

// matchesSQL mirrors evaluation of the SQL predicate fragment.
func matchesSQL(clause string, args []interface{}, rec OwnedRecord) bool {
	switch clause {
	case "TRUE":
		return true
	case "FALSE":
		return false
	case "owner_id = $1":
		return rec.OwnerID == args[0]
	case "assigned_to = $1":
		return rec.AssignedTo == args[0]
	}
	return false
}

// The authorizer and both storage predicates must agree on allow/deny for any
// combination of role, override, record, and user.
func TestAuthorizerAndEnforcerAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	scopes := []Scope{ScopeAll, ScopeOwn, ScopeOwnAssignee, ScopeDenied}
	users := []string{"U1", "U2", "U3"}

	randomActions := func() ActionScopes {
		actions := make(ActionScopes)
		for _, a := range Actions {
			if s := scopes[rng.Intn(len(scopes))]; s != ScopeDenied {
				actions[a] = s
			}
		}
		return actions
	}

	for i := 0; i < 2000; i++ {
		base := PermissionSet{Dashboard: rng.Intn(2) == 0, Grants: make(map[Module]ActionScopes)}
		var override *Override
		if rng.Intn(2) == 0 {
			override = &Override{Grants: make(map[Module]ActionScopes)}
		}
		for _, m := range Modules {
			if m == ModuleDashboard {
				continue
			}
			if rng.Intn(3) > 0 {
				base.Grants[m] = randomActions()
			}
			if override != nil && rng.Intn(3) == 0 {
				override.Grants[m] = randomActions()
			}
		}

		effective := Resolve(base, override)
		userID := users[rng.Intn(len(users))]
		record := OwnedRecord{
			OwnerID:    users[rng.Intn(len(users))],
			AssignedTo: users[rng.Intn(len(users))],
		}
		m := Modules[rng.Intn(len(Modules))]
		a := Actions[rng.Intn(len(Actions))]

		allowed := Can(effective, m, a, &record, userID)

		guard := Guard{Effective: effective, UserID: userID}
		if got := matchesFilter(guard.Filter(m, a), record); got != allowed {
			t.Fatalf("iteration %d: Can()=%v but Mongo filter match=%v for %s.%s scope=%q user=%s record=%+v",
				i, allowed, got, m, a, effective.Scope(m, a), userID, record)
		}
		clause, args := guard.SQLPredicate(m, a, 1)
		if got := matchesSQL(clause, args, record); got != allowed {
			t.Fatalf("iteration %d: Can()=%v but SQL predicate match=%v for %s.%s scope=%q user=%s record=%+v",
				i, allowed, got, m, a, effective.Scope(m, a), userID, record)
		}
	}
}
