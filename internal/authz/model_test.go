package authz

import (
	"encoding/json"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestScopeLookupIsTotal(t *testing.T) {
	p := PermissionSet{
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeOwn},
		},
	}

	if got := p.Scope(ModuleLeads, ActionRead); got != ScopeOwn {
		t.Errorf("leads.read = %q, want own", got)
	}
	if got := p.Scope(ModuleLeads, ActionDelete); got != ScopeDenied {
		t.Errorf("absent action = %q, want denied", got)
	}
	if got := p.Scope(ModuleSettings, ActionRead); got != ScopeDenied {
		t.Errorf("absent module = %q, want denied", got)
	}
	if got := p.Scope(Module("invoices"), ActionRead); got != ScopeDenied {
		t.Errorf("unknown module = %q, want denied", got)
	}
}

func TestPermissionSetDocumentShape(t *testing.T) {
	p := PermissionSet{
		Dashboard: true,
		Grants: map[Module]ActionScopes{
			ModuleLeads:    {ActionRead: ScopeOwn, ActionDelete: ScopeDenied},
			ModulePipeline: {ActionRead: ScopeOwnAssignee},
		},
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc map[string]map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v, ok := doc["dashboard"]["read"].(bool); !ok || !v {
		t.Errorf("dashboard.read should serialize as boolean true, got %v", doc["dashboard"])
	}
	if v := doc["leads"]["read"]; v != "own" {
		t.Errorf("leads.read token = %v, want \"own\"", v)
	}
	if v := doc["pipeline"]["read"]; v != "ownDeals" {
		t.Errorf("pipeline.read token = %v, want \"ownDeals\"", v)
	}
	// Denied entries are encoded by absence.
	if _, present := doc["leads"]["delete"]; present {
		t.Error("denied action should be absent from the document")
	}
}

func TestPermissionSetBSONRoundTrip(t *testing.T) {
	p := PermissionSet{
		Dashboard: true,
		Grants: map[Module]ActionScopes{
			ModuleLeads: {ActionRead: ScopeOwn, ActionCreate: ScopeAll},
		},
	}

	raw, err := bson.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back PermissionSet
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !back.Dashboard {
		t.Error("dashboard flag lost in round trip")
	}
	if got := back.Scope(ModuleLeads, ActionRead); got != ScopeOwn {
		t.Errorf("leads.read = %q after round trip, want own", got)
	}
	if got := back.Scope(ModuleLeads, ActionCreate); got != ScopeAll {
		t.Errorf("leads.create = %q after round trip, want all", got)
	}
}

func TestParseToleratesLegacyBooleans(t *testing.T) {
	// The loosely-typed legacy documents sometimes carry bare booleans
	// instead of scope tokens.
	raw := []byte(`{"leads":{"read":true,"create":false},"dashboard":{"read":true}}`)

	var p PermissionSet
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := p.Scope(ModuleLeads, ActionRead); got != ScopeAll {
		t.Errorf("legacy true = %q, want all", got)
	}
	if got := p.Scope(ModuleLeads, ActionCreate); got != ScopeDenied {
		t.Errorf("legacy false = %q, want denied", got)
	}
	if !p.Dashboard {
		t.Error("dashboard.read true should set the flag")
	}
}

func TestValidatePermissionSet(t *testing.T) {
	tests := []struct {
		name    string
		grants  map[Module]ActionScopes
		wantErr bool
	}{
		{
			name:   "ownable module with own scope",
			grants: map[Module]ActionScopes{ModuleLeads: {ActionRead: ScopeOwn}},
		},
		{
			name:   "catalog module with all scope",
			grants: map[Module]ActionScopes{ModuleProducts: {ActionRead: ScopeAll}},
		},
		{
			name:    "catalog module with own scope",
			grants:  map[Module]ActionScopes{ModuleProducts: {ActionRead: ScopeOwn}},
			wantErr: true,
		},
		{
			name:    "catalog module with assignee scope",
			grants:  map[Module]ActionScopes{ModuleTemplates: {ActionUpdate: ScopeOwnAssignee}},
			wantErr: true,
		},
		{
			name:    "unknown module",
			grants:  map[Module]ActionScopes{Module("invoices"): {ActionRead: ScopeAll}},
			wantErr: true,
		},
		{
			name:    "unknown action",
			grants:  map[Module]ActionScopes{ModuleLeads: {Action("approve"): ScopeAll}},
			wantErr: true,
		},
		{
			name:    "unknown scope token",
			grants:  map[Module]ActionScopes{ModuleLeads: {ActionRead: Scope("team")}},
			wantErr: true,
		},
		{
			name:    "dashboard in grants",
			grants:  map[Module]ActionScopes{ModuleDashboard: {ActionRead: ScopeAll}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePermissionSet(PermissionSet{Grants: tt.grants})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePermissionSet() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("error should wrap ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}
