package authz

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
)

// Module is a named resource category that permissions are scoped to.
// The vocabulary is closed: unknown module names never grant access.
type Module string

const (
	ModuleDashboard           Module = "dashboard"
	ModuleCustomers           Module = "customers"
	ModuleLeads               Module = "leads"
	ModuleActivities          Module = "activities"
	ModuleProducts            Module = "products"
	ModulePipeline            Module = "pipeline"
	ModuleEventTypes          Module = "event_types"
	ModuleQuotations          Module = "quotations"
	ModulePaymentVerification Module = "payment_verification"
	ModuleTemplates           Module = "templates"
	ModuleSettings            Module = "settings"
)

// Modules lists the full vocabulary in stable order.
var Modules = []Module{
	ModuleDashboard,
	ModuleCustomers,
	ModuleLeads,
	ModuleActivities,
	ModuleProducts,
	ModulePipeline,
	ModuleEventTypes,
	ModuleQuotations,
	ModulePaymentVerification,
	ModuleTemplates,
	ModuleSettings,
}

func (m Module) Valid() bool {
	for _, known := range Modules {
		if m == known {
			return true
		}
	}
	return false
}

// Action is one of the CRUD operations.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var Actions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Scope is the breadth of access for one (module, action). The zero value is
// Denied, so a lookup that finds nothing denies by construction.
type Scope string

const (
	ScopeAll         Scope = "all"
	ScopeOwn         Scope = "own"
	ScopeOwnAssignee Scope = "ownDeals"
	ScopeDenied      Scope = ""
)

// ActionScopes maps CRUD actions to their granted scope. Absent actions are Denied.
type ActionScopes map[Action]Scope

// PermissionSet is the permission matrix of a role, or the resolved effective
// matrix of one (user, tenant). Dashboard carries the legacy boolean form of
// dashboard.read; all other modules live in Grants. Any (module, action) pair
// absent from the set resolves to Denied.
type PermissionSet struct {
	Dashboard bool
	Grants    map[Module]ActionScopes
}

// Scope returns the concrete scope for (module, action). The result is total:
// unknown modules, unknown actions, and unknown scope tokens all come back Denied.
// Dashboard maps its boolean onto All/Denied so callers keep a single code path.
func (p PermissionSet) Scope(m Module, a Action) Scope {
	if m == ModuleDashboard {
		if a == ActionRead && p.Dashboard {
			return ScopeAll
		}
		return ScopeDenied
	}
	actions, ok := p.Grants[m]
	if !ok {
		return ScopeDenied
	}
	switch s := actions[a]; s {
	case ScopeAll, ScopeOwn, ScopeOwnAssignee:
		return s
	default:
		return ScopeDenied
	}
}

// Override is the per-assignment permission fragment. Presence matters: a module
// key present here replaces the role's whole per-module map, and a present
// dashboard key replaces the role's dashboard flag. Absent keys inherit the base.
type Override struct {
	Dashboard *bool
	Grants    map[Module]ActionScopes
}

func (o *Override) IsZero() bool {
	return o == nil || (o.Dashboard == nil && len(o.Grants) == 0)
}

// document converts a PermissionSet to its persisted nested form:
// top-level module keys, per-action scope tokens, dashboard.read as a boolean.
// Denied entries are dropped; absence is the canonical encoding of Denied.
func (p PermissionSet) document() map[string]interface{} {
	doc := make(map[string]interface{})
	if p.Dashboard {
		doc[string(ModuleDashboard)] = map[string]interface{}{string(ActionRead): true}
	}
	for m, actions := range p.Grants {
		sub := make(map[string]interface{})
		for a, s := range actions {
			if s == ScopeDenied {
				continue
			}
			sub[string(a)] = string(s)
		}
		if len(sub) > 0 {
			doc[string(m)] = sub
		}
	}
	return doc
}

func (p *PermissionSet) fromDocument(doc map[string]interface{}) error {
	p.Dashboard = false
	p.Grants = nil
	for key, raw := range doc {
		sub, ok := asDocument(raw)
		if !ok {
			continue
		}
		if Module(key) == ModuleDashboard {
			if v, ok := sub[string(ActionRead)].(bool); ok {
				p.Dashboard = v
			}
			continue
		}
		actions := parseActionScopes(sub)
		if len(actions) > 0 {
			if p.Grants == nil {
				p.Grants = make(map[Module]ActionScopes)
			}
			p.Grants[Module(key)] = actions
		}
	}
	return nil
}

func (o Override) document() map[string]interface{} {
	doc := make(map[string]interface{})
	if o.Dashboard != nil {
		doc[string(ModuleDashboard)] = map[string]interface{}{string(ActionRead): *o.Dashboard}
	}
	for m, actions := range o.Grants {
		sub := make(map[string]interface{})
		for a, s := range actions {
			if s == ScopeDenied {
				continue
			}
			sub[string(a)] = string(s)
		}
		// An overridden module with no granted actions still replaces the
		// base module wholesale, so empty maps stay in the document.
		doc[string(m)] = sub
	}
	return doc
}

func (o *Override) fromDocument(doc map[string]interface{}) error {
	o.Dashboard = nil
	o.Grants = nil
	for key, raw := range doc {
		sub, ok := asDocument(raw)
		if !ok {
			continue
		}
		if Module(key) == ModuleDashboard {
			v, _ := sub[string(ActionRead)].(bool)
			o.Dashboard = &v
			continue
		}
		if o.Grants == nil {
			o.Grants = make(map[Module]ActionScopes)
		}
		o.Grants[Module(key)] = parseActionScopes(sub)
	}
	return nil
}

// parseActionScopes tolerates the loosely-typed documents of the legacy system:
// string scope tokens are canonical, a bare true means All, anything else is
// dropped and therefore Denied.
func parseActionScopes(sub map[string]interface{}) ActionScopes {
	actions := make(ActionScopes)
	for ak, av := range sub {
		switch v := av.(type) {
		case string:
			switch Scope(v) {
			case ScopeAll, ScopeOwn, ScopeOwnAssignee:
				actions[Action(ak)] = Scope(v)
			}
		case bool:
			if v {
				actions[Action(ak)] = ScopeAll
			}
		}
	}
	return actions
}

func asDocument(v interface{}) (map[string]interface{}, bool) {
	switch doc := v.(type) {
	case map[string]interface{}:
		return doc, true
	case bson.M:
		return doc, true
	case bson.D:
		// The default registry decodes nested documents as bson.D.
		m := make(map[string]interface{}, len(doc))
		for _, e := range doc {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func (p PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.document())
}

func (p *PermissionSet) UnmarshalJSON(data []byte) error {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return p.fromDocument(doc)
}

func (p PermissionSet) MarshalBSON() ([]byte, error) {
	return bson.Marshal(p.document())
}

func (p *PermissionSet) UnmarshalBSON(data []byte) error {
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	return p.fromDocument(doc)
}

func (o Override) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.document())
}

func (o *Override) UnmarshalJSON(data []byte) error {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return o.fromDocument(doc)
}

func (o Override) MarshalBSON() ([]byte, error) {
	return bson.Marshal(o.document())
}

func (o *Override) UnmarshalBSON(data []byte) error {
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	return o.fromDocument(doc)
}
