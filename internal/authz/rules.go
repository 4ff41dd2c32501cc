package authz

// Ownership fields every scoped business record carries.
const (
	FieldOwner    = "owner_id"
	FieldAssignee = "assigned_to"
)

// scopeRule describes how one scope constrains row visibility. Both the
// request-tier authorizer and the storage-tier predicates are derived from this
// single table; Denied has no entry, so an unknown or denied scope can never
// produce an allowing rule on either tier.
type scopeRule struct {
	always bool   // access regardless of row ownership
	field  string // otherwise, the row field that must equal the acting user
}

var scopeRules = map[Scope]scopeRule{
	ScopeAll:         {always: true},
	ScopeOwn:         {field: FieldOwner},
	ScopeOwnAssignee: {field: FieldAssignee},
}
