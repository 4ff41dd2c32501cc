package authz

// OwnedRecord is the ownership view of a business record, the only part of a
// record the scope evaluation ever looks at.
type OwnedRecord struct {
	OwnerID    string `json:"owner_id" bson:"owner_id"`
	AssignedTo string `json:"assigned_to" bson:"assigned_to"`
}

func (r OwnedRecord) field(name string) string {
	switch name {
	case FieldOwner:
		return r.OwnerID
	case FieldAssignee:
		return r.AssignedTo
	}
	return ""
}

// Can evaluates one operation against an effective permission set. Stateless
// and side-effect free; cheap enough to call on every request.
//
// Record-scoped decisions fail closed: if the scope is Own or OwnAssignee and
// no record or user is supplied, the answer is deny, never a default allow.
func Can(effective PermissionSet, m Module, a Action, record *OwnedRecord, userID string) bool {
	rule, ok := scopeRules[effective.Scope(m, a)]
	if !ok {
		return false
	}
	if rule.always {
		return true
	}
	if record == nil || userID == "" {
		return false
	}
	return record.field(rule.field) == userID
}

// HasAny reports whether (module, action) is granted under any scope at all.
// Row-level filtering still applies; this only distinguishes Denied from the
// rest, which is what route guards need before a record is known.
func HasAny(effective PermissionSet, m Module, a Action) bool {
	_, ok := scopeRules[effective.Scope(m, a)]
	return ok
}
