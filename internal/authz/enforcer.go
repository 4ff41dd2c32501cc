package authz

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrForbidden is returned by the storage-tier write guard when the row
// predicate fails against the target or resulting row.
var ErrForbidden = errors.New("forbidden")

// Guard binds an effective permission set to the acting user and re-expresses
// the scope rules as storage-tier predicates. Reads merge Filter into the
// query; writes must pass Allow before the row is committed. Both come from
// the same scope rule table as Can, so the two tiers cannot drift.
type Guard struct {
	Effective PermissionSet
	UserID    string
}

// denyAllFilter matches no document.
var denyAllFilter = bson.M{"_id": -1}

// Filter returns the Mongo row-visibility filter for (module, action): empty
// for All, an ownership-field match for Own/OwnAssignee, and a filter matching
// nothing for Denied.
func (g Guard) Filter(m Module, a Action) bson.M {
	rule, ok := scopeRules[g.Effective.Scope(m, a)]
	switch {
	case !ok:
		return denyAllFilter
	case rule.always:
		return bson.M{}
	case g.UserID == "":
		// An ownership scope without an acting user can never match; an empty
		// user must not silently match ownerless rows.
		return denyAllFilter
	default:
		return bson.M{rule.field: g.UserID}
	}
}

// SQLPredicate returns the same row predicate as a SQL WHERE fragment. argIndex
// is the ordinal of the first placeholder, so the fragment composes with an
// enclosing query's argument list.
func (g Guard) SQLPredicate(m Module, a Action, argIndex int) (string, []interface{}) {
	rule, ok := scopeRules[g.Effective.Scope(m, a)]
	switch {
	case !ok:
		return "FALSE", nil
	case rule.always:
		return "TRUE", nil
	case g.UserID == "":
		return "FALSE", nil
	default:
		return fmt.Sprintf("%s = $%d", rule.field, argIndex), []interface{}{g.UserID}
	}
}

// Allow is the pre-commit write guard: it rejects an insert, update, or delete
// whose target or resulting row the acting user may not touch.
func (g Guard) Allow(m Module, a Action, record *OwnedRecord) error {
	if Can(g.Effective, m, a, record, g.UserID) {
		return nil
	}
	return ErrForbidden
}
