// Package access decides whether an actor may read or write a unit's data.
//
// Evaluation runs against an immutable snapshot of the unit hierarchy taken
// at the start of the request: callers load the units, build an Index, and
// evaluate within the same request as the mutation the check guards. The
// evaluator itself is a pure predicate with no side effects.
package access

import "github.com/Self-Labs/pmes/internal/model"

// Index is an in-memory arena of unit nodes keyed by id, used for upward
// parent walks.
type Index struct {
	units map[string]*model.Unit
}

// NewIndex builds an index over the given unit snapshot.
func NewIndex(units []*model.Unit) *Index {
	idx := &Index{units: make(map[string]*model.Unit, len(units))}
	for _, u := range units {
		idx.units[u.ID] = u
	}
	return idx
}

// Get returns the unit with the given id, or nil if absent.
func (idx *Index) Get(id string) *model.Unit {
	return idx.units[id]
}

// CanAccess reports whether the actor may read or write data belonging to
// the target unit. The rules, in order:
//
//  1. An admin with no unit binding is a global administrator: grant.
//  2. The actor's own unit: grant.
//  3. If the target is a descendant of the actor's unit, meaning the
//     actor's unit appears somewhere on the target's parent chain: grant.
//  4. Otherwise, including when the target does not exist: deny.
//
// The parent chain is walked iteratively, never recursively, and a visited
// set guards against malformed (cyclic) hierarchies: a revisit denies
// instead of looping. Cost is O(depth of the target).
func (idx *Index) CanAccess(actor *model.Actor, targetUnitID string) bool {
	if actor == nil || targetUnitID == "" {
		return false
	}
	if actor.IsGlobalAdmin() {
		return true
	}
	// A non-global actor with no unit binding can reach nothing.
	if actor.UnitID == nil {
		return false
	}
	if *actor.UnitID == targetUnitID {
		return true
	}

	seen := make(map[string]bool)
	id := targetUnitID
	for {
		if seen[id] {
			// Cycle in the parent graph; fail closed.
			return false
		}
		seen[id] = true

		u := idx.units[id]
		if u == nil {
			return false
		}
		if u.ParentID == nil {
			return false
		}
		if *u.ParentID == *actor.UnitID {
			return true
		}
		id = *u.ParentID
	}
}
