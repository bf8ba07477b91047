package resolve

import "github.com/golang/aetherresolve/graph"

// ScopeDeriver computes the effective scope of a dependency from its own
// declared scope and its parent's effective scope. Supplied externally: the
// scope algebra (e.g. Maven's compile/provided/runtime/test/system/import
// lattice) is a caller concern, not a core one.
type ScopeDeriver interface {
	Derive(childScope, parentScope string) string
}

// ScopeSelector reconciles the set of effective scopes derived for every
// non-direct occurrence of a conflict group into the group's single final
// scope.
type ScopeSelector interface {
	Select(scopes []string) string
}

// DefaultScopeDeriver returns the child's own declared scope unchanged,
// ignoring the parent scope. A reasonable default when the caller doesn't
// need Maven-style scope widening/narrowing.
type DefaultScopeDeriver struct{}

func (DefaultScopeDeriver) Derive(childScope, parentScope string) string { return childScope }

// DefaultScopeSelector picks the first scope in the supplied (discovery-
// ordered) list, which is deterministic without imposing any particular
// scope ordering.
type DefaultScopeSelector struct{}

func (DefaultScopeSelector) Select(scopes []string) string {
	if len(scopes) == 0 {
		return ""
	}
	return scopes[0]
}

// selectScope implements phase (d): a direct occurrence's declared scope
// wins outright; otherwise every occurrence's scope is derived against its
// parent group's already-resolved scope (available because groups are
// processed in topological, parent-before-child order) and reconciled via
// selector.
func selectScope(occs []*occurrence, resolvedScope map[graph.ConflictKey]string, deriver ScopeDeriver, selector ScopeSelector) string {
	for _, occ := range occs {
		if occ.depth <= 1 {
			return occ.node.Dependency.Scope
		}
	}
	derived := make([]string, 0, len(occs))
	for _, occ := range occs {
		parentScope := ""
		if occ.hasParent {
			parentScope = resolvedScope[occ.parentGroup]
		}
		derived = append(derived, deriver.Derive(occ.node.Dependency.Scope, parentScope))
	}
	return selector.Select(derived)
}

// selectOptional implements phase (e): a direct occurrence's declared
// optionality wins outright; otherwise the group is optional only if every
// non-direct occurrence is optional.
func selectOptional(occs []*occurrence) bool {
	for _, occ := range occs {
		if occ.depth <= 1 {
			return occ.node.Dependency.Optional
		}
	}
	for _, occ := range occs {
		if !occ.node.Dependency.Optional {
			return false
		}
	}
	return true
}
