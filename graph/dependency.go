package graph

import "github.com/golang/aetherresolve/version"

// Dependency is a declared edge: an artifact requested under a scope, with
// optionality and an exclusion set. Scope is treated as an opaque tag here;
// the scope algebra (derivation, reconciliation) is supplied externally by
// the caller of the collector/resolver, per the scope-deriver and
// scope-selector contracts.
type Dependency struct {
	Artifact    Coordinate
	Scope       string
	Optional    bool
	Exclusions  map[GAKey]struct{}
	Constraint  *version.Constraint
}

// NewDependency constructs a Dependency with an empty exclusion set.
func NewDependency(artifact Coordinate, scope string, optional bool) *Dependency {
	return &Dependency{Artifact: artifact, Scope: scope, Optional: optional, Exclusions: map[GAKey]struct{}{}}
}

// Clone returns a deep-enough copy suitable for management overrides: the
// exclusion map is copied so mutating the clone never mutates the
// original descriptor-derived Dependency.
func (d *Dependency) Clone() *Dependency {
	cl := &Dependency{
		Artifact:   d.Artifact,
		Scope:      d.Scope,
		Optional:   d.Optional,
		Constraint: d.Constraint,
		Exclusions: make(map[GAKey]struct{}, len(d.Exclusions)),
	}
	for k := range d.Exclusions {
		cl.Exclusions[k] = struct{}{}
	}
	return cl
}

// Excludes reports whether ga is matched by any exclusion pattern carried
// by this dependency.
func (d *Dependency) Excludes(ga GAKey) bool {
	for pattern := range d.Exclusions {
		if ga.Matches(pattern) {
			return true
		}
	}
	return false
}

// UnionExclusions returns a new exclusion set that is the union of a and b,
// used when a child inherits the accumulated exclusion set of its
// ancestors.
func UnionExclusions(a, b map[GAKey]struct{}) map[GAKey]struct{} {
	out := make(map[GAKey]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
