package collect

import (
	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/version"
)

// Context is passed to each policy's DeriveChild so it can decide whether
// (and with what new state) it should continue to apply to a subtree.
// Implementers must return the very same instance when their state would
// not change, so the collector can cheaply recognize "nothing changed here"
// and share policy instances structurally across siblings.
type Context struct {
	Parent     *graph.Node
	Dependency *graph.Dependency
	Depth      int
}

// Selector decides whether a dependency should be included in the graph at
// all. Returning false drops the dependency and does not recurse into it.
type Selector interface {
	Select(dep *graph.Dependency) bool
	DeriveChild(ctx *Context) Selector
}

// ManagementOverride carries the non-nil fields a Manager wants to impose
// on a dependency. A nil field means "leave as declared".
type ManagementOverride struct {
	Version     *version.Constraint
	Scope       *string
	Optional    *bool
	Exclusions  map[graph.GAKey]struct{}
}

// Manager supplies dependency management: version/scope/optional/exclusion
// overrides sourced from a consumer's <dependencyManagement>-equivalent
// section (or whatever mechanism the external descriptor reader surfaces).
type Manager interface {
	ManageDependency(dep *graph.Dependency) *ManagementOverride
	DeriveChild(ctx *Context) Manager
}

// Traverser decides whether the collector should recurse into a
// dependency's own dependencies at all (independent of Selector, which
// decides whether the dependency is included in the graph in the first
// place).
type Traverser interface {
	Traverse(dep *graph.Dependency) bool
	DeriveChild(ctx *Context) Traverser
}

// VersionFilter prunes the list of version candidates a range resolved to,
// before the collector starts trying descriptors in highest-first order.
type VersionFilter interface {
	Filter(candidates []*version.Version) []*version.Version
	DeriveChild(ctx *Context) VersionFilter
}

// AcceptAllSelector is the default Selector: every dependency is included.
type AcceptAllSelector struct{}

func (AcceptAllSelector) Select(dep *graph.Dependency) bool         { return true }
func (s AcceptAllSelector) DeriveChild(ctx *Context) Selector       { return s }

// NoopManager is the default Manager: no overrides are ever applied.
type NoopManager struct{}

func (NoopManager) ManageDependency(dep *graph.Dependency) *ManagementOverride { return nil }
func (m NoopManager) DeriveChild(ctx *Context) Manager                        { return m }

// AlwaysTraverser is the default Traverser: always recurse.
type AlwaysTraverser struct{}

func (AlwaysTraverser) Traverse(dep *graph.Dependency) bool      { return true }
func (t AlwaysTraverser) DeriveChild(ctx *Context) Traverser     { return t }

// NoopVersionFilter is the default VersionFilter: no pruning.
type NoopVersionFilter struct{}

func (NoopVersionFilter) Filter(candidates []*version.Version) []*version.Version { return candidates }
func (f NoopVersionFilter) DeriveChild(ctx *Context) VersionFilter                { return f }

// ExclusionSelector drops any dependency matched by an accumulated
// exclusion set — the mechanism by which §4.2's "exclusions propagate"
// requirement is implemented as a Selector rather than bolted directly into
// the collector loop.
type ExclusionSelector struct {
	Excluded map[graph.GAKey]struct{}
}

// Select implements Selector.
func (s *ExclusionSelector) Select(dep *graph.Dependency) bool {
	ga := graph.GAKey{GroupID: dep.Artifact.GroupID, ArtifactID: dep.Artifact.ArtifactID}
	for pattern := range s.Excluded {
		if ga.Matches(pattern) {
			return false
		}
	}
	return true
}

// DeriveChild unions this selector's exclusions with the dependency's own
// declared exclusions, returning the same instance when nothing new was
// added (so unrelated subtrees keep sharing one selector instance).
func (s *ExclusionSelector) DeriveChild(ctx *Context) Selector {
	if ctx.Dependency == nil || len(ctx.Dependency.Exclusions) == 0 {
		return s
	}
	for k := range ctx.Dependency.Exclusions {
		if _, has := s.Excluded[k]; !has {
			return &ExclusionSelector{Excluded: graph.UnionExclusions(s.Excluded, ctx.Dependency.Exclusions)}
		}
	}
	return s
}
