package collect

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/version"
)

// VersionResolver resolves a coordinate's version constraint against known
// metadata, returning acceptable candidates highest-ordered first. Declared
// here (consumer side) so collect does not depend on any concrete metadata
// source; cmd/resolvectl's manifestRegistry is one implementation.
type VersionResolver interface {
	ResolveVersions(ctx context.Context, coord graph.Coordinate, constraint *version.Constraint) ([]*version.Version, error)
}

const maxRelocationChase = 10

// Request describes one collection run: either a single root dependency, or
// a root artifact plus its top-level dependency list, against an ordered
// repository list and a set of pluggable policies.
type Request struct {
	RootDependency *graph.Dependency
	RootArtifact   *graph.Coordinate
	Dependencies   []*graph.Dependency

	Repositories []string

	Selector  Selector
	Manager   Manager
	Traverser Traverser
	Filter    VersionFilter
	Policy    Policy

	// DescriptorConcurrency bounds how many descriptor reads the
	// collector fans out concurrently. Zero means "no explicit cap"
	// (errgroup.Group's default, unlimited).
	DescriptorConcurrency int
}

// Collector expands a Request into the full transitive graph.
type Collector struct {
	Descriptors DescriptorReader
	Versions    VersionResolver
}

// NewCollector constructs a Collector over the given descriptor reader and
// version resolver. Callers that want per-coordinate memoization should
// wrap descriptors in a CachingDescriptorReader first.
func NewCollector(descriptors DescriptorReader, versions VersionResolver) *Collector {
	return &Collector{Descriptors: descriptors, Versions: versions}
}

// Result is the outcome of one Collect call.
type Result struct {
	Arena *graph.Arena
	Root  *graph.Node
	Err   *CollectionError
}

// Collect performs the BFS expansion described by Request, returning the
// raw (possibly cyclic) graph. The returned error is a *CollectionError
// aggregating every per-node failure, raised only when non-empty and
// req.Policy is Strict; under IgnoreMissing/IgnoreInvalid it is always nil,
// though node-level Errors may still be populated for inspection.
func (c *Collector) Collect(ctx context.Context, req *Request) (*Result, error) {
	arena, root := graph.NewArena()
	root.Repositories = append([]string{}, req.Repositories...)
	if req.RootArtifact != nil {
		// Root artifact + top-level dependency list: the root node
		// identifies the artifact being resolved, but is never itself
		// queued for expansion — only req.Dependencies are.
		root.Dependency = graph.NewDependency(*req.RootArtifact, "", false)
		if v, err := version.Parse(req.RootArtifact.Version); err == nil {
			root.Version = v
		}
	}

	selector := req.Selector
	if selector == nil {
		selector = AcceptAllSelector{}
	}
	manager := req.Manager
	if manager == nil {
		manager = NoopManager{}
	}
	traverser := req.Traverser
	if traverser == nil {
		traverser = AlwaysTraverser{}
	}
	filter := req.Filter
	if filter == nil {
		filter = NoopVersionFilter{}
	}

	q := newWorkQueue()
	defer q.dispose()

	seed := func(dep *graph.Dependency) {
		_ = q.push(&workItem{
			arena: arena, parent: root, path: nil, selector: selector, manager: manager,
			traverser: traverser, filter: filter, dependency: dep, depth: 1,
		})
	}
	if req.RootDependency != nil {
		seed(req.RootDependency)
	}
	for _, dep := range req.Dependencies {
		seed(dep)
	}

	collErr := &CollectionError{}
	pending := len(req.Dependencies)
	if req.RootDependency != nil {
		pending++
	}

	for pending > 0 {
		item, ok := q.pop()
		if !ok {
			break
		}
		pending--

		children, err := c.processItem(ctx, req, item)
		if err != nil {
			collErr.Errors = append(collErr.Errors, err)
		}
		for _, child := range children {
			pending++
			if err := q.push(child); err != nil {
				pending--
			}
		}
	}

	var outErr error
	if req.Policy == Strict && !collErr.Empty() {
		outErr = collErr
	}
	return &Result{Arena: arena, Root: root, Err: collErr}, outErr
}

// processItem runs steps 1-7 of the collection algorithm for one queued
// dependency, attaching the resulting node to item.parent and returning the
// work items for its children (if any).
func (c *Collector) processItem(ctx context.Context, req *Request, item *workItem) ([]*workItem, error) {
	dep := item.dependency

	// Step 1: management overrides.
	if override := item.manager.ManageDependency(dep); override != nil {
		dep = applyOverride(dep, override)
	}

	// Step 2: selection.
	if !item.selector.Select(dep) {
		return nil, nil
	}

	node := item.arena.NewNode(dep)
	item.parent.AddChild(node.ID)

	constraint := dep.Constraint
	if constraint == nil {
		v, err := version.Parse(dep.Artifact.Version)
		if err != nil {
			node.AddError(err)
			return nil, err
		}
		constraint = &version.Constraint{Recommended: v}
	}
	node.Constraint = constraint

	// Step 3: resolve the constraint against metadata.
	candidates, err := c.Versions.ResolveVersions(ctx, dep.Artifact, constraint)
	if err != nil {
		node.AddError(err)
		return nil, err
	}

	// Step 4: prune via version filter.
	candidates = item.filter.Filter(candidates)
	if len(candidates) == 0 {
		err := &VersionResolutionError{Coordinate: dep.Artifact, Constraint: constraint.String()}
		node.AddError(err)
		return nil, err
	}

	if !item.traverser.Traverse(dep) {
		node.Version = candidates[0]
		return nil, nil
	}

	// Steps 5-7: try candidates highest-first until one's descriptor
	// reads successfully (or a non-fatal policy turns the dependency
	// into a leaf). Warm the descriptor cache for all candidates
	// concurrently first; processItem's own reads below are then mostly
	// cache hits even when several candidates must be tried in sequence.
	prefetch := make([]graph.Coordinate, len(candidates))
	for i, cand := range candidates {
		pc := dep.Artifact
		pc.Version = cand.String()
		prefetch[i] = pc
	}
	c.PrefetchDescriptors(ctx, prefetch, req.DescriptorConcurrency)

	var lastErr error
	for _, cand := range candidates {
		coord := dep.Artifact
		coord.Version = cand.String()

		resolved, desc, err := c.readWithRelocations(ctx, coord, node, item.path)
		if err != nil {
			lastErr = err
			if _, ok := err.(*CycleError); ok {
				// Expected, not a failure: keep the node as a
				// terminator leaf instead of recursing into it again.
				node.Version = cand
				node.CycleTerminator = true
				return nil, nil
			}
			switch req.Policy {
			case IgnoreMissing:
				node.Version = cand
				return nil, nil
			case IgnoreInvalid:
				node.AddError(err)
				node.Version = cand
				return nil, nil
			default: // Strict: try the next lower candidate before giving up
				continue
			}
		}

		node.Version = cand
		node.Repositories = desc.Repositories
		childPath := append(append([]graph.Coordinate{}, item.path...), resolved)

		var next []*workItem
		for _, child := range mergeManaged(desc.Dependencies, desc.ManagedDependencies) {
			child = inheritExclusions(child, dep)
			childCtx := &Context{Parent: node, Dependency: child, Depth: item.depth + 1}
			next = append(next, &workItem{
				arena:      item.arena,
				parent:     node,
				path:       childPath,
				selector:   item.selector.DeriveChild(childCtx),
				manager:    item.manager.DeriveChild(childCtx),
				traverser:  item.traverser.DeriveChild(childCtx),
				filter:     item.filter.DeriveChild(childCtx),
				dependency: child,
				depth:      item.depth + 1,
			})
		}
		return next, nil
	}

	if lastErr != nil {
		node.AddError(lastErr)
		return nil, errors.Wrap(lastErr, "no candidate descriptor could be read")
	}
	return nil, nil
}

// readWithRelocations reads coord's descriptor, following relocation chains
// up to maxRelocationChase hops, appending every hop to node.Relocations.
// Cycle detection covers both the relocation chain itself and the
// root-to-here ancestor path.
func (c *Collector) readWithRelocations(ctx context.Context, coord graph.Coordinate, node *graph.Node, ancestorPath []graph.Coordinate) (graph.Coordinate, *Descriptor, error) {
	seen := map[string]struct{}{}
	for _, a := range ancestorPath {
		seen[gaBaseKey(a)] = struct{}{}
	}

	cur := coord
	for i := 0; i < maxRelocationChase; i++ {
		key := gaBaseKey(cur)
		if _, ok := seen[key]; ok {
			return cur, nil, &CycleError{Coordinate: cur, Path: append(append([]graph.Coordinate{}, ancestorPath...), cur)}
		}
		seen[key] = struct{}{}

		desc, err := c.Descriptors.ReadDescriptor(ctx, cur)
		if err != nil {
			return cur, nil, &DescriptorError{Coordinate: cur, Cause: err}
		}
		if desc.Relocation == nil {
			return cur, desc, nil
		}
		node.Relocations = append(node.Relocations, cur)
		cur = *desc.Relocation
	}
	return cur, nil, &CycleError{Coordinate: cur, Path: ancestorPath}
}

func gaBaseKey(c graph.Coordinate) string {
	return fmt.Sprintf("%s:%s:%s", c.GroupID, c.ArtifactID, c.BaseVersion())
}

// applyOverride returns a cloned Dependency with the non-nil override
// fields applied.
func applyOverride(dep *graph.Dependency, o *ManagementOverride) *graph.Dependency {
	out := dep.Clone()
	if o.Version != nil {
		out.Constraint = o.Version
	}
	if o.Scope != nil {
		out.Scope = *o.Scope
	}
	if o.Optional != nil {
		out.Optional = *o.Optional
	}
	for k := range o.Exclusions {
		out.Exclusions[k] = struct{}{}
	}
	return out
}

// inheritExclusions unions a parent's exclusion set onto a child dependency
// before it is queued, so exclusion propagation is visible to Selector
// instances even if a caller's Selector doesn't itself derive an
// ExclusionSelector.
func inheritExclusions(child, parent *graph.Dependency) *graph.Dependency {
	if len(parent.Exclusions) == 0 {
		return child
	}
	out := child.Clone()
	out.Exclusions = graph.UnionExclusions(out.Exclusions, parent.Exclusions)
	return out
}

// mergeManaged applies a descriptor's own managed-dependency section to its
// direct dependencies before they're queued (distinct from the externally
// supplied Manager policy, which applies ancestor-level management).
func mergeManaged(deps, managed []*graph.Dependency) []*graph.Dependency {
	if len(managed) == 0 {
		return deps
	}
	byGA := make(map[graph.GAKey]*graph.Dependency, len(managed))
	for _, m := range managed {
		byGA[graph.GAKey{GroupID: m.Artifact.GroupID, ArtifactID: m.Artifact.ArtifactID}] = m
	}
	out := make([]*graph.Dependency, len(deps))
	for i, d := range deps {
		m, ok := byGA[graph.GAKey{GroupID: d.Artifact.GroupID, ArtifactID: d.Artifact.ArtifactID}]
		if !ok {
			out[i] = d
			continue
		}
		cl := d.Clone()
		if m.Constraint != nil {
			cl.Constraint = m.Constraint
			cl.Artifact.Version = m.Artifact.Version
		}
		if m.Scope != "" {
			cl.Scope = m.Scope
		}
		out[i] = cl
	}
	return out
}
