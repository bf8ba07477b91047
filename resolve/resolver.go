package resolve

import (
	"github.com/golang/aetherresolve/graph"
)

// Resolver runs the conflict-resolution phases over a raw collected graph.
type Resolver struct {
	ScopeDeriver  ScopeDeriver
	ScopeSelector ScopeSelector
}

// NewResolver constructs a Resolver with the default scope deriver/selector;
// callers with a real scope algebra should set Resolver.ScopeDeriver and
// Resolver.ScopeSelector directly after construction.
func NewResolver() *Resolver {
	return &Resolver{ScopeDeriver: DefaultScopeDeriver{}, ScopeSelector: DefaultScopeSelector{}}
}

// Result is the outcome of one Resolve call: a pruned DAG with exactly one
// node per conflict group, plus any back-edges broken while sorting groups
// topologically (reported, not fatal).
type Result struct {
	Arena  *graph.Arena
	Root   *graph.Node
	Breaks []CycleBreak
}

// Resolve runs phases (a)-(f) over the raw graph rooted at root, returning
// the rewritten DAG. The only fatal error is *UnsolvableVersionConflict.
func (r *Resolver) Resolve(arena *graph.Arena, root *graph.Node) (*Result, error) {
	occs, rootGroups, edges := markAndCollect(arena, root)
	byGroup := occurrencesByGroup(occs)

	order, breaks, broken := topoSort(rootGroups, edges)

	picks := make(map[graph.ConflictKey]*versionPick, len(order))
	scopes := make(map[graph.ConflictKey]string, len(order))
	optional := make(map[graph.ConflictKey]bool, len(order))

	for _, g := range order {
		groupOccs := byGroup[g]
		pick, err := selectVersion(g, groupOccs)
		if err != nil {
			return nil, err
		}
		picks[g] = pick
		scopes[g] = selectScope(groupOccs, scopes, r.ScopeDeriver, r.ScopeSelector)
		optional[g] = selectOptional(groupOccs)
	}

	newArena, newRoot := rewriteGraph(order, rootGroups, edges, broken, picks, scopes, optional)
	return &Result{Arena: newArena, Root: newRoot, Breaks: breaks}, nil
}

// rewriteGraph implements phase (f): one node per conflict group, wired
// according to the deduped, cycle-broken edge set the topological sort
// already computed.
func rewriteGraph(
	order []graph.ConflictKey,
	rootGroups []graph.ConflictKey,
	edges map[graph.ConflictKey]*edgeSet,
	broken map[graph.ConflictKey]map[graph.ConflictKey]bool,
	picks map[graph.ConflictKey]*versionPick,
	scopes map[graph.ConflictKey]string,
	optional map[graph.ConflictKey]bool,
) (*graph.Arena, *graph.Node) {
	newArena, newRoot := graph.NewArena()

	nodes := make(map[graph.ConflictKey]*graph.Node, len(order))
	for _, g := range order {
		pick := picks[g]
		d := pick.Occurrence.node.Dependency.Clone()
		if pick.Version != nil {
			d.Artifact.Version = pick.Version.String()
		}
		d.Scope = scopes[g]
		d.Optional = optional[g]
		n := newArena.NewNode(d)
		n.Version = pick.Version
		n.Constraint = pick.Occurrence.node.Constraint
		n.Repositories = pick.Occurrence.node.Repositories
		n.Relocations = append([]graph.Coordinate{}, pick.Occurrence.node.Relocations...)
		nodes[g] = n
	}

	for _, g := range rootGroups {
		if n, ok := nodes[g]; ok {
			newRoot.AddChild(n.ID)
		}
	}
	for parent, e := range edges {
		pn, ok := nodes[parent]
		if !ok {
			continue
		}
		for _, child := range e.order {
			if broken[parent][child] {
				continue
			}
			if cn, ok := nodes[child]; ok {
				pn.AddChild(cn.ID)
			}
		}
	}

	return newArena, newRoot
}
