// Package resolve implements the conflict resolver: it takes the raw
// (possibly cyclic) graph a collector produced and rewrites it into a DAG
// with exactly one node per conflict group, choosing a winning version,
// scope, and optionality for each group along the way.
package resolve

import "github.com/golang/aetherresolve/graph"

// unionFind merges conflict-group keys that a relocation or alias declares
// equivalent. Path-compressing, not rank-balanced — the number of distinct
// keys in a single resolution is small enough that this never matters.
type unionFind struct {
	parent map[graph.ConflictKey]graph.ConflictKey
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[graph.ConflictKey]graph.ConflictKey)}
}

func (u *unionFind) find(k graph.ConflictKey) graph.ConflictKey {
	p, ok := u.parent[k]
	if !ok {
		u.parent[k] = k
		return k
	}
	if p == k {
		return k
	}
	root := u.find(p)
	u.parent[k] = root
	return root
}

func (u *unionFind) union(a, b graph.ConflictKey) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// occurrence is one node's membership in a conflict group: its raw-graph
// node, the group it was folded into, its depth (root's direct children are
// depth 1), and the group its immediate parent folded into (the zero value
// when the parent is the graph root itself).
type occurrence struct {
	node        *graph.Node
	group       graph.ConflictKey
	parentGroup graph.ConflictKey
	hasParent   bool
	depth       int
	path        []graph.Coordinate
}

// edgeSet records, for one parent conflict group, the distinct child groups
// observed across every occurrence of that parent — in first-discovery
// order, so topological sort output stays deterministic — together with the
// deepest occurrence depth that contributed each edge (used only for
// reporting where a broken back-edge was cut).
type edgeSet struct {
	order []graph.ConflictKey
	depth map[graph.ConflictKey]int
}

func (e *edgeSet) add(child graph.ConflictKey, depth int) {
	if e.depth == nil {
		e.depth = make(map[graph.ConflictKey]int)
	}
	if d, ok := e.depth[child]; !ok {
		e.order = append(e.order, child)
		e.depth[child] = depth
	} else if depth > d {
		e.depth[child] = depth
	}
}

// markAndCollect walks the raw graph once, assigning every node a
// conflict-group id (unioning groups a node's relocations/aliases imply),
// and returns the flat occurrence list (discovery order), the distinct
// groups reachable directly from root (discovery order), and the
// group-to-group edge sets discovered along the way.
func markAndCollect(arena *graph.Arena, root *graph.Node) (occurrences []*occurrence, rootGroups []graph.ConflictKey, edges map[graph.ConflictKey]*edgeSet) {
	uf := newUnionFind()

	// First pass: union every node's primary key with any relocation/alias
	// key it carries, so group membership is settled before occurrences are
	// built against it.
	arena.Walk(root, func(path []*graph.Node, n *graph.Node) bool {
		if n.Dependency == nil {
			return true
		}
		key := graph.ConflictKeyOf(n.Dependency.Artifact)
		for _, r := range n.Relocations {
			uf.union(key, graph.ConflictKeyOf(r))
		}
		for _, a := range n.Aliases {
			uf.union(key, graph.ConflictKeyOf(a))
		}
		return true
	})

	edges = make(map[graph.ConflictKey]*edgeSet)
	seenRoot := map[graph.ConflictKey]bool{}

	var walk func(n *graph.Node, depth int, path []graph.Coordinate, parentGroup graph.ConflictKey, hasParentGroup bool)
	walk = func(n *graph.Node, depth int, path []graph.Coordinate, parentGroup graph.ConflictKey, hasParentGroup bool) {
		if n.Dependency == nil {
			for _, cid := range n.Children() {
				walk(arena.Node(cid), 1, path, graph.ConflictKey{}, false)
			}
			return
		}

		group := uf.find(graph.ConflictKeyOf(n.Dependency.Artifact))
		occurrences = append(occurrences, &occurrence{
			node: n, group: group, parentGroup: parentGroup, hasParent: hasParentGroup,
			depth: depth, path: path,
		})

		if hasParentGroup {
			e := edges[parentGroup]
			if e == nil {
				e = &edgeSet{}
				edges[parentGroup] = e
			}
			e.add(group, depth)
		} else if !seenRoot[group] {
			seenRoot[group] = true
			rootGroups = append(rootGroups, group)
		}

		if n.CycleTerminator {
			return
		}
		childPath := append(append([]graph.Coordinate{}, path...), n.Dependency.Artifact)
		for _, cid := range n.Children() {
			walk(arena.Node(cid), depth+1, childPath, group, true)
		}
	}
	walk(root, 0, nil, graph.ConflictKey{}, false)
	return
}

// occurrencesByGroup buckets a flat occurrence list by conflict group,
// preserving discovery order within each bucket.
func occurrencesByGroup(occs []*occurrence) map[graph.ConflictKey][]*occurrence {
	out := make(map[graph.ConflictKey][]*occurrence)
	for _, o := range occs {
		out[o.group] = append(out[o.group], o)
	}
	return out
}
