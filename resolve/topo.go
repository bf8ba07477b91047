package resolve

import "github.com/golang/aetherresolve/graph"

const (
	stateUnvisited = 0
	stateVisiting  = 1
	stateDone      = 2
)

// topoSort orders conflict groups so that if any occurrence of A has any
// occurrence of B as a child, A precedes B in the result. Cycles in the
// group graph are broken by dropping the back-edge at its deepest
// contributing occurrence and recording it in breaks; broken reports which
// (parent, child) edges were cut, so rewriteGraph knows not to wire them.
func topoSort(rootGroups []graph.ConflictKey, edges map[graph.ConflictKey]*edgeSet) (order []graph.ConflictKey, breaks []CycleBreak, broken map[graph.ConflictKey]map[graph.ConflictKey]bool) {
	state := make(map[graph.ConflictKey]int)
	var finish []graph.ConflictKey
	broken = make(map[graph.ConflictKey]map[graph.ConflictKey]bool)

	cut := func(from, to graph.ConflictKey, depth int) {
		if broken[from] == nil {
			broken[from] = make(map[graph.ConflictKey]bool)
		}
		broken[from][to] = true
		breaks = append(breaks, CycleBreak{From: from, To: to, Depth: depth})
	}

	var visit func(g graph.ConflictKey)
	visit = func(g graph.ConflictKey) {
		state[g] = stateVisiting
		if e := edges[g]; e != nil {
			for _, c := range e.order {
				switch state[c] {
				case stateUnvisited:
					visit(c)
				case stateVisiting:
					cut(g, c, e.depth[c])
				case stateDone:
					// already ordered via another path; fine.
				}
			}
		}
		state[g] = stateDone
		finish = append(finish, g)
	}

	for _, g := range rootGroups {
		if state[g] == stateUnvisited {
			visit(g)
		}
	}
	// Groups reachable only as children of other children (never listed in
	// rootGroups directly) are still covered by the recursive visit above;
	// this loop is only a safety net for disconnected groups, which cannot
	// arise from a single-rooted collector graph but costs nothing to guard.
	for g := range edges {
		if state[g] == stateUnvisited {
			visit(g)
		}
	}

	order = make([]graph.ConflictKey, len(finish))
	for i, g := range finish {
		order[len(finish)-1-i] = g
	}
	return order, breaks, broken
}
