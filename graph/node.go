package graph

import (
	"sync"

	"github.com/golang/aetherresolve/version"
)

// NodeID is a stable arena index. Equality between nodes is by NodeID (a
// proxy for reference identity), never by value — two nodes can carry
// identical coordinates and still be distinct occurrences in the graph.
type NodeID uint32

// Node is one occurrence of a dependency in the collected graph. The root
// node carries no Dependency. Children are stored in declaration order;
// appending to Children is the only mutation allowed once a node has been
// handed to more than one goroutine, so AddChild takes its own lock rather
// than relying on the caller.
type Node struct {
	ID           NodeID
	Dependency   *Dependency
	Constraint   *version.Constraint
	Version      *version.Version
	Relocations  []Coordinate
	Aliases      []Coordinate
	Repositories []string
	Data         map[string]interface{}

	// CycleTerminator is set when this occurrence would repeat an
	// ancestor's (groupId, artifactId, baseVersion) on the current
	// root-to-here path; it is kept in the graph but never recursed into.
	CycleTerminator bool

	// Errors accumulates non-fatal per-node failures (a descriptor read
	// under IGNORE_INVALID, an empty version-filter result, ...).
	Errors []error

	mu       sync.Mutex
	children []NodeID
}

// AddChild appends child to n's child list. Safe for concurrent use across
// siblings expanding in parallel; the list itself preserves the order in
// which children arrive, which callers must keep deterministic by
// serializing pushes per parent at the collector level.
func (n *Node) AddChild(childID NodeID) {
	n.mu.Lock()
	n.children = append(n.children, childID)
	n.mu.Unlock()
}

// Children returns a snapshot of the child id list in insertion order.
func (n *Node) Children() []NodeID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// AddError records a non-fatal per-node error.
func (n *Node) AddError(err error) {
	n.mu.Lock()
	n.Errors = append(n.Errors, err)
	n.mu.Unlock()
}

// Arena owns every Node created during one resolution. Nodes are never
// individually freed; the whole arena is dropped together when the caller
// releases the root.
type Arena struct {
	mu    sync.RWMutex
	nodes []*Node
	root  NodeID
}

// NewArena constructs an empty arena and seeds it with a root node that
// carries no Dependency.
func NewArena() (*Arena, *Node) {
	a := &Arena{}
	root := a.newNode(nil)
	a.root = root.ID
	return a, root
}

// NewNode allocates and returns a fresh node for dep.
func (a *Arena) NewNode(dep *Dependency) *Node {
	return a.newNode(dep)
}

func (a *Arena) newNode(dep *Dependency) *Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := &Node{ID: NodeID(len(a.nodes)), Dependency: dep, Data: map[string]interface{}{}}
	a.nodes = append(a.nodes, n)
	return n
}

// Node returns the node registered under id.
func (a *Arena) Node(id NodeID) *Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.nodes[id]
}

// Root returns the arena's root node.
func (a *Arena) Root() *Node {
	return a.Node(a.root)
}

// Len reports how many nodes the arena has allocated.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.nodes)
}

// Walk visits every reachable node starting at root in a stable, depth-
// first, declaration-ordered traversal, calling visit once per node
// (including nodes reached more than once through a shared subtree, to
// match how the raw collected graph — not yet conflict-resolved — can be a
// DAG or contain cycles). visit returning false stops the walk early.
func (a *Arena) Walk(root *Node, visit func(path []*Node, n *Node) bool) {
	var walk func(path []*Node, n *Node) bool
	walk = func(path []*Node, n *Node) bool {
		if !visit(path, n) {
			return false
		}
		if n.CycleTerminator {
			return true
		}
		next := append(append([]*Node{}, path...), n)
		for _, cid := range n.Children() {
			if !walk(next, a.Node(cid)) {
				return false
			}
		}
		return true
	}
	walk(nil, root)
}
