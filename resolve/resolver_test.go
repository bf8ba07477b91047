package resolve

import (
	"testing"

	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/version"
)

func addOccurrence(t *testing.T, scheme *version.Scheme, arena *graph.Arena, parent *graph.Node, groupID, artifactID, constraintRaw, ver string) *graph.Node {
	t.Helper()
	c, err := scheme.ParseConstraint(constraintRaw)
	if err != nil {
		t.Fatalf("parsing constraint %q: %v", constraintRaw, err)
	}
	dep := graph.NewDependency(graph.NewCoordinate(groupID, artifactID, ver), "compile", false)
	dep.Constraint = c
	n := arena.NewNode(dep)
	n.Constraint = c
	v, err := scheme.ParseVersion(ver)
	if err != nil {
		t.Fatalf("parsing version %q: %v", ver, err)
	}
	n.Version = v
	parent.AddChild(n.ID)
	return n
}

func findNode(arena *graph.Arena, root *graph.Node, artifactID string) *graph.Node {
	var found *graph.Node
	arena.Walk(root, func(path []*graph.Node, n *graph.Node) bool {
		if n.Dependency != nil && n.Dependency.Artifact.ArtifactID == artifactID {
			found = n
		}
		return true
	})
	return found
}

func TestResolveNearestWins(t *testing.T) {
	scheme := version.NewScheme()
	arena, root := graph.NewArena()

	a := addOccurrence(t, scheme, arena, root, "g", "a", "1", "1")
	addOccurrence(t, scheme, arena, a, "g", "c", "1.0", "1.0")
	addOccurrence(t, scheme, arena, root, "g", "c", "2.0", "2.0")

	r := NewResolver()
	res, err := r.Resolve(arena, root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	c := findNode(res.Arena, res.Root, "c")
	if c == nil {
		t.Fatal("expected a g:c node in the resolved graph")
	}
	if c.Version.String() != "2.0" {
		t.Fatalf("expected nearest occurrence (depth 1, g:c:2.0) to win, got %s", c.Version)
	}

	// root, a, and c are each one conflict group; c is reachable both as a
	// direct child of root and through a, but that's DAG fan-in (the same
	// node referenced twice), not a duplicate allocation.
	if res.Arena.Len() != 3 {
		t.Fatalf("expected exactly 3 arena nodes (root, a, c) after conflict resolution, got %d", res.Arena.Len())
	}
}

func TestResolveRangeIntersectionFailure(t *testing.T) {
	scheme := version.NewScheme()
	arena, root := graph.NewArena()

	a := addOccurrence(t, scheme, arena, root, "g", "a", "1", "1")
	addOccurrence(t, scheme, arena, a, "g", "c", "[1,2)", "1.5")

	b := addOccurrence(t, scheme, arena, root, "g", "b", "1", "1")
	addOccurrence(t, scheme, arena, b, "g", "c", "[2,3)", "2.5")

	r := NewResolver()
	_, err := r.Resolve(arena, root)
	if err == nil {
		t.Fatal("expected UnsolvableVersionConflict, got nil")
	}
	uerr, ok := err.(*UnsolvableVersionConflict)
	if !ok {
		t.Fatalf("expected *UnsolvableVersionConflict, got %T: %v", err, err)
	}
	if len(uerr.Paths) != 2 {
		t.Fatalf("expected two contributing paths, got %d", len(uerr.Paths))
	}
}

func TestResolveGraphRewriteIsADAGWithOneNodePerGroup(t *testing.T) {
	scheme := version.NewScheme()
	arena, root := graph.NewArena()

	a := addOccurrence(t, scheme, arena, root, "g", "a", "1", "1")
	addOccurrence(t, scheme, arena, a, "g", "shared", "1", "1")
	b := addOccurrence(t, scheme, arena, root, "g", "b", "1", "1")
	addOccurrence(t, scheme, arena, b, "g", "shared", "1", "1")

	r := NewResolver()
	res, err := r.Resolve(arena, root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var sharedCount int
	res.Arena.Walk(res.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n.Dependency != nil && n.Dependency.Artifact.ArtifactID == "shared" {
			sharedCount++
		}
		return true
	})
	if sharedCount != 2 {
		// Walk visits the same shared node twice, once per parent edge —
		// that's the DAG's fan-in, not a duplicate allocation. Confirm the
		// arena itself holds exactly one node for the group instead.
		t.Fatalf("expected the DAG walk to reach the shared node via both parents (count 2), got %d", sharedCount)
	}
	if res.Arena.Len() != 4 { // root + a + b + shared
		t.Fatalf("expected exactly 4 arena nodes (root, a, b, shared), got %d", res.Arena.Len())
	}
}
