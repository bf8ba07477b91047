package collect

import (
	"context"
	"testing"

	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/version"
)

// fakeDescriptors is a DescriptorReader over a fixed in-memory project
// graph, keyed on "groupId:artifactId:version" (classifier/extension
// ignored, since none of the fixtures below use them).
type fakeDescriptors struct {
	byCoord map[string]*Descriptor
}

func (f *fakeDescriptors) ReadDescriptor(ctx context.Context, coord graph.Coordinate) (*Descriptor, error) {
	d, ok := f.byCoord[key(coord)]
	if !ok {
		return nil, &DescriptorError{Coordinate: coord, Cause: errNoDescriptor}
	}
	return d, nil
}

func key(c graph.Coordinate) string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

var errNoDescriptor = errNotFoundStub{}

type errNotFoundStub struct{}

func (errNotFoundStub) Error() string { return "no descriptor" }

// fakeVersions resolves every constraint by intersecting it against a fixed
// per-GA version list (declared in ascending order), returning matches
// highest-first as the VersionResolver contract requires.
type fakeVersions struct {
	scheme   *version.Scheme
	byGA     map[string][]string
}

func (f *fakeVersions) ResolveVersions(ctx context.Context, coord graph.Coordinate, constraint *version.Constraint) ([]*version.Version, error) {
	raws := f.byGA[coord.GroupID+":"+coord.ArtifactID]
	var out []*version.Version
	for _, raw := range raws {
		v, err := f.scheme.ParseVersion(raw)
		if err != nil {
			return nil, err
		}
		if constraint.ContainsVersion(v) {
			out = append(out, v)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func dep(scheme *version.Scheme, t *testing.T, groupID, artifactID, constraintRaw string) *graph.Dependency {
	t.Helper()
	c, err := scheme.ParseConstraint(constraintRaw)
	if err != nil {
		t.Fatalf("parsing constraint %q: %v", constraintRaw, err)
	}
	d := graph.NewDependency(graph.NewCoordinate(groupID, artifactID, constraintRaw), "compile", false)
	d.Constraint = c
	return d
}

func TestCollectBasicTransitiveResolution(t *testing.T) {
	scheme := version.NewScheme()
	descriptors := &fakeDescriptors{byCoord: map[string]*Descriptor{
		"g:a:1": {Dependencies: []*graph.Dependency{dep(scheme, t, "g", "b", "[1,2)")}},
		"g:b:1.2": {},
		"g:b:1.0": {},
	}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{
		"g:a": {"1"},
		"g:b": {"1.0", "1.2", "2.0"},
	}}
	c := NewCollector(descriptors, versions)

	root := dep(scheme, t, "g", "a", "1")
	res, err := c.Collect(context.Background(), &Request{RootDependency: root})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var found []*graph.Node
	res.Arena.Walk(res.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n.Dependency != nil {
			found = append(found, n)
		}
		return true
	})
	if len(found) != 2 {
		t.Fatalf("expected 2 nodes (a, b), got %d", len(found))
	}
	a, b := found[0], found[1]
	if a.Dependency.Artifact.ArtifactID != "a" || b.Dependency.Artifact.ArtifactID != "b" {
		t.Fatalf("unexpected traversal order: %s, %s", a.Dependency.Artifact, b.Dependency.Artifact)
	}
	if b.Version == nil || b.Version.String() != "1.2" {
		t.Fatalf("expected g:b to resolve to highest-ordered candidate 1.2, got %v", b.Version)
	}
}

func TestCollectRelocationIsFollowedTransparently(t *testing.T) {
	scheme := version.NewScheme()
	newCoord := graph.NewCoordinate("g", "new", "1")
	descriptors := &fakeDescriptors{byCoord: map[string]*Descriptor{
		"g:old:1": {Relocation: &newCoord},
		"g:new:1": {},
	}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{"g:old": {"1"}}}
	c := NewCollector(descriptors, versions)

	root := dep(scheme, t, "g", "old", "1")
	res, err := c.Collect(context.Background(), &Request{RootDependency: root})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var node *graph.Node
	res.Arena.Walk(res.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n.Dependency != nil {
			node = n
		}
		return true
	})
	if node == nil {
		t.Fatal("expected one node for the relocated dependency")
	}
	if len(node.Relocations) != 1 || node.Relocations[0].ArtifactID != "old" {
		t.Fatalf("expected one recorded relocation hop from g:old, got %v", node.Relocations)
	}
}

func TestCollectExclusionPropagatesToTransitiveDependencies(t *testing.T) {
	scheme := version.NewScheme()
	descriptors := &fakeDescriptors{byCoord: map[string]*Descriptor{
		"g:a:1": {Dependencies: []*graph.Dependency{dep(scheme, t, "g2", "x", "1")}},
		"g2:x:1": {Dependencies: []*graph.Dependency{dep(scheme, t, "g3", "y", "1")}},
		"g3:y:1": {},
	}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{
		"g:a":  {"1"},
		"g2:x": {"1"},
		"g3:y": {"1"},
	}}
	c := NewCollector(descriptors, versions)

	root := dep(scheme, t, "g", "a", "1")
	root.Exclusions[graph.GAKey{GroupID: "g2", ArtifactID: "*"}] = struct{}{}

	res, err := c.Collect(context.Background(), &Request{
		RootDependency: root,
		Selector:       &ExclusionSelector{Excluded: map[graph.GAKey]struct{}{{GroupID: "g2", ArtifactID: "*"}: {}}},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var artifactIDs []string
	res.Arena.Walk(res.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n.Dependency != nil {
			artifactIDs = append(artifactIDs, n.Dependency.Artifact.ArtifactID)
		}
		return true
	})
	for _, id := range artifactIDs {
		if id == "x" || id == "y" {
			t.Fatalf("expected g2:x and its transitive g3:y to be excluded, got nodes %v", artifactIDs)
		}
	}
	if len(artifactIDs) != 1 || artifactIDs[0] != "a" {
		t.Fatalf("expected only the root dependency g:a to survive exclusion, got %v", artifactIDs)
	}
}

func TestCollectCycleTerminatesWithoutRecursing(t *testing.T) {
	scheme := version.NewScheme()
	descriptors := &fakeDescriptors{byCoord: map[string]*Descriptor{
		"g:a:1": {Dependencies: []*graph.Dependency{dep(scheme, t, "g", "b", "1")}},
		"g:b:1": {Dependencies: []*graph.Dependency{dep(scheme, t, "g", "a", "1")}},
	}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{
		"g:a": {"1"},
		"g:b": {"1"},
	}}
	c := NewCollector(descriptors, versions)

	root := dep(scheme, t, "g", "a", "1")
	res, err := c.Collect(context.Background(), &Request{RootDependency: root})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var terminators int
	var total int
	res.Arena.Walk(res.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n.Dependency == nil {
			return true
		}
		total++
		if n.CycleTerminator {
			terminators++
			if len(n.Children()) != 0 {
				t.Fatalf("cycle terminator node must carry no children, got %d", len(n.Children()))
			}
		}
		return true
	})
	if total != 3 {
		t.Fatalf("expected a, b, and the cycle-terminating second a, got %d nodes", total)
	}
	if terminators != 1 {
		t.Fatalf("expected exactly one cycle terminator, got %d", terminators)
	}
}

func TestCollectDeterministicAcrossRuns(t *testing.T) {
	scheme := version.NewScheme()
	descriptors := &fakeDescriptors{byCoord: map[string]*Descriptor{
		"g:a:1": {Dependencies: []*graph.Dependency{
			dep(scheme, t, "g", "c", "1"),
			dep(scheme, t, "g", "b", "1"),
		}},
		"g:b:1": {},
		"g:c:1": {},
	}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{
		"g:a": {"1"}, "g:b": {"1"}, "g:c": {"1"},
	}}

	order := func() []string {
		c := NewCollector(descriptors, versions)
		root := dep(scheme, t, "g", "a", "1")
		res, err := c.Collect(context.Background(), &Request{RootDependency: root})
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
		var ids []string
		res.Arena.Walk(res.Root, func(path []*graph.Node, n *graph.Node) bool {
			if n.Dependency != nil {
				ids = append(ids, n.Dependency.Artifact.ArtifactID)
			}
			return true
		})
		return ids
	}

	first := order()
	for i := 0; i < 5; i++ {
		again := order()
		if len(first) != len(again) {
			t.Fatalf("run %d: length mismatch %v vs %v", i, first, again)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d: order mismatch %v vs %v", i, first, again)
			}
		}
	}
	if len(first) != 3 || first[0] != "a" || first[1] != "c" || first[2] != "b" {
		t.Fatalf("expected declaration order a, c, b, got %v", first)
	}
}

func TestCollectRootArtifactWithTopLevelDependencies(t *testing.T) {
	scheme := version.NewScheme()
	descriptors := &fakeDescriptors{byCoord: map[string]*Descriptor{"g:b:1": {}}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{"g:b": {"1"}}}
	c := NewCollector(descriptors, versions)

	rootArtifact := graph.NewCoordinate("g", "a", "1")
	res, err := c.Collect(context.Background(), &Request{
		RootArtifact: &rootArtifact,
		Dependencies: []*graph.Dependency{dep(scheme, t, "g", "b", "1")},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if res.Root.Dependency == nil || res.Root.Dependency.Artifact.ArtifactID != "a" {
		t.Fatalf("expected root node to carry the root artifact's coordinate")
	}
	children := res.Root.Children()
	if len(children) != 1 {
		t.Fatalf("expected one top-level dependency under the root artifact, got %d", len(children))
	}
	child := res.Arena.Node(children[0])
	if child.Dependency.Artifact.ArtifactID != "b" {
		t.Fatalf("expected g:b as the sole top-level dependency, got %s", child.Dependency.Artifact)
	}
}
