package resolver

import (
	"context"
	"testing"

	"github.com/golang/aetherresolve/collect"
	"github.com/golang/aetherresolve/connector"
	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/repository"
	"github.com/golang/aetherresolve/transport"
	"github.com/golang/aetherresolve/version"
)

type fakeDescriptors struct {
	byCoord map[string]*collect.Descriptor
}

func (f *fakeDescriptors) ReadDescriptor(ctx context.Context, coord graph.Coordinate) (*collect.Descriptor, error) {
	d, ok := f.byCoord[key(coord)]
	if !ok {
		return &collect.Descriptor{}, nil
	}
	return d, nil
}

type fakeVersions struct {
	scheme *version.Scheme
	byGA   map[string][]string
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

func key(c graph.Coordinate) string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

func dep(groupID, artifactID, constraint string) *graph.Dependency {
	d := graph.NewDependency(graph.NewCoordinate(groupID, artifactID, constraint), "compile", false)
	c, err := version.NewScheme().ParseConstraint(constraint)
	if err != nil {
		panic(err)
	}
	d.Constraint = c
	return d
}

func newFixtureCollector() *collect.Collector {
	scheme := version.NewScheme()
	descriptors := &fakeDescriptors{byCoord: map[string]*collect.Descriptor{
		"g:a:1": {Dependencies: []*graph.Dependency{dep("g", "c", "1.0")}},
	}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{
		"g:a": {"1"},
		"g:b": {"1"},
		"g:c": {"1.0"},
	}}
	return collect.NewCollector(descriptors, versions)
}

func TestSessionResolveDependencies(t *testing.T) {
	s := NewSession(newFixtureCollector(), repository.NewLocalRepositoryManager(t.TempDir(), false), nil)

	req := &collect.Request{Dependencies: []*graph.Dependency{dep("g", "a", "1"), dep("g", "b", "1")}}
	solution, err := s.ResolveDependencies(context.Background(), req)
	if err != nil {
		t.Fatalf("ResolveDependencies: %v", err)
	}
	if solution.Arena.Len() == 0 {
		t.Fatal("expected a non-empty resolved graph")
	}
}

// TestResolveArtifactsWiresSessionSyncIntoConnector guards the "Sync is
// built but never used" gap: ResolveArtifacts must hand its own sync
// context to the Connector it's given, so a write into a shared local
// repository is always lock-protected regardless of whether the caller
// remembered to set Connector.Sync itself.
func TestResolveArtifactsWiresSessionSyncIntoConnector(t *testing.T) {
	localRepo := repository.NewLocalRepositoryManager(t.TempDir(), false)
	s := NewSession(newFixtureCollector(), localRepo, nil)

	conn := &connector.Connector{
		RepositoryID: "central",
		Transporter:  transport.NewFileTransporter(t.TempDir()), // artifacts absent; downloads fail, wiring still happens
		LocalRepo:    localRepo,
		Layout:       repository.Layout{},
	}
	if conn.Sync != nil {
		t.Fatal("test setup: expected a fresh Connector to start with a nil Sync")
	}

	req := &collect.Request{Dependencies: []*graph.Dependency{dep("g", "a", "1")}}
	if _, _, err := s.ResolveArtifacts(context.Background(), req, conn); err != nil {
		t.Fatalf("ResolveArtifacts: %v", err)
	}
	if conn.Sync != s.Sync {
		t.Fatal("expected ResolveArtifacts to wire the session's Sync into the Connector")
	}
}

func TestHashInputsIsOrderIndependent(t *testing.T) {
	reqA := &collect.Request{Dependencies: []*graph.Dependency{dep("g", "a", "1"), dep("g", "b", "1")}}
	reqB := &collect.Request{Dependencies: []*graph.Dependency{dep("g", "b", "1"), dep("g", "a", "1")}}

	hashA := HashInputs(reqA)
	hashB := HashInputs(reqB)
	if string(hashA) != string(hashB) {
		t.Fatal("expected HashInputs to be independent of dependency declaration order")
	}

	reqC := &collect.Request{Dependencies: []*graph.Dependency{dep("g", "a", "2")}}
	if string(HashInputs(reqC)) == string(hashA) {
		t.Fatal("expected a different constraint to change the hash")
	}
}

func TestDiffSolutionsReportsAddedRemoved(t *testing.T) {
	scheme := version.NewScheme()
	descriptors := &fakeDescriptors{byCoord: map[string]*collect.Descriptor{}}
	versions := &fakeVersions{scheme: scheme, byGA: map[string][]string{
		"g:a": {"1"},
		"g:b": {"1"},
	}}
	s := NewSession(collect.NewCollector(descriptors, versions), repository.NewLocalRepositoryManager(t.TempDir(), false), nil)

	oldReq := &collect.Request{Dependencies: []*graph.Dependency{dep("g", "a", "1")}}
	oldSolution, err := s.ResolveDependencies(context.Background(), oldReq)
	if err != nil {
		t.Fatalf("ResolveDependencies (old): %v", err)
	}

	newReq := &collect.Request{Dependencies: []*graph.Dependency{dep("g", "b", "1")}}
	newSolution, err := s.ResolveDependencies(context.Background(), newReq)
	if err != nil {
		t.Fatalf("ResolveDependencies (new): %v", err)
	}

	d := DiffSolutions(oldSolution, newSolution)
	if len(d.Added) != 1 || d.Added[0].ArtifactID != "b" {
		t.Fatalf("expected g:b to be Added, got %+v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].ArtifactID != "a" {
		t.Fatalf("expected g:a to be Removed, got %+v", d.Removed)
	}
}
