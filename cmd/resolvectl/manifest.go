package main

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/golang/aetherresolve/collect"
	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/version"
)

// registryManifest is a standalone, offline stand-in for the remote POM and
// maven-metadata.xml lookups this engine explicitly leaves out of scope: it
// declares, for a fixed set of (groupId, artifactId) pairs, what versions
// exist and what that artifact depends on. dependsOn is declared once per
// artifact rather than once per version — a CLI-fixture simplification of
// the real Maven model, where different versions can carry different POMs.
// Grounded on the teacher's manifest.go/toml.go TOML-struct-tag loading,
// generalized from one project's own constraints to a small multi-artifact
// registry a resolvectl invocation resolves against.
type registryManifest struct {
	Artifacts []artifactEntry `toml:"artifacts"`
}

type artifactEntry struct {
	GroupID    string            `toml:"groupId"`
	ArtifactID string            `toml:"artifactId"`
	Versions   []string          `toml:"versions"`
	DependsOn  []dependencyEntry `toml:"dependsOn"`
}

type dependencyEntry struct {
	GroupID    string `toml:"groupId"`
	ArtifactID string `toml:"artifactId"`
	Constraint string `toml:"constraint"`
	Scope      string `toml:"scope"`
	Optional   bool   `toml:"optional"`
}

func loadRegistryManifest(path string) (*registryManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading registry manifest %s", path)
	}
	var m registryManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing registry manifest %s", path)
	}
	return &m, nil
}

// manifestRegistry indexes a registryManifest by (groupId, artifactId) and
// implements both collect.DescriptorReader and collect.VersionResolver over
// it, so a single TOML file can drive a full offline resolution.
type manifestRegistry struct {
	scheme *version.Scheme
	byGA   map[string]*artifactEntry
}

func newManifestRegistry(scheme *version.Scheme, m *registryManifest) (*manifestRegistry, error) {
	r := &manifestRegistry{scheme: scheme, byGA: make(map[string]*artifactEntry, len(m.Artifacts))}
	for i := range m.Artifacts {
		a := &m.Artifacts[i]
		key := a.GroupID + ":" + a.ArtifactID
		if _, dup := r.byGA[key]; dup {
			return nil, errors.Errorf("registry manifest declares %s more than once", key)
		}
		r.byGA[key] = a
	}
	return r, nil
}

// ResolveVersions implements collect.VersionResolver, returning matching
// candidates highest-version-first as the collector's "try highest first"
// step requires.
func (r *manifestRegistry) ResolveVersions(ctx context.Context, coord graph.Coordinate, constraint *version.Constraint) ([]*version.Version, error) {
	a, ok := r.byGA[coord.GroupID+":"+coord.ArtifactID]
	if !ok {
		return nil, nil
	}
	var out []*version.Version
	for _, raw := range a.Versions {
		v, err := r.scheme.ParseVersion(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing version %q for %s:%s", raw, a.GroupID, a.ArtifactID)
		}
		if constraint == nil || constraint.ContainsVersion(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompareTo(out[j]) > 0 })
	return out, nil
}

func (r *manifestRegistry) dependencyFrom(e dependencyEntry) (*graph.Dependency, error) {
	c, err := r.scheme.ParseConstraint(e.Constraint)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing constraint %q for %s:%s", e.Constraint, e.GroupID, e.ArtifactID)
	}
	scope := e.Scope
	if scope == "" {
		scope = "compile"
	}
	dep := graph.NewDependency(graph.NewCoordinate(e.GroupID, e.ArtifactID, ""), scope, e.Optional)
	dep.Constraint = c
	return dep, nil
}

// ReadDescriptor implements collect.DescriptorReader.
func (r *manifestRegistry) ReadDescriptor(ctx context.Context, coord graph.Coordinate) (*collect.Descriptor, error) {
	a, ok := r.byGA[coord.GroupID+":"+coord.ArtifactID]
	if !ok {
		return nil, errors.Errorf("no registry entry for %s:%s", coord.GroupID, coord.ArtifactID)
	}
	out := &collect.Descriptor{}
	for _, e := range a.DependsOn {
		dep, err := r.dependencyFrom(e)
		if err != nil {
			return nil, err
		}
		out.Dependencies = append(out.Dependencies, dep)
	}
	return out, nil
}

// parseRootDependencies parses a slice of "groupId:artifactId:constraint"
// command-line arguments into compile-scope Dependencies.
func parseRootDependencies(scheme *version.Scheme, specs []string) ([]*graph.Dependency, error) {
	deps := make([]*graph.Dependency, 0, len(specs))
	for _, spec := range specs {
		dep, err := parseCoordinateSpec(scheme, spec)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func parseCoordinateSpec(scheme *version.Scheme, spec string) (*graph.Dependency, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return nil, errors.Errorf("invalid coordinate %q, want groupId:artifactId:constraint", spec)
	}
	groupID, artifactID, constraintStr := parts[0], parts[1], parts[2]

	c, err := scheme.ParseConstraint(constraintStr)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing constraint in %q", spec)
	}
	dep := graph.NewDependency(graph.NewCoordinate(groupID, artifactID, ""), "compile", false)
	dep.Constraint = c
	return dep, nil
}
