package resolver

import (
	"crypto/sha256"
	"sort"

	"github.com/golang/aetherresolve/collect"
	"github.com/golang/aetherresolve/graph"
)

// HashInputs computes a digest of everything that would affect the outcome
// of a resolution, grounded on the teacher's solver.HashInputs (hash.go):
// sorting the dependency list by name before hashing so the digest is
// stable regardless of declaration order, then writing name and constraint
// string pairs into a running SHA-256. A caller comparing this digest
// against one stored alongside a previous Solution can skip re-resolving
// entirely when nothing that matters changed.
func HashInputs(req *collect.Request) []byte {
	type keyed struct {
		name       string
		constraint string
	}
	var entries []keyed
	add := func(dep *graph.Dependency) {
		if dep == nil {
			return
		}
		c := ""
		if dep.Constraint != nil {
			c = dep.Constraint.String()
		}
		entries = append(entries, keyed{name: dep.Artifact.String(), constraint: c})
	}
	add(req.RootDependency)
	for _, dep := range req.Dependencies {
		add(dep)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e.name))
		h.Write([]byte("\x00"))
		h.Write([]byte(e.constraint))
		h.Write([]byte("\x00"))
	}
	for _, repo := range req.Repositories {
		h.Write([]byte(repo))
		h.Write([]byte("\x00"))
	}
	return h.Sum(nil)
}
