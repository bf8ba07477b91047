// Package resolver is the session/orchestration root: it wires collect,
// resolve, repository, connector, and syncctx into the two public entry
// points spec.md §6 names (ResolveDependencies, ResolveArtifacts), mirroring
// the teacher's Ctx composition root (context.go) that wires a SourceManager
// and cache directory once per process.
package resolver

import (
	"context"

	"github.com/golang/aetherresolve/collect"
	"github.com/golang/aetherresolve/connector"
	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/repository"
	"github.com/golang/aetherresolve/resolve"
	"github.com/golang/aetherresolve/syncctx"
)

// Session is the shared, thread-safe configuration object spec.md §5
// describes: its mutable parts (the descriptor cache, the active sync
// context) are internally synchronized, so the same Session can back
// concurrent resolutions.
type Session struct {
	Collector *collect.Collector
	Resolver  *resolve.Resolver
	LocalRepo *repository.LocalRepositoryManager
	Sync      *syncctx.Context
	Mirrors   *repository.MirrorSelector
}

// NewSession wires the given collector, local repository manager, and sync
// backend into a session using the default resolve.Resolver policies. A nil
// syncBackend falls back to in-process locking only.
func NewSession(c *collect.Collector, localRepo *repository.LocalRepositoryManager, syncBackend syncctx.Backend) *Session {
	if syncBackend == nil {
		syncBackend = syncctx.NewInProcessBackend()
	}
	return &Session{
		Collector: c,
		Resolver:  resolve.NewResolver(),
		LocalRepo: localRepo,
		Sync:      syncctx.New(syncBackend),
	}
}

// Solution is the outcome of a full dependency resolution: the pruned DAG
// (one node per conflict group) and any cycle back-edges that had to be
// broken to make it acyclic.
type Solution struct {
	Arena  *graph.Arena
	Root   *graph.Node
	Breaks []resolve.CycleBreak
}

// ResolveDependencies runs collection followed by conflict resolution for
// req, returning the final pruned dependency graph. This is the read path:
// it never touches the local repository or a connector, only collect.go's
// descriptor/version metadata lookups.
func (s *Session) ResolveDependencies(ctx context.Context, req *collect.Request) (*Solution, error) {
	collected, err := s.Collector.Collect(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := s.Resolver.Resolve(collected.Arena, collected.Root)
	if err != nil {
		return nil, err
	}
	return &Solution{Arena: result.Arena, Root: result.Root, Breaks: result.Breaks}, nil
}

// ArtifactResult pairs a resolved coordinate with the local path its bytes
// ended up at, or the error that prevented that.
type ArtifactResult struct {
	Coordinate graph.Coordinate
	LocalPath  string
	Err        error
}

// ResolveArtifacts runs ResolveDependencies, then downloads every node in
// the resulting graph through conn, returning one ArtifactResult per
// resolved node. Nodes sharing a conflict group (and therefore a single
// arena node, reached from multiple parents) are only downloaded once:
// Solution.Arena already holds one node per group, so a Walk that dedupes
// by node ID naturally downloads each distinct artifact exactly once even
// though the DAG may reach it through more than one path.
func (s *Session) ResolveArtifacts(ctx context.Context, req *collect.Request, conn *connector.Connector) ([]ArtifactResult, *Solution, error) {
	solution, err := s.ResolveDependencies(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	// The session's sync context is the single source of truth for
	// serializing writes into LocalRepo; a caller-supplied Connector always
	// gets this one wired in, regardless of whether it set Sync itself, so
	// a shared local repository is never written to without a lock keyed
	// on the artifact (spec.md §5).
	conn.Sync = s.Sync

	seen := make(map[graph.NodeID]bool)
	var downloads []connector.DownloadRequest
	var coords []graph.Coordinate
	solution.Arena.Walk(solution.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n == solution.Root || n.Dependency == nil || seen[n.ID] {
			return true
		}
		seen[n.ID] = true
		downloads = append(downloads, connector.DownloadRequest{Coordinate: n.Dependency.Artifact})
		coords = append(coords, n.Dependency.Artifact)
		return true
	})

	results := conn.GetArtifacts(ctx, downloads)
	out := make([]ArtifactResult, len(results))
	for i, r := range results {
		out[i] = ArtifactResult{Coordinate: coords[i], LocalPath: r.LocalPath, Err: r.Err}
	}
	return out, solution, nil
}
