package resolver

import "github.com/golang/aetherresolve/graph"

// Change records one (groupId, artifactId, classifier, extension) group
// whose resolved version differs between two solutions.
type Change struct {
	Key        graph.ConflictKey
	OldVersion string
	NewVersion string
}

// Diff reports added/removed/changed coordinates between two resolutions,
// keyed by conflict group the way the teacher's status command reports one
// row per project: a row present only in New is Added, present only in Old
// is Removed, and present in both with a different resolved version is a
// Change.
type Diff struct {
	Added   []graph.Coordinate
	Removed []graph.Coordinate
	Changed []Change
}

func collectByGroup(s *Solution) map[graph.ConflictKey]graph.Coordinate {
	out := make(map[graph.ConflictKey]graph.Coordinate)
	if s == nil {
		return out
	}
	s.Arena.Walk(s.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n == s.Root || n.Dependency == nil {
			return true
		}
		out[graph.ConflictKeyOf(n.Dependency.Artifact)] = n.Dependency.Artifact
		return true
	})
	return out
}

// DiffSolutions computes the Diff between an old and an updated Solution. A
// nil old Solution reports every coordinate in updated as Added.
func DiffSolutions(old, updated *Solution) Diff {
	oldByGroup := collectByGroup(old)
	newByGroup := collectByGroup(updated)

	var d Diff
	for key, coord := range newByGroup {
		oldCoord, existed := oldByGroup[key]
		if !existed {
			d.Added = append(d.Added, coord)
			continue
		}
		if oldCoord.Version != coord.Version {
			d.Changed = append(d.Changed, Change{Key: key, OldVersion: oldCoord.Version, NewVersion: coord.Version})
		}
	}
	for key, coord := range oldByGroup {
		if _, stillPresent := newByGroup[key]; !stillPresent {
			d.Removed = append(d.Removed, coord)
		}
	}
	return d
}
