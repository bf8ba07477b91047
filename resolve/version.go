package resolve

import (
	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/version"
)

// versionPick is the outcome of nearest-wins version selection for one
// conflict group: the winning version and the occurrence that carried it.
type versionPick struct {
	Version    *version.Version
	Occurrence *occurrence
}

// selectVersion implements phase (c): iterate occurrences in discovery
// order, accumulating hard (ranged) constraints into an intersection and
// backtracking the kept candidate set whenever a new hard constraint
// narrows it. The winner among survivors is nearest (smallest depth), ties
// broken by higher version.
func selectVersion(group graph.ConflictKey, occs []*occurrence) (*versionPick, error) {
	var accumulated []*version.Range
	var kept []*occurrence

	for _, occ := range occs {
		c := occ.node.Constraint
		if c != nil && len(c.Ranges) > 0 {
			if accumulated == nil {
				accumulated = append([]*version.Range{}, c.Ranges...)
			} else {
				accumulated = intersectRangeSets(accumulated, c.Ranges)
			}
			if len(accumulated) == 0 {
				return nil, &UnsolvableVersionConflict{Group: group, Paths: pathsOf(occs)}
			}
			kept = reselect(kept, accumulated)
		}
		if accumulated == nil || rangesContain(accumulated, occ.node.Version) {
			kept = append(kept, occ)
		}
	}

	if len(kept) == 0 {
		return nil, &UnsolvableVersionConflict{Group: group, Paths: pathsOf(occs)}
	}

	best := kept[0]
	for _, k := range kept[1:] {
		if k.depth < best.depth {
			best = k
			continue
		}
		if k.depth == best.depth && k.node.Version.CompareTo(best.node.Version) > 0 {
			best = k
		}
	}
	return &versionPick{Version: best.node.Version, Occurrence: best}, nil
}

// reselect drops kept occurrences whose version no longer lies within the
// freshly narrowed accumulated range set.
func reselect(kept []*occurrence, accumulated []*version.Range) []*occurrence {
	var out []*occurrence
	for _, k := range kept {
		if rangesContain(accumulated, k.node.Version) {
			out = append(out, k)
		}
	}
	return out
}

func rangesContain(ranges []*version.Range, v *version.Version) bool {
	if v == nil {
		return false
	}
	for _, r := range ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// intersectRangeSets computes the pairwise intersection of two disjunctive
// range sets, keeping every non-empty pairwise result.
func intersectRangeSets(a, b []*version.Range) []*version.Range {
	var out []*version.Range
	for _, ra := range a {
		for _, rb := range b {
			if r, ok := ra.Intersect(rb); ok {
				out = append(out, r)
			}
		}
	}
	return out
}

func pathsOf(occs []*occurrence) [][]graph.Coordinate {
	out := make([][]graph.Coordinate, len(occs))
	for i, o := range occs {
		out[i] = append(append([]graph.Coordinate{}, o.path...), o.node.Dependency.Artifact)
	}
	return out
}
