package resolve

import (
	"fmt"
	"strings"

	"github.com/golang/aetherresolve/graph"
)

// UnsolvableVersionConflict reports that a conflict group's accumulated hard
// constraints intersect to the empty set: no single version can satisfy
// every occurrence's range simultaneously.
type UnsolvableVersionConflict struct {
	Group graph.ConflictKey
	Paths [][]graph.Coordinate
}

func (e *UnsolvableVersionConflict) Error() string {
	parts := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		segs := make([]string, len(p))
		for j, c := range p {
			segs[j] = c.String()
		}
		parts[i] = strings.Join(segs, " -> ")
	}
	return fmt.Sprintf("unsolvable version conflict for %s:%s: contributing paths:\n%s",
		e.Group.GroupID, e.Group.ArtifactID, strings.Join(parts, "\n"))
}

// CycleBreak records a back-edge broken while topologically sorting conflict
// groups, so callers can report it without the resolver having failed.
type CycleBreak struct {
	From, To graph.ConflictKey
	Depth    int
}
