package collect

import (
	"fmt"
	"strings"

	"github.com/golang/aetherresolve/graph"
)

// VersionResolutionError reports that no version in the requested
// constraint could be resolved against known metadata.
type VersionResolutionError struct {
	Coordinate graph.Coordinate
	Constraint string
}

func (e *VersionResolutionError) Error() string {
	return fmt.Sprintf("no version of %s satisfies %s", e.Coordinate, e.Constraint)
}

// CycleError reports a relocation or dependency cycle detected while
// chasing a candidate's descriptor.
type CycleError struct {
	Coordinate graph.Coordinate
	Path       []graph.Coordinate
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, c := range e.Path {
		parts[i] = c.String()
	}
	return fmt.Sprintf("cycle detected at %s (path: %s)", e.Coordinate, strings.Join(parts, " -> "))
}

// CollectionError aggregates every non-fatal per-node error encountered
// during one collection run. It is raised at the end of collection only if
// non-empty and the caller asked for strict failure semantics; under
// IgnoreMissing/IgnoreInvalid most per-node errors never reach it at all.
type CollectionError struct {
	Errors []error
}

func (e *CollectionError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d errors during collection:\n%s", len(e.Errors), strings.Join(parts, "\n"))
}

// Empty reports whether no errors were collected.
func (e *CollectionError) Empty() bool {
	return e == nil || len(e.Errors) == 0
}
