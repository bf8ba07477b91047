// Package collect implements the dependency collector: expansion of a root
// request into the full transitive dependency graph, applying management,
// selection, traversal, and version filtering policies as it goes.
package collect

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/aetherresolve/graph"
)

// Descriptor is what an ArtifactDescriptorReader returns for one
// coordinate: its direct dependencies, any dependency management it
// contributes, a relocation target if the coordinate has moved, and the
// remote repositories it should be fetched from.
type Descriptor struct {
	Dependencies        []*graph.Dependency
	ManagedDependencies []*graph.Dependency
	Relocation          *graph.Coordinate
	Repositories        []string
}

// DescriptorReader is the external collaborator that reads a project
// descriptor (a POM, in Maven terms) for a coordinate. Its implementation —
// XML parsing, schema handling — is explicitly out of scope for this
// engine; the collector only depends on this interface.
type DescriptorReader interface {
	ReadDescriptor(ctx context.Context, coord graph.Coordinate) (*Descriptor, error)
}

// DescriptorError reports a failure to read an artifact descriptor. How it
// is handled (fatal, leaf fallback, or logged-and-continue) is governed by
// Policy.
type DescriptorError struct {
	Coordinate graph.Coordinate
	Cause      error
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("failed to read descriptor for %s: %v", e.Coordinate, e.Cause)
}

func (e *DescriptorError) Unwrap() error { return e.Cause }

// Policy controls how descriptor read failures are handled.
type Policy int

const (
	// Strict fails the whole resolution on any descriptor error.
	Strict Policy = iota
	// IgnoreMissing treats a dependency whose descriptor could not be
	// found as a leaf (no further recursion, no error recorded).
	IgnoreMissing
	// IgnoreInvalid records an event and continues, treating the
	// dependency as a leaf, when the descriptor was found but malformed.
	IgnoreInvalid
)

// cachedDescriptor memoizes one ReadDescriptor outcome.
type cachedDescriptor struct {
	d   *Descriptor
	err error
}

// CachingDescriptorReader wraps a DescriptorReader with a concurrent cache
// keyed on coordinate, so repeated lookups of the same artifact (common
// once management/selection start pruning candidates) hit the network or
// local repo only once. Grounded on the teacher's source-manager caching
// wrapper shape (sm_cache.go / source_cache.go): a thin decorator over the
// real reader, not a reimplementation of its fetch logic.
type CachingDescriptorReader struct {
	inner DescriptorReader

	mu    sync.Mutex
	cache map[graph.Coordinate]*cachedDescriptor
}

// NewCachingDescriptorReader wraps inner with a per-coordinate cache.
func NewCachingDescriptorReader(inner DescriptorReader) *CachingDescriptorReader {
	return &CachingDescriptorReader{inner: inner, cache: make(map[graph.Coordinate]*cachedDescriptor)}
}

// ReadDescriptor implements DescriptorReader.
func (c *CachingDescriptorReader) ReadDescriptor(ctx context.Context, coord graph.Coordinate) (*Descriptor, error) {
	c.mu.Lock()
	if e, ok := c.cache[coord]; ok {
		c.mu.Unlock()
		return e.d, e.err
	}
	c.mu.Unlock()

	d, err := c.inner.ReadDescriptor(ctx, coord)

	c.mu.Lock()
	c.cache[coord] = &cachedDescriptor{d: d, err: err}
	c.mu.Unlock()

	return d, err
}
