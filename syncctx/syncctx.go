// Package syncctx implements the Sync Context (spec.md §4.8): coordinating
// concurrent access to the same artifact or metadata across goroutines in
// this process and, via advisory file locks, across other processes
// sharing the same local repository.
package syncctx

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/golang/aetherresolve/graph"
)

// Mode is the access mode a key is acquired under.
type Mode int

const (
	// Shared allows any number of concurrent holders, for reads.
	Shared Mode = iota
	// Exclusive allows exactly one holder, for writes.
	Exclusive
)

// Key identifies what's being locked: an artifact coordinate, or a
// (groupId, artifactId) pair for metadata such as maven-metadata.xml.
type Key struct {
	Artifact *graph.Coordinate
	Metadata *graph.GAKey
}

// ArtifactKey builds a Key for one artifact coordinate.
func ArtifactKey(coord graph.Coordinate) Key { return Key{Artifact: &coord} }

// MetadataKey builds a Key for a (groupId, artifactId) metadata pair.
func MetadataKey(ga graph.GAKey) Key { return Key{Metadata: &ga} }

func (k Key) identity() interface{} {
	if k.Artifact != nil {
		return *k.Artifact
	}
	return *k.Metadata
}

// Backend is the pluggable locking implementation a Context delegates to
// per key. InProcessBackend coordinates goroutines, FileLockBackend adds
// cross-process coordination on one machine sharing a local repository, and
// RedisBackend adds cross-machine coordination via a leased key. A Backend
// only has to grant and release a key once per caller; Context itself is
// what makes a reentrant acquire from the same logical caller a no-op, so
// no Backend implementation needs its own reentrancy bookkeeping.
type Backend interface {
	// Lock blocks until identity can be held under mode by the calling
	// goroutine, returning a release function.
	Lock(identity interface{}, mode Mode) (release func(), err error)
}

// owner identifies the logical caller a chain of Acquire calls belongs to,
// for reentrancy. Go has no supported way to read a goroutine id, so rather
// than reach for one (none of the examples do either), the owner travels
// explicitly through context.Context: Acquire stamps one into the context
// it returns, and a caller that threads that context into a nested Acquire
// is recognized as already holding whatever keys it holds.
type owner struct{ id uint64 }

var ownerSeq uint64

func newOwner() *owner { return &owner{id: atomic.AddUint64(&ownerSeq, 1)} }

type ownerContextKey struct{}

func ownerFromContext(ctx context.Context) (*owner, bool) {
	o, ok := ctx.Value(ownerContextKey{}).(*owner)
	return o, ok
}

// Context coordinates acquiring a batch of keys together and releasing them
// as a unit, matching spec.md's acquire(artifactKeys, metadataKeys,
// exclusive)/close() contract. It also enforces the reentrancy spec.md §4.8
// requires: a second Acquire for a key already held by the same owner (per
// the context-threading rule above) succeeds immediately instead of
// deadlocking against the backend lock the first Acquire still holds.
type Context struct {
	backend Backend

	mu   sync.Mutex
	held map[heldKey]*heldEntry
}

type heldKey struct {
	identity interface{}
	owner    *owner
}

type heldEntry struct {
	mode    Mode
	count   int
	release func()
}

// New builds a Context backed by backend.
func New(backend Backend) *Context {
	return &Context{backend: backend, held: make(map[heldKey]*heldEntry)}
}

// Handle is returned by Acquire; Close releases every key it holds, in
// reverse acquisition order, matching typical lock-ordering discipline.
type Handle struct {
	releases []func()
}

// Close releases every key held by this handle. Safe to call once; a
// second call is a no-op.
func (h *Handle) Close() {
	for i := len(h.releases) - 1; i >= 0; i-- {
		h.releases[i]()
	}
	h.releases = nil
}

// Acquire blocks until every key in keys can be held under mode, returning
// a Handle whose Close releases them all and a context carrying this call's
// owner token. Keys are acquired one at a time in the order given; they are
// not reordered, so two callers passing an overlapping key set in different
// orders can deadlock each other.
//
// If ctx already carries an owner token (because it's the context an outer
// Acquire returned), that owner is reused, so this call is recognized as
// the same logical caller: any key already held by that owner is not
// re-acquired from the backend, only reference-counted, which is what makes
// a reentrant exclusive acquire of the same key from the same call chain
// succeed instead of deadlocking. Upgrading a key already held Shared to
// Exclusive within the same owner is refused rather than risked, since two
// owners both trying to upgrade the same shared hold would deadlock each
// other exactly like a classic lock upgrade.
func (c *Context) Acquire(ctx context.Context, keys []Key, mode Mode) (*Handle, context.Context, error) {
	o, ok := ownerFromContext(ctx)
	if !ok {
		o = newOwner()
		ctx = context.WithValue(ctx, ownerContextKey{}, o)
	}

	h := &Handle{releases: make([]func(), 0, len(keys))}
	for _, k := range keys {
		release, err := c.acquireOne(k.identity(), o, mode)
		if err != nil {
			h.Close()
			return nil, ctx, err
		}
		h.releases = append(h.releases, release)
	}
	return h, ctx, nil
}

func (c *Context) acquireOne(identity interface{}, o *owner, mode Mode) (func(), error) {
	hk := heldKey{identity: identity, owner: o}

	c.mu.Lock()
	if e, already := c.held[hk]; already {
		if e.mode != Exclusive && mode == Exclusive {
			c.mu.Unlock()
			return nil, errors.Errorf("cannot reentrantly upgrade a shared hold on %v to exclusive", identity)
		}
		e.count++
		c.mu.Unlock()
		return func() { c.releaseOne(hk) }, nil
	}
	c.mu.Unlock()

	release, err := c.backend.Lock(identity, mode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.held[hk] = &heldEntry{mode: mode, count: 1, release: release}
	c.mu.Unlock()
	return func() { c.releaseOne(hk) }, nil
}

func (c *Context) releaseOne(hk heldKey) {
	c.mu.Lock()
	e, ok := c.held[hk]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.count--
	if e.count > 0 {
		c.mu.Unlock()
		return
	}
	delete(c.held, hk)
	c.mu.Unlock()
	e.release()
}

// InProcessBackend implements Backend with per-key sync.RWMutex instances.
// It is not itself reentrant — Context above is what makes a reentrant
// acquire safe — so a direct, repeated Lock(identity, Exclusive) call from
// the same goroutine without going through a Context would still deadlock,
// same as a bare sync.Mutex would.
type InProcessBackend struct {
	mu    sync.Mutex
	locks map[interface{}]*rwEntry
}

type rwEntry struct {
	mu sync.RWMutex
}

// NewInProcessBackend returns a Backend usable within a single process.
func NewInProcessBackend() *InProcessBackend {
	return &InProcessBackend{locks: make(map[interface{}]*rwEntry)}
}

func (b *InProcessBackend) entryFor(identity interface{}) *rwEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.locks[identity]
	if !ok {
		e = &rwEntry{}
		b.locks[identity] = e
	}
	return e
}

func (b *InProcessBackend) Lock(identity interface{}, mode Mode) (func(), error) {
	e := b.entryFor(identity)
	if mode == Exclusive {
		e.mu.Lock()
		return e.mu.Unlock, nil
	}
	e.mu.RLock()
	return e.mu.RUnlock, nil
}
