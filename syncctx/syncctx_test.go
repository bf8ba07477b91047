package syncctx

import (
	"context"
	"testing"
	"time"

	"github.com/golang/aetherresolve/graph"
)

func TestInProcessBackendExclusiveBlocksUntilReleased(t *testing.T) {
	ctx := New(NewInProcessBackend())
	coord := graph.NewCoordinate("org.example", "widget", "1.0")

	h, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Exclusive)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		h2, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Exclusive)
		if err != nil {
			t.Errorf("second Acquire: %v", err)
			return
		}
		h2.Close()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second exclusive acquire should have blocked while the first handle is open")
	case <-time.After(50 * time.Millisecond):
	}

	h.Close()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after the first handle closed")
	}
}

func TestInProcessBackendSharedAllowsConcurrentReaders(t *testing.T) {
	ctx := New(NewInProcessBackend())
	coord := graph.NewCoordinate("org.example", "widget", "1.0")

	h1, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Shared)
	if err != nil {
		t.Fatalf("Acquire 1: %v", err)
	}
	defer h1.Close()

	done := make(chan struct{})
	go func() {
		h2, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Shared)
		if err != nil {
			t.Errorf("Acquire 2: %v", err)
			return
		}
		h2.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("two shared acquisitions of the same key should not block each other")
	}
}

func TestAcquireMetadataKey(t *testing.T) {
	ctx := New(NewInProcessBackend())
	ga := graph.GAKey{GroupID: "org.example", ArtifactID: "widget"}

	h, _, err := ctx.Acquire(context.Background(), []Key{MetadataKey(ga)}, Exclusive)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h.Close()
	// Closing twice must not panic.
	h.Close()
}

func TestAcquireMultipleKeysPropagatesLaterKeyFailure(t *testing.T) {
	ctx := New(&failingBackend{failOn: 1})
	coord1 := graph.NewCoordinate("org.example", "a", "1.0")
	coord2 := graph.NewCoordinate("org.example", "b", "1.0")

	_, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord1), ArtifactKey(coord2)}, Exclusive)
	if err == nil {
		t.Fatal("expected the second key's failure to propagate")
	}
}

type failingBackend struct {
	calls  int
	failOn int
}

func (b *failingBackend) Lock(identity interface{}, mode Mode) (func(), error) {
	i := b.calls
	b.calls++
	if i == b.failOn {
		return nil, errLockFailed
	}
	return func() {}, nil
}

var errLockFailed = &lockError{"simulated lock failure"}

type lockError struct{ msg string }

func (e *lockError) Error() string { return e.msg }

func TestFileLockBackendAcquireAndRelease(t *testing.T) {
	ctx := New(NewFileLockBackend(t.TempDir()))
	coord := graph.NewCoordinate("org.example", "widget", "1.0")

	h, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Exclusive)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h.Close()

	// A second acquisition after release must succeed without blocking.
	h2, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Exclusive)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	h2.Close()
}

// TestReentrantAcquireWithinSameOwnerDoesNotDeadlock is the case the bug
// report flagged: a caller that already holds a key exclusively, and that
// threads the context Acquire returned into a nested Acquire for the same
// key, must not block against itself.
func TestReentrantAcquireWithinSameOwnerDoesNotDeadlock(t *testing.T) {
	ctx := New(NewInProcessBackend())
	coord := graph.NewCoordinate("org.example", "widget", "1.0")

	h1, ownedCtx, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Exclusive)
	if err != nil {
		t.Fatalf("outer Acquire: %v", err)
	}

	done := make(chan struct{})
	go func() {
		h2, _, err := ctx.Acquire(ownedCtx, []Key{ArtifactKey(coord)}, Exclusive)
		if err != nil {
			t.Errorf("reentrant Acquire: %v", err)
			return
		}
		h2.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reentrant acquire of a key already held by the same owner deadlocked")
	}

	// The backend lock must still be held until the outer handle closes:
	// a distinct owner (fresh context) must still block.
	blocked := make(chan struct{})
	go func() {
		h3, _, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Exclusive)
		if err != nil {
			t.Errorf("third-party Acquire: %v", err)
			return
		}
		h3.Close()
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("a different owner should not have been able to acquire while the outer handle is still open")
	case <-time.After(50 * time.Millisecond):
	}

	h1.Close()

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("third-party acquire never completed after the outer handle closed")
	}
}

// TestReentrantUpgradeFromSharedToExclusiveIsRefused guards the one
// reentrancy case this Context deliberately doesn't allow: upgrading an
// already-held shared lock to exclusive within the same owner, which would
// deadlock against any other concurrent shared holder doing the same thing.
func TestReentrantUpgradeFromSharedToExclusiveIsRefused(t *testing.T) {
	ctx := New(NewInProcessBackend())
	coord := graph.NewCoordinate("org.example", "widget", "1.0")

	h, ownedCtx, err := ctx.Acquire(context.Background(), []Key{ArtifactKey(coord)}, Shared)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer h.Close()

	_, _, err = ctx.Acquire(ownedCtx, []Key{ArtifactKey(coord)}, Exclusive)
	if err == nil {
		t.Fatal("expected reentrant shared-to-exclusive upgrade to be refused")
	}
}
