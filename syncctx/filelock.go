package syncctx

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/theckman/go-flock"

	"github.com/golang/aetherresolve/graph"
)

// FileLockBackend coordinates across processes sharing the same local
// repository using advisory file locks (one lock file per key, under Dir).
// Within this process it layers an InProcessBackend ahead of the OS file
// lock, since an OS file lock held by a process doesn't by itself stop two
// goroutines in that same process from racing each other; reentrancy for
// both layers is provided by the owning Context, not by this Backend.
type FileLockBackend struct {
	Dir string

	inProcess *InProcessBackend

	mu     sync.Mutex
	flocks map[interface{}]*flock.Flock
}

// NewFileLockBackend roots per-key lock files under dir.
func NewFileLockBackend(dir string) *FileLockBackend {
	return &FileLockBackend{Dir: dir, inProcess: NewInProcessBackend(), flocks: make(map[interface{}]*flock.Flock)}
}

func (b *FileLockBackend) flockFor(identity interface{}) *flock.Flock {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.flocks[identity]
	if !ok {
		f = flock.NewFlock(filepath.Join(b.Dir, lockFileName(identity)))
		b.flocks[identity] = f
	}
	return f
}

func lockFileName(identity interface{}) string {
	switch v := identity.(type) {
	case graph.Coordinate:
		return fmt.Sprintf("%s_%s_%s_%s_%s.lock", v.GroupID, v.ArtifactID, v.Extension, v.Classifier, v.Version)
	case graph.GAKey:
		return fmt.Sprintf("%s_%s.metadata.lock", v.GroupID, v.ArtifactID)
	default:
		return fmt.Sprintf("%v.lock", v)
	}
}

// Lock acquires both the in-process lock and the advisory OS file
// lock for identity, in that order, so the in-process check fails fast
// before ever touching the filesystem.
func (b *FileLockBackend) Lock(identity interface{}, mode Mode) (func(), error) {
	releaseInProcess, err := b.inProcess.Lock(identity, mode)
	if err != nil {
		return nil, err
	}

	f := b.flockFor(identity)
	if mode == Exclusive {
		if err := f.Lock(); err != nil {
			releaseInProcess()
			return nil, errors.Wrap(err, "acquiring exclusive file lock")
		}
	} else {
		// go-flock exposes Lock/TryLock/Unlock without a distinct shared
		// mode on every platform; this engine only needs mutual exclusion
		// between processes (reads within one process are already
		// reconciled by the in-process RWMutex layer above), so a shared
		// acquisition here is modeled as the same exclusive OS lock.
		if err := f.Lock(); err != nil {
			releaseInProcess()
			return nil, errors.Wrap(err, "acquiring file lock")
		}
	}

	release := func() {
		f.Unlock()
		releaseInProcess()
	}
	return release, nil
}
