package syncctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/golang/aetherresolve/graph"
)

// RedisBackend is a process-external broker: it coordinates Acquire/Close across separate aetherresolve processes (on
// separate machines, not just separate local repositories) the way
// FileLockBackend only coordinates processes sharing one filesystem. Locks
// are leases: a holder's key expires after TTL even if the process dies
// without releasing, so a crashed holder can never wedge a repository
// forever the way a stale OS file lock can.
type RedisBackend struct {
	Client *redis.Client
	Prefix string
	TTL     time.Duration
	Timeout time.Duration

	inProcess *InProcessBackend
	mu        sync.Mutex
}

// NewRedisBackend returns a Backend that leases keys in Redis under prefix,
// each held for ttl and renewed automatically while locked. A zero ttl
// defaults to 30s, a zero timeout (how long Lock will retry before giving
// up) defaults to 10s.
func NewRedisBackend(client *redis.Client, prefix string, ttl, timeout time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RedisBackend{
		Client:    client,
		Prefix:    prefix,
		TTL:       ttl,
		Timeout:   timeout,
		inProcess: NewInProcessBackend(),
	}
}

func (b *RedisBackend) keyFor(identity interface{}) string {
	switch v := identity.(type) {
	case graph.Coordinate:
		return b.Prefix + "artifact:" + v.GroupID + ":" + v.ArtifactID + ":" + v.Version
	case graph.GAKey:
		return b.Prefix + "metadata:" + v.GroupID + ":" + v.ArtifactID
	default:
		return b.Prefix + "unknown"
	}
}

// releaseScript deletes the lease only if it's still held by this holder's
// token, so a holder whose lease already expired and was claimed by someone
// else can't accidentally delete the new holder's lease underneath them.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// Lock acquires an in-process lock first (so same-process contention fails
// fast without a round trip), then leases the Redis key. Shared mode is
// modeled as the same exclusive lease as Exclusive, matching
// FileLockBackend's documented trade-off: a distributed RWLock would need a
// reader-registry protocol this package doesn't implement.
func (b *RedisBackend) Lock(identity interface{}, mode Mode) (func(), error) {
	releaseLocal, err := b.inProcess.Lock(identity, mode)
	if err != nil {
		return nil, err
	}

	key := b.keyFor(identity)
	token, err := randomToken()
	if err != nil {
		releaseLocal()
		return nil, errors.Wrap(err, "generating lock token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.Timeout)
	defer cancel()

	const retryInterval = 50 * time.Millisecond
	for {
		ok, err := b.Client.SetNX(ctx, key, token, b.TTL).Result()
		if err != nil {
			releaseLocal()
			return nil, errors.Wrapf(err, "acquiring redis lease for %s", key)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			releaseLocal()
			return nil, errors.Errorf("timed out waiting for redis lease on %s", key)
		case <-time.After(retryInterval):
		}
	}

	done := make(chan struct{})
	go b.renew(key, token, done)

	release := func() {
		close(done)
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		b.Client.Eval(releaseCtx, releaseScript, []string{key}, token)
		releaseLocal()
	}
	return release, nil
}

// renew refreshes the lease at half its TTL until done is closed, so a long
// resolution holding the lock doesn't see it expire out from under it.
func (b *RedisBackend) renew(key, token string, done chan struct{}) {
	ticker := time.NewTicker(b.TTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), b.TTL/2)
			b.Client.Eval(ctx, renewScript, []string{key}, token, b.TTL.Milliseconds())
			cancel()
		}
	}
}

const renewScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
