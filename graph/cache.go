package graph

import "sync"

// RepositoryCache is the session-scoped key→opaque cache described in the
// data model's Lifecycle section. Values are opaque to the cache itself;
// callers that hand out a cached value must not mutate it afterward (or
// must clone before mutating), since the cache may hand the same value to
// concurrent readers.
type RepositoryCache interface {
	Get(key interface{}) (interface{}, bool)
	Put(key interface{}, value interface{})
}

// memoryCache is the default, in-process RepositoryCache: a concurrent map
// with no eviction, scoped to the lifetime of the session that owns it.
type memoryCache struct {
	m sync.Map
}

// NewMemoryCache constructs a RepositoryCache backed by a sync.Map.
func NewMemoryCache() RepositoryCache {
	return &memoryCache{}
}

func (c *memoryCache) Get(key interface{}) (interface{}, bool) {
	return c.m.Load(key)
}

func (c *memoryCache) Put(key interface{}, value interface{}) {
	c.m.Store(key, value)
}
