package graph

import "github.com/armon/go-radix"

// TypedRadix is a generic wrapper around github.com/armon/go-radix, in the
// same spirit as the teacher's hand-written, type-specific radix
// wrappers — but collapsed to one generic implementation now that Go has
// type parameters, instead of one copy per stored value type.
type TypedRadix[V any] struct {
	t *radix.Tree
}

// NewTypedRadix constructs an empty radix tree over keys of the form
// "groupId/artifactId" (or any other '/'-delimited prefix space), storing
// values of type V.
func NewTypedRadix[V any]() *TypedRadix[V] {
	return &TypedRadix[V]{t: radix.New()}
}

// Insert adds or updates the entry at key, returning the previous value (if
// any) and whether one existed.
func (t *TypedRadix[V]) Insert(key string, v V) (V, bool) {
	if old, had := t.t.Insert(key, v); had {
		return old.(V), true
	}
	var zero V
	return zero, false
}

// Get looks up an exact key.
func (t *TypedRadix[V]) Get(key string) (V, bool) {
	if v, has := t.t.Get(key); has {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// Delete removes key, returning the previous value if any.
func (t *TypedRadix[V]) Delete(key string) (V, bool) {
	if v, had := t.t.Delete(key); had {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// LongestPrefix returns the value stored under the longest key that is a
// prefix of key. The collector and exclusion matching do not use it:
// exclusions are matched by GAKey.Matches.
func (t *TypedRadix[V]) LongestPrefix(key string) (string, V, bool) {
	if p, v, has := t.t.LongestPrefix(key); has {
		return p, v.(V), true
	}
	var zero V
	return "", zero, false
}

// Len reports the number of entries in the tree.
func (t *TypedRadix[V]) Len() int {
	return t.t.Len()
}

// Walk visits every entry; fn returning true halts the walk early.
func (t *TypedRadix[V]) Walk(fn func(key string, v V) bool) {
	t.t.Walk(func(s string, v interface{}) bool {
		return fn(s, v.(V))
	})
}
