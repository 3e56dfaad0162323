// Package cache holds computed views of the ledger between changes.
package cache

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Versioned wraps an LRU with a generation counter. Invalidate bumps the
// generation, so entries computed before a change are never served after it,
// even if a computation that started earlier stores its result late.
type Versioned[T any] struct {
	lru        *LRU[T]
	generation atomic.Uint64
	hits       atomic.Uint64
	misses     atomic.Uint64
}

func NewVersioned[T any](maxSize int, ttl time.Duration) *Versioned[T] {
	return &Versioned[T]{lru: NewLRU[T](maxSize, ttl)}
}

// Invalidate makes every cached value stale and frees them.
func (v *Versioned[T]) Invalidate() {
	v.generation.Add(1)
	v.lru.Purge()
}

// GetOrCompute returns the cached value for key or stores compute's result.
// compute runs without any lock held.
func (v *Versioned[T]) GetOrCompute(key string, compute func() T) T {
	k := strconv.FormatUint(v.generation.Load(), 10) + "|" + key
	if data, ok := v.lru.Get(k); ok {
		v.hits.Add(1)
		return data
	}
	v.misses.Add(1)
	data := compute()
	v.lru.Set(k, data)
	return data
}

// Stats returns hit and miss counts since creation.
func (v *Versioned[T]) Stats() (hits, misses uint64) {
	return v.hits.Load(), v.misses.Load()
}

func (v *Versioned[T]) Len() int { return v.lru.Len() }
