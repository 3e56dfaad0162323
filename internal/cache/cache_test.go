package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "w")
	now = now.Add(30 * time.Second)
	c.Set("fresh", "x")

	now = now.Add(45 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Len())
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
	c.Set("c", 3)
	assert.Equal(t, 1, c.Len())
}

func TestVersionedInvalidate(t *testing.T) {
	v := NewVersioned[int](8, time.Minute)
	calls := 0
	compute := func() int { calls++; return calls }

	assert.Equal(t, 1, v.GetOrCompute("2024-03", compute))
	assert.Equal(t, 1, v.GetOrCompute("2024-03", compute))
	v.Invalidate()
	assert.Equal(t, 2, v.GetOrCompute("2024-03", compute))

	hits, misses := v.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestVersionedLateStoreIsNotServed(t *testing.T) {
	v := NewVersioned[string](8, time.Minute)
	got := v.GetOrCompute("k", func() string {
		v.Invalidate()
		return "stale"
	})
	assert.Equal(t, "stale", got)
	assert.Equal(t, "fresh", v.GetOrCompute("k", func() string { return "fresh" }))
}
