package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_New(t *testing.T) {
	cache := NewResultCache[string, int](4)

	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_PutAndGet(t *testing.T) {
	cache := NewResultCache[string, int](4)

	cache.Put("a", 1)

	got, ok := cache.Get("a")
	require.True(t, ok, "expected to find key a")
	assert.Equal(t, 1, got)
}

func TestResultCache_Get_NotFound(t *testing.T) {
	cache := NewResultCache[string, int](4)

	_, ok := cache.Get("missing")
	assert.False(t, ok, "expected not to find missing key")
}

func TestResultCache_EvictsOldest(t *testing.T) {
	cache := NewResultCache[string, int](2)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	_, ok := cache.Get("a")
	assert.False(t, ok, "expected oldest entry to be evicted")

	got, ok := cache.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, got)

	got, ok = cache.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, got)

	assert.Equal(t, 2, cache.Len())
}

func TestResultCache_OverwriteKeepsEvictionSlot(t *testing.T) {
	cache := NewResultCache[string, int](2)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("a", 10)
	cache.Put("c", 3)

	// "a" stays oldest despite the overwrite, so it is the one evicted.
	_, ok := cache.Get("a")
	assert.False(t, ok, "expected overwritten entry to keep its slot and be evicted")

	got, ok := cache.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestResultCache_Unbounded(t *testing.T) {
	cache := NewResultCache[int, int](0)

	for i := 0; i < 500; i++ {
		cache.Put(i, i*2)
	}

	assert.Equal(t, 500, cache.Len())
	got, ok := cache.Get(499)
	require.True(t, ok)
	assert.Equal(t, 998, got)
}

func TestResultCache_Delete(t *testing.T) {
	cache := NewResultCache[string, int](4)
	cache.Put("a", 1)
	cache.Put("b", 2)

	cache.Delete("a")

	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())

	// Deleting a missing key is a no-op.
	cache.Delete("missing")
	assert.Equal(t, 1, cache.Len())
}

func TestResultCache_Reset(t *testing.T) {
	cache := NewResultCache[string, int](4)
	cache.Put("a", 1)
	cache.Put("b", 2)

	cache.Reset()

	assert.Equal(t, 0, cache.Len())

	// Still usable after reset.
	cache.Put("c", 3)
	got, ok := cache.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestResultCache_Stats(t *testing.T) {
	cache := NewResultCache[string, int](4)
	cache.Put("a", 1)

	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	hits, misses := cache.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestResultCache_Concurrent(t *testing.T) {
	cache := NewResultCache[int, int](128)
	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			cache.Put(k, k*10)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, cache.Len())

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			cache.Get(k)
		}(i)
	}
	wg.Wait()
}

// SafeCounter tests

func TestSafeCounter_ZeroValue(t *testing.T) {
	c := &SafeCounter{}
	assert.Equal(t, 0, c.Value("never"))
	assert.Empty(t, c.Snapshot())
}

func TestSafeCounter_IncAndAdd(t *testing.T) {
	c := &SafeCounter{}

	c.Inc("cluster.click")
	c.Inc("cluster.click")
	c.Add("tour.start", 3)

	assert.Equal(t, 2, c.Value("cluster.click"))
	assert.Equal(t, 3, c.Value("tour.start"))
	assert.Equal(t, 0, c.Value("tour.stop"))
}

func TestSafeCounter_SnapshotIsCopy(t *testing.T) {
	c := &SafeCounter{}
	c.Inc("a")

	snap := c.Snapshot()
	snap["a"] = 99

	assert.Equal(t, 1, c.Value("a"))
}

func TestSafeCounter_Reset(t *testing.T) {
	c := &SafeCounter{}
	c.Add("a", 5)

	c.Reset()

	assert.Equal(t, 0, c.Value("a"))
	assert.Empty(t, c.Snapshot())
}

func TestSafeCounter_Concurrent(t *testing.T) {
	c := &SafeCounter{}
	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				c.Inc("even")
			} else {
				c.Inc("odd")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 500, c.Value("even"))
	assert.Equal(t, 500, c.Value("odd"))
}
