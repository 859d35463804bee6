package cache

import (
	"sync"
)

// ResultCache memoizes computed values under a comparable key with FIFO
// eviction once capacity is reached. Cluster layouts are recomputed on
// every zoom change, so hits here keep interaction latency flat on large
// datasets.
type ResultCache[K comparable, V any] struct {
	mu       sync.RWMutex
	capacity int
	entries  map[K]V
	order    []K
	hits     uint64
	misses   uint64
}

// NewResultCache creates a cache holding at most capacity entries.
// A capacity of zero or less disables the bound.
func NewResultCache[K comparable, V any](capacity int) *ResultCache[K, V] {
	return &ResultCache[K, V]{
		capacity: capacity,
		entries:  make(map[K]V),
		order:    make([]K, 0),
	}
}

// Get retrieves a cached value by key.
func (c *ResultCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores a value by key, evicting the oldest entry when full.
// Overwriting an existing key keeps its eviction slot.
func (c *ResultCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}
	if c.capacity > 0 && len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = value
	c.order = append(c.order, key)
}

// Delete removes a value by key.
func (c *ResultCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Reset clears all entries. Counters are kept so monitoring sees totals
// across dataset reloads.
func (c *ResultCache[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V)
	c.order = c.order[:0]
}

// Len returns the number of cached entries.
func (c *ResultCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the cumulative hit and miss counts.
func (c *ResultCache[K, V]) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// SafeCounter tallies named events. The engine counts interactions with
// it and the monitor drains the totals into the usage bucket. The zero
// value is ready to use.
type SafeCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// Inc adds one to the named tally.
func (c *SafeCounter) Inc(name string) {
	c.Add(name, 1)
}

// Add adds n to the named tally.
func (c *SafeCounter) Add(name string, n int) {
	c.mu.Lock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[name] += n
	c.mu.Unlock()
}

// Value returns the named tally, zero when never incremented.
func (c *SafeCounter) Value(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Snapshot returns a copy of every tally.
func (c *SafeCounter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Reset zeroes every tally.
func (c *SafeCounter) Reset() {
	c.mu.Lock()
	c.counts = nil
	c.mu.Unlock()
}
