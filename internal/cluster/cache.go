package cluster

import (
	"github.com/researchatlas/engine/internal/cache"
	"github.com/researchatlas/engine/internal/util"
	"github.com/researchatlas/engine/pkg/core"
)

// cacheKey identifies one clustering result. Zoom enters through the
// threshold band index so every zoom inside a band shares an entry, and
// the store generation keeps results from outlasting a dataset reload.
type cacheKey struct {
	band       int
	filterHash uint64
	focus      core.PointKey
	hasFocus   bool
	generation uint64
}

// Cache memoizes Clusterer results. Purely an optimization: callers get
// the same clusters Compute would return, so the cached slices must be
// treated as read-only.
type Cache struct {
	clusterer *Clusterer
	results   *cache.ResultCache[cacheKey, []core.Cluster]
}

// NewCache wraps a Clusterer with a bounded memo.
func NewCache(c *Clusterer, size int) *Cache {
	return &Cache{
		clusterer: c,
		results:   cache.NewResultCache[cacheKey, []core.Cluster](size),
	}
}

// Compute returns the cluster layout for the given inputs, reusing a
// memoized result when the (band, filter, focus, generation) combination
// has been computed before.
func (c *Cache) Compute(generation uint64, filter core.FacetFilter, points []core.GeoPoint, zoom float64, focus *core.GeoPoint) []core.Cluster {
	key := cacheKey{
		band:       c.clusterer.Thresholds().IndexForZoom(zoom),
		filterHash: filterHash(filter),
		generation: generation,
	}
	if focus != nil {
		key.focus = focus.Key()
		key.hasFocus = true
	}

	if cached, ok := c.results.Get(key); ok {
		return cached
	}

	computed := c.clusterer.Compute(points, zoom, focus)
	c.results.Put(key, computed)
	return computed
}

// Invalidate drops every memoized result.
func (c *Cache) Invalidate() {
	c.results.Reset()
}

// Stats returns cumulative memo hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.results.Stats()
}

// filterHash folds the filter's facet values into a key component. Facet
// markers keep a department value from colliding with an identical term
// value.
func filterHash(f core.FacetFilter) uint64 {
	parts := make([]string, 0, len(f.Departments)+len(f.Terms)+len(f.Types)+3)
	parts = append(parts, "departments")
	parts = append(parts, f.Departments...)
	parts = append(parts, "terms")
	parts = append(parts, f.Terms...)
	parts = append(parts, "types")
	parts = append(parts, f.Types...)
	return util.HashStrings(parts...)
}
