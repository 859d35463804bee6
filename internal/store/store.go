// Package store holds the immutable snapshot of located records the rest
// of the engine reads. Records are copied in at construction and never
// mutated; every accessor returns copies.
package store

import (
	"sort"
	"sync/atomic"

	"github.com/researchatlas/engine/pkg/core"
)

var generation atomic.Uint64

// Store is an immutable geo-point snapshot. A new Store gets a fresh
// generation number so downstream caches keyed on it never serve results
// across dataset reloads.
type Store struct {
	gen    uint64
	points []core.GeoPoint
	byKey  map[core.PointKey]core.GeoPoint
	facets core.Facets
}

// New copies the given records into an immutable store. Duplicate
// identities keep the first record.
func New(points []core.GeoPoint) *Store {
	s := &Store{
		gen:    generation.Add(1),
		points: make([]core.GeoPoint, len(points)),
		byKey:  make(map[core.PointKey]core.GeoPoint, len(points)),
	}
	copy(s.points, points)
	for _, p := range s.points {
		if _, ok := s.byKey[p.Key()]; !ok {
			s.byKey[p.Key()] = p
		}
	}
	s.facets = collectFacets(s.points)
	return s
}

// Generation returns the store's monotonic snapshot number.
func (s *Store) Generation() uint64 {
	return s.gen
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.points)
}

// All returns a copy of every record in load order.
func (s *Store) All() []core.GeoPoint {
	out := make([]core.GeoPoint, len(s.points))
	copy(out, s.points)
	return out
}

// ByKey returns the record with the given identity.
func (s *Store) ByKey(key core.PointKey) (core.GeoPoint, bool) {
	p, ok := s.byKey[key]
	return p, ok
}

// Filter returns the records passing the facet filter, in load order.
// A zero filter returns everything.
func (s *Store) Filter(f core.FacetFilter) []core.GeoPoint {
	if f.IsZero() {
		return s.All()
	}
	out := make([]core.GeoPoint, 0, len(s.points))
	for _, p := range s.points {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Facets returns the distinct department, term and type values present in
// the snapshot, each list sorted.
func (s *Store) Facets() core.Facets {
	return core.Facets{
		Departments: append([]string(nil), s.facets.Departments...),
		Terms:       append([]string(nil), s.facets.Terms...),
		Types:       append([]string(nil), s.facets.Types...),
	}
}

func collectFacets(points []core.GeoPoint) core.Facets {
	departments := make(map[string]struct{})
	terms := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, p := range points {
		if p.Department != "" {
			departments[p.Department] = struct{}{}
		}
		if p.Term != "" {
			terms[p.Term] = struct{}{}
		}
		if p.Type != "" {
			types[p.Type] = struct{}{}
		}
	}
	return core.Facets{
		Departments: sortedKeys(departments),
		Terms:       sortedKeys(terms),
		Types:       sortedKeys(types),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
