// pkg/core/facets.go
package core

// FacetFilter is the presentation layer's facet selection. An empty list
// places no constraint on that facet; facets combine with AND, values
// within one facet with OR.
type FacetFilter struct {
	Departments []string `json:"departments"`
	Terms       []string `json:"terms"`
	Types       []string `json:"types"`
}

// IsZero reports whether no facet constrains the point set.
func (f FacetFilter) IsZero() bool {
	return len(f.Departments) == 0 && len(f.Terms) == 0 && len(f.Types) == 0
}

// Matches reports whether a point passes every constrained facet.
func (f FacetFilter) Matches(p GeoPoint) bool {
	return matchFacet(f.Departments, p.Department) &&
		matchFacet(f.Terms, p.Term) &&
		matchFacet(f.Types, p.Type)
}

func matchFacet(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}

// Facets lists the distinct values present in a dataset, sorted, for
// filter-chip rendering.
type Facets struct {
	Departments []string `json:"departments"`
	Terms       []string `json:"terms"`
	Types       []string `json:"types"`
}
