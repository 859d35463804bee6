// pkg/core/point.go
package core

import "strings"

// MapFocus is the declared geographic scope of a record, used by the tour
// to pick a camera tier before falling back to region envelopes.
type MapFocus string

const (
	FocusWorld  MapFocus = "world"
	FocusRegion MapFocus = "region"
	FocusCampus MapFocus = "campus"
)

// ParseMapFocus maps free-text focus labels onto the enum. Unknown input
// falls back to FocusWorld.
func ParseMapFocus(s string) MapFocus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "campus":
		return FocusCampus
	case "region", "utah", "utah-region", "state":
		return FocusRegion
	default:
		return FocusWorld
	}
}

// PointKey is the identity of a GeoPoint. There is no synthetic ID; the
// (name, researcher) pair is unique within a dataset.
type PointKey struct {
	Name       string `json:"name"`
	Researcher string `json:"researcher"`
}

// GeoPoint is one located record. Immutable once loaded; owned by the
// store and never mutated by selection, tour or clustering code.
type GeoPoint struct {
	Name         string   `json:"name"`
	Researcher   string   `json:"researcher"`
	Description  string   `json:"description,omitempty"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	Department   string   `json:"department,omitempty"`
	Term         string   `json:"term,omitempty"`
	Type         string   `json:"type,omitempty"`
	MapFocus     MapFocus `json:"mapFocus"`
	GeoFocus     string   `json:"geoFocus,omitempty"`
	Collaborator string   `json:"collaborator,omitempty"`
	Links        []string `json:"links,omitempty"`
}

// Key returns the record's identity pair.
func (p GeoPoint) Key() PointKey {
	return PointKey{Name: p.Name, Researcher: p.Researcher}
}

// Same reports whether two records share one identity.
func (p GeoPoint) Same(other GeoPoint) bool {
	return p.Key() == other.Key()
}
