// pkg/core/view.go
package core

// ViewState is the map camera value: a single current {lon, lat, zoom},
// no history stack.
type ViewState struct {
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	Zoom float64 `json:"zoom"`
}

// SelectionView names the panel state the selection tracker is in.
type SelectionView string

const (
	ViewIdle     SelectionView = "idle"
	ViewCluster  SelectionView = "cluster"
	ViewPoint    SelectionView = "point"
	ViewFiltered SelectionView = "filtered"
)

// SelectionSnapshot is the externally visible selection state. Point and
// Cluster are mutually exclusive. Results is populated only for the
// synthetic filtered view.
type SelectionSnapshot struct {
	View      SelectionView `json:"view"`
	Point     *GeoPoint     `json:"point,omitempty"`
	Cluster   *Cluster      `json:"cluster,omitempty"`
	CanGoBack bool          `json:"canGoBack"`
	Results   []GeoPoint    `json:"results,omitempty"`
}

// TourSnapshot is the externally visible tour state, including the derived
// display fields the panel renders.
type TourSnapshot struct {
	Playing       bool      `json:"playing"`
	Index         int       `json:"index"`
	Total         int       `json:"total"`
	Progress      float64   `json:"progress"`
	Remaining     float64   `json:"remaining"`
	Duration      int       `json:"duration"`
	CanGoPrevious bool      `json:"canGoPrevious"`
	CanGoNext     bool      `json:"canGoNext"`
	Current       *GeoPoint `json:"current,omitempty"`
}

// EngineState is the composite snapshot broadcast to the presentation
// layer after every state change.
type EngineState struct {
	View      ViewState         `json:"view"`
	Selection SelectionSnapshot `json:"selection"`
	Tour      TourSnapshot      `json:"tour"`
	Clusters  []Cluster         `json:"clusters"`
	Filter    FacetFilter       `json:"filter"`
	Facets    Facets            `json:"facets"`
}
