// Package export builds the outbound dataset payloads: the v1 frontend
// payload (see the v1 subpackage), GeoJSON, and the file writer behind
// the export subcommand.
package export

import (
	"errors"
	"fmt"

	"github.com/researchatlas/engine/internal/geo"
	"github.com/researchatlas/engine/pkg/core"
)

// Coordinate reference systems accepted by GeoJSON.
const (
	CRS4326 = 4326 // WGS84 lon/lat, the GeoJSON default
	CRS3857 = 3857 // web mercator meters
)

// ErrUnsupportedCRS is returned for any CRS other than 4326 or 3857.
var ErrUnsupportedCRS = errors.New("unsupported crs")

// FeatureCollection is a GeoJSON document of point features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one record as a GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point geometry, coordinates ordered [x, y].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// GeoJSON flattens points into a FeatureCollection. CRS 4326 keeps WGS84
// lon/lat; 3857 projects each position to web mercator. A zero crs means
// 4326.
func GeoJSON(points []core.GeoPoint, crs int) (FeatureCollection, error) {
	if crs == 0 {
		crs = CRS4326
	}
	if crs != CRS4326 && crs != CRS3857 {
		return FeatureCollection{}, fmt.Errorf("%w: %d", ErrUnsupportedCRS, crs)
	}

	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(points)),
	}

	for _, p := range points {
		x, y := p.Lon, p.Lat
		if crs == CRS3857 {
			projected, err := geo.Coords3857From4326(p.Lon, p.Lat)
			if err != nil {
				return FeatureCollection{}, fmt.Errorf("failed to project %q: %w", p.Name, err)
			}
			coords, _ := projected.Coordinates()
			x, y = coords.XY.X, coords.XY.Y
		}

		props := map[string]any{
			"name":       p.Name,
			"researcher": p.Researcher,
			"mapFocus":   string(p.MapFocus),
		}
		if p.Description != "" {
			props["description"] = p.Description
		}
		if p.Department != "" {
			props["department"] = p.Department
		}
		if p.Term != "" {
			props["term"] = p.Term
		}
		if p.Type != "" {
			props["type"] = p.Type
		}
		if p.GeoFocus != "" {
			props["geoFocus"] = p.GeoFocus
		}
		if p.Collaborator != "" {
			props["collaborator"] = p.Collaborator
		}
		if len(p.Links) > 0 {
			props["links"] = append([]string{}, p.Links...)
		}

		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{x, y}},
			Properties: props,
		})
	}

	return fc, nil
}
