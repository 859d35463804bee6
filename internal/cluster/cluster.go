// Package cluster groups geographically proximate records into the marker
// clusters the map renders. Grouping is a pure function of (points, zoom,
// focus); clusters carry no identity across passes except the selection
// sentinel.
package cluster

import (
	"fmt"

	"github.com/researchatlas/engine/internal/geo"
	"github.com/researchatlas/engine/pkg/core"
)

// Clusterer groups points using a configured threshold table.
type Clusterer struct {
	thresholds Thresholds
}

// New creates a Clusterer. A nil or empty table falls back to the
// defaults.
func New(thresholds Thresholds) *Clusterer {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds()
	}
	return &Clusterer{thresholds: thresholds}
}

// Thresholds returns the table in use.
func (c *Clusterer) Thresholds() Thresholds {
	return c.thresholds
}

// Compute groups points for the given zoom. Greedy single pass in input
// order: each unprocessed point seeds a group and absorbs every later
// unprocessed point within the zoom's threshold of the SEED (not of other
// members). Distance is planar degree-space, deliberately not geodesic;
// see the geo package.
//
// The first group in discovery order containing the focus point takes the
// sentinel ID in place of its counter ID. At most one group can carry it;
// a nil focus, or one absent from the input, yields no sentinel.
func (c *Clusterer) Compute(points []core.GeoPoint, zoom float64, focus *core.GeoPoint) []core.Cluster {
	clusters := make([]core.Cluster, 0, len(points))
	if len(points) == 0 {
		return clusters
	}

	threshold := c.thresholds.ForZoom(zoom)
	processed := make([]bool, len(points))

	var focusKey core.PointKey
	hasFocus := focus != nil
	if hasFocus {
		focusKey = focus.Key()
	}
	sentinelAssigned := false

	n := 0
	for i := range points {
		if processed[i] {
			continue
		}
		processed[i] = true
		seed := points[i]
		members := []core.GeoPoint{seed}
		exact := true

		for j := i + 1; j < len(points); j++ {
			if processed[j] {
				continue
			}
			q := points[j]
			if geo.Distance(seed.Lat, seed.Lon, q.Lat, q.Lon) <= threshold {
				processed[j] = true
				members = append(members, q)
				if q.Lat != seed.Lat || q.Lon != seed.Lon {
					exact = false
				}
			}
		}

		n++
		lat, lon := centroid(members)
		group := core.Cluster{
			Lat:       lat,
			Lon:       lon,
			Points:    members,
			IsCluster: len(members) > 1,
		}

		switch {
		case hasFocus && !sentinelAssigned && group.Contains(focusKey):
			group.ID = core.SelectedClusterID
			sentinelAssigned = true
		case len(members) > 1 && exact:
			group.ID = fmt.Sprintf("exact-cluster-%d", n)
		case len(members) > 1:
			group.ID = fmt.Sprintf("cluster-%d", n)
		default:
			group.ID = fmt.Sprintf("marker-%d", n)
		}

		clusters = append(clusters, group)
	}

	return clusters
}

// Compute groups points using the default threshold table.
func Compute(points []core.GeoPoint, zoom float64, focus *core.GeoPoint) []core.Cluster {
	return New(nil).Compute(points, zoom, focus)
}

func centroid(members []core.GeoPoint) (lat, lon float64) {
	lats := make([]float64, len(members))
	lons := make([]float64, len(members))
	for i, m := range members {
		lats[i] = m.Lat
		lons[i] = m.Lon
	}
	return geo.Centroid(lats, lons)
}
