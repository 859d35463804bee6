// Package selection tracks what the detail panel shows: one point, one
// cluster, or the synthetic filtered-results view. Point and cluster
// selection are mutually exclusive; a stashed previous cluster gives one
// level of back navigation from a point to the cluster it was opened from.
package selection

import (
	"sync"

	"github.com/researchatlas/engine/pkg/core"
)

// Tracker owns the selection state. All methods are safe for concurrent
// use; transitions are total, invalid calls are no-ops.
type Tracker struct {
	mu              sync.Mutex
	autoExpandZoom  float64
	selectedPoint   *core.GeoPoint
	selectedCluster *core.Cluster
	previousCluster *core.Cluster
	filterActive    bool
}

// New creates a Tracker. Clicking a multi-member cluster below
// autoExpandZoom zooms in instead of selecting.
func New(autoExpandZoom float64) *Tracker {
	return &Tracker{autoExpandZoom: autoExpandZoom}
}

// ClickCluster handles a cluster marker click at the given zoom. Below
// the auto-expand zoom a multi-member cluster is a navigation target, not
// a selection: the state is left alone and the caller is told to zoom the
// camera in instead. At or above it the cluster is selected. A
// single-member cluster behaves as a click on its only point.
func (t *Tracker) ClickCluster(c core.Cluster, zoom float64) (zoomRequested bool) {
	if len(c.Points) == 0 {
		return false
	}
	if !c.IsCluster {
		t.ClickPoint(c.Points[0])
		return false
	}
	if zoom < t.autoExpandZoom {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	cc := copyCluster(c)
	t.selectedCluster = &cc
	t.selectedPoint = nil
	// A new cluster selection supersedes any stashed back target.
	t.previousCluster = nil
	return false
}

// ClickPoint selects a single point. Coming from a cluster view the
// cluster is stashed so GoBack can return to it.
func (t *Tracker) ClickPoint(p core.GeoPoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selectedCluster != nil {
		t.previousCluster = t.selectedCluster
	}
	t.selectedPoint = &p
	t.selectedCluster = nil
}

// GoBack returns from a point view to the cluster it was opened from.
// The stash is retained so forward and back can repeat within the same
// cluster context. Reports whether it navigated.
func (t *Tracker) GoBack() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selectedPoint == nil || t.previousCluster == nil {
		return false
	}
	t.selectedCluster = t.previousCluster
	t.selectedPoint = nil
	return true
}

// Close clears the panel back to idle. When a tour is playing the host
// stops it before calling Close.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selectedPoint = nil
	t.selectedCluster = nil
	t.previousCluster = nil
}

// SetFilterActive records whether a facet filter constrains the dataset.
// While nothing is selected an active filter surfaces the filtered-results
// view.
func (t *Tracker) SetFilterActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filterActive = active
}

// FilterActive reports whether a facet filter is in effect.
func (t *Tracker) FilterActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filterActive
}

// SelectedPoint returns a copy of the selected point, or nil. The
// clusterer uses it as the focus for the selection sentinel.
func (t *Tracker) SelectedPoint() *core.GeoPoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selectedPoint == nil {
		return nil
	}
	p := *t.selectedPoint
	return &p
}

// Snapshot returns the externally visible selection state. The view is
// derived: point beats cluster beats filtered beats idle.
func (t *Tracker) Snapshot() core.SelectionSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := core.SelectionSnapshot{View: core.ViewIdle}
	switch {
	case t.selectedPoint != nil:
		p := *t.selectedPoint
		snap.View = core.ViewPoint
		snap.Point = &p
		snap.CanGoBack = t.previousCluster != nil
	case t.selectedCluster != nil:
		c := copyCluster(*t.selectedCluster)
		snap.View = core.ViewCluster
		snap.Cluster = &c
	case t.filterActive:
		snap.View = core.ViewFiltered
	}
	return snap
}

func copyCluster(c core.Cluster) core.Cluster {
	out := c
	out.Points = make([]core.GeoPoint, len(c.Points))
	copy(out.Points, c.Points)
	return out
}
