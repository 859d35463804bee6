// Package camera holds the map view value: one {lon, lat, zoom} with no
// history. Operations are synchronous and only update the held value;
// animating the transition is the presentation layer's job.
package camera

import (
	"sync"

	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/pkg/core"
)

// Controller owns the view state.
type Controller struct {
	mu   sync.Mutex
	cfg  config.ViewConfig
	view core.ViewState
}

// New creates a Controller. The initial view is the "world" preset when
// one is configured.
func New(cfg config.ViewConfig) *Controller {
	c := &Controller{cfg: cfg}
	if p, ok := cfg.Presets["world"]; ok {
		c.view = core.ViewState{Lon: p.Lon, Lat: p.Lat, Zoom: c.clamp(p.Zoom)}
	}
	return c
}

// View returns the current view value.
func (c *Controller) View() core.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView replaces the view. Zoom is clamped to the configured bounds;
// lon/lat are taken as given.
func (c *Controller) SetView(v core.ViewState) core.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	v.Zoom = c.clamp(v.Zoom)
	c.view = v
	return c.view
}

// JumpTo moves to a named preset. Unknown names are a no-op.
func (c *Controller) JumpTo(name string) (core.ViewState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.cfg.Presets[name]
	if !ok {
		return c.view, false
	}
	c.view = core.ViewState{Lon: p.Lon, Lat: p.Lat, Zoom: c.clamp(p.Zoom)}
	return c.view, true
}

// ZoomStep nudges zoom one step in, one step out, clamped to bounds.
// A zero direction is a no-op.
func (c *Controller) ZoomStep(direction int) core.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case direction > 0:
		c.view.Zoom = c.clamp(c.view.Zoom + 1)
	case direction < 0:
		c.view.Zoom = c.clamp(c.view.Zoom - 1)
	}
	return c.view
}

// ZoomToCluster recenters on a cluster's centroid and zooms in by the
// configured increment, capped so expanding a dense cluster never
// overshoots into building-level zoom.
func (c *Controller) ZoomToCluster(cl core.Cluster) core.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	zoom := c.view.Zoom + c.cfg.ClusterZoomIncrement
	if zoom > c.cfg.ClusterZoomCap {
		zoom = c.cfg.ClusterZoomCap
	}
	c.view = core.ViewState{Lon: cl.Lon, Lat: cl.Lat, Zoom: c.clamp(zoom)}
	return c.view
}

func (c *Controller) clamp(zoom float64) float64 {
	if zoom < c.cfg.MinZoom {
		return c.cfg.MinZoom
	}
	if zoom > c.cfg.MaxZoom {
		return c.cfg.MaxZoom
	}
	return zoom
}
