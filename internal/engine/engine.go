// Package engine composes the store, clusterer, selection tracker, camera
// and tour into one interaction surface. Every entry point applies a
// transition, recomputes the cluster list for the new (filter, zoom,
// focus) combination and broadcasts a state snapshot to subscribers.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/researchatlas/engine/internal/cache"
	"github.com/researchatlas/engine/internal/camera"
	"github.com/researchatlas/engine/internal/channel"
	"github.com/researchatlas/engine/internal/cluster"
	"github.com/researchatlas/engine/internal/dataset"
	"github.com/researchatlas/engine/internal/selection"
	"github.com/researchatlas/engine/internal/store"
	"github.com/researchatlas/engine/internal/tour"
	"github.com/researchatlas/engine/pkg/core"
)

var (
	// ErrClosed means the engine has been shut down.
	ErrClosed = errors.New("engine is closed")
	// ErrUnknownCluster means the clicked ID is not in the current cluster
	// list. IDs are scoped to one clustering pass; a stale frontend click
	// after a filter or zoom change lands here.
	ErrUnknownCluster = errors.New("unknown cluster")
	// ErrUnknownPoint means no loaded point has the given identity.
	ErrUnknownPoint = errors.New("unknown point")
	// ErrUnknownPreset means the named camera preset is not configured.
	ErrUnknownPreset = errors.New("unknown view preset")
	// ErrInvalidDuration means the requested tour duration is not in the
	// configured set.
	ErrInvalidDuration = errors.New("invalid tour duration")
)

// Subscribers that fall behind lose intermediate states, never the newest.
const stateBufferSize = 8

// Dependencies carries the components the engine drives.
type Dependencies struct {
	Store     *store.Store
	Clusters  *cluster.Cache
	Selection *selection.Tracker
	Camera    *camera.Controller
	Tour      *tour.Sequencer
	Dataset   *dataset.Context
	Log       *slog.Logger
}

// Engine is the single owner of interaction state transitions.
type Engine struct {
	mu       sync.Mutex
	deps     Dependencies
	filter   core.FacetFilter
	clusters []core.Cluster
	closed   bool
	usage    cache.SafeCounter

	subMu       sync.Mutex
	subscribers map[int]channel.Channel[core.EngineState]
	subsClosed  bool
	nextSubID   int
}

// New wires an engine and computes the initial cluster pass. The tour's
// change listener is bound here so timer-driven advances broadcast like
// any other transition.
func New(deps Dependencies) (*Engine, error) {
	if deps.Store == nil || deps.Clusters == nil || deps.Selection == nil ||
		deps.Camera == nil || deps.Tour == nil {
		return nil, fmt.Errorf("engine: missing dependency")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	e := &Engine{
		deps:        deps,
		subscribers: make(map[int]channel.Channel[core.EngineState]),
	}
	deps.Tour.SetOnChange(e.onTourChange)

	e.mu.Lock()
	e.refreshClustersLocked()
	e.mu.Unlock()
	return e, nil
}

// Store exposes the point store for read-only collaborators.
func (e *Engine) Store() *store.Store {
	return e.deps.Store
}

// Dataset exposes the dataset context, nil when none was wired.
func (e *Engine) Dataset() *dataset.Context {
	return e.deps.Dataset
}

// Usage returns per-command interaction counts since startup.
func (e *Engine) Usage() map[string]int {
	return e.usage.Snapshot()
}

// ClusterCacheStats returns the cumulative cluster memo hit/miss counts.
func (e *Engine) ClusterCacheStats() (hits, misses uint64) {
	return e.deps.Clusters.Stats()
}

// Snapshot returns the current composite state without mutating anything.
func (e *Engine) Snapshot() core.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// SetFilter replaces the facet filter. The filtered-results panel surfaces
// through the selection snapshot when nothing else is selected.
func (e *Engine) SetFilter(filter core.FacetFilter) (core.EngineState, error) {
	e.usage.Inc(CmdFilterSet)
	return e.applyFilter(filter)
}

// ClearFilter removes all facet constraints.
func (e *Engine) ClearFilter() (core.EngineState, error) {
	e.usage.Inc(CmdFilterClear)
	return e.applyFilter(core.FacetFilter{})
}

func (e *Engine) applyFilter(filter core.FacetFilter) (core.EngineState, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.filter = filter
	e.deps.Selection.SetFilterActive(!filter.IsZero())
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// ClickCluster handles a marker click by cluster ID. Below the auto-expand
// zoom the camera zooms toward the cluster instead of opening the panel;
// single-member markers select their point directly.
func (e *Engine) ClickCluster(id string) (core.EngineState, error) {
	e.usage.Inc(CmdClusterClick)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()

	cl, ok := e.clusterByIDLocked(id)
	if !ok {
		state := e.snapshotLocked()
		e.mu.Unlock()
		e.broadcast(state)
		return state, fmt.Errorf("%w: %s", ErrUnknownCluster, id)
	}

	zoomRequested := e.deps.Selection.ClickCluster(cl, e.deps.Camera.View().Zoom)
	if zoomRequested {
		e.deps.Camera.ZoomToCluster(cl)
	}
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// ClickPoint selects a single point by identity.
func (e *Engine) ClickPoint(name, researcher string) (core.EngineState, error) {
	e.usage.Inc(CmdPointClick)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()

	p, ok := e.deps.Store.ByKey(core.PointKey{Name: name, Researcher: researcher})
	if !ok {
		state := e.snapshotLocked()
		e.mu.Unlock()
		e.broadcast(state)
		return state, fmt.Errorf("%w: %s / %s", ErrUnknownPoint, name, researcher)
	}

	e.deps.Selection.ClickPoint(p)
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// GoBack returns from a point panel to the cluster it was opened from.
// Without that context it is a no-op.
func (e *Engine) GoBack() (core.EngineState, error) {
	e.usage.Inc(CmdPanelBack)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()
	e.deps.Selection.GoBack()
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// ClosePanel clears the selection. A playing tour is stopped first so its
// stop side effects run before the state clears.
func (e *Engine) ClosePanel() (core.EngineState, error) {
	e.usage.Inc(CmdPanelClose)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()
	e.deps.Selection.Close()
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// StartTour begins a tour over all loaded points, most recent term first.
// A zero duration keeps the current setting; an unconfigured one is
// ignored with a warning. Starting on an empty dataset is a silent no-op.
func (e *Engine) StartTour(duration int) (core.EngineState, error) {
	e.usage.Inc(CmdTourStart)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	if duration > 0 && !e.deps.Tour.SetDuration(duration) {
		e.deps.Log.Warn("requested tour duration not configured, keeping current", "duration", duration)
	}
	e.deps.Tour.Start(e.deps.Store.All())
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// StopTour stops a playing tour.
func (e *Engine) StopTour() (core.EngineState, error) {
	e.usage.Inc(CmdTourStop)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// NextEntry skips to the next tour entry; ignored while stopped.
func (e *Engine) NextEntry() (core.EngineState, error) {
	e.usage.Inc(CmdTourNext)
	return e.tourShift((*tour.Sequencer).Next)
}

// PreviousEntry returns to the previous tour entry; ignored while stopped.
func (e *Engine) PreviousEntry() (core.EngineState, error) {
	e.usage.Inc(CmdTourPrevious)
	return e.tourShift((*tour.Sequencer).Previous)
}

func (e *Engine) tourShift(shift func(*tour.Sequencer)) (core.EngineState, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	shift(e.deps.Tour)
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// SetTourDuration selects a step duration from the configured set.
func (e *Engine) SetTourDuration(seconds int) (core.EngineState, error) {
	e.usage.Inc(CmdTourDuration)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	ok := e.deps.Tour.SetDuration(seconds)
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	if !ok {
		return state, fmt.Errorf("%w: %d", ErrInvalidDuration, seconds)
	}
	return state, nil
}

// SetView applies a manual pan/zoom. Manual navigation stops the tour.
func (e *Engine) SetView(lon, lat, zoom float64) (core.EngineState, error) {
	e.usage.Inc(CmdViewSet)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()
	e.deps.Camera.SetView(core.ViewState{Lon: lon, Lat: lat, Zoom: zoom})
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// JumpTo moves the camera to a named preset.
func (e *Engine) JumpTo(preset string) (core.EngineState, error) {
	e.usage.Inc(CmdViewJump)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()
	_, ok := e.deps.Camera.JumpTo(preset)
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	if !ok {
		return state, fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	return state, nil
}

// ZoomStep nudges the camera zoom by one step.
func (e *Engine) ZoomStep(direction int) (core.EngineState, error) {
	e.usage.Inc(CmdViewZoom)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return core.EngineState{}, ErrClosed
	}
	e.stopTourLocked()
	e.deps.Camera.ZoomStep(direction)
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
	return state, nil
}

// ClustersAt computes the cluster list for an arbitrary zoom under the
// current filter and focus, without touching the camera or the engine's
// click-resolution list.
func (e *Engine) ClustersAt(zoom float64) []core.Cluster {
	e.mu.Lock()
	defer e.mu.Unlock()
	points := e.deps.Store.Filter(e.filter)
	focus := e.deps.Selection.SelectedPoint()
	return e.deps.Clusters.Compute(e.deps.Store.Generation(), e.filter, points, zoom, focus)
}

// Subscribe registers a state listener. The channel carries every
// broadcast while the listener keeps up and drops to the latest state when
// it does not. It is closed by Unsubscribe or engine Close.
func (e *Engine) Subscribe() (int, <-chan core.EngineState) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	sub := channel.New[core.EngineState](stateBufferSize)
	if e.subsClosed {
		sub.Close()
		return -1, sub.Receive()
	}

	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = sub
	return id, sub.Receive()
}

// Unsubscribe removes a listener and closes its channel.
func (e *Engine) Unsubscribe(id int) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	if sub, ok := e.subscribers[id]; ok {
		sub.Close()
		delete(e.subscribers, id)
	}
}

// Close tears down the tour and the subscriber channels. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.deps.Tour.Close()

	e.subMu.Lock()
	e.subsClosed = true
	for id, sub := range e.subscribers {
		sub.Close()
		delete(e.subscribers, id)
	}
	e.subMu.Unlock()
}

// onTourChange runs on the tour's timer goroutines after each tick and
// dwell advance. No tour lock is held here.
func (e *Engine) onTourChange() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	state := e.snapshotLocked()
	e.mu.Unlock()

	e.broadcast(state)
}

// stopTourLocked stops the tour before a manual interaction. Gated on
// Playing so routine navigation does not churn a stopped tour's counters.
func (e *Engine) stopTourLocked() {
	if e.deps.Tour.Playing() {
		e.deps.Tour.Stop()
	}
}

// refreshClustersLocked recomputes the pass-scoped cluster list and
// returns the filtered points it was built from.
func (e *Engine) refreshClustersLocked() []core.GeoPoint {
	points := e.deps.Store.Filter(e.filter)
	view := e.deps.Camera.View()
	focus := e.deps.Selection.SelectedPoint()
	e.clusters = e.deps.Clusters.Compute(e.deps.Store.Generation(), e.filter, points, view.Zoom, focus)
	return points
}

func (e *Engine) snapshotLocked() core.EngineState {
	points := e.refreshClustersLocked()
	sel := e.deps.Selection.Snapshot()
	if sel.View == core.ViewFiltered {
		sel.Results = points
	}
	return core.EngineState{
		View:      e.deps.Camera.View(),
		Selection: sel,
		Tour:      e.deps.Tour.Snapshot(),
		Clusters:  e.clusters,
		Filter:    e.filter,
		Facets:    e.deps.Store.Facets(),
	}
}

func (e *Engine) clusterByIDLocked(id string) (core.Cluster, bool) {
	for _, cl := range e.clusters {
		if cl.ID == id {
			return cl, true
		}
	}
	return core.Cluster{}, false
}

/// broadcast fans the state out to every subscriber. Sends never block: a
// full buffer loses its oldest entry so the receiver always ends up at
// the newest state.
func (e *Engine) broadcast(state core.EngineState) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, sub := range e.subscribers {
		if sub.TrySend(state) {
			continue
		}
		select {
		case <-sub.Receive():
		default:
		}
		sub.TrySend(state)
	}
}
