// Package tour drives the timed traversal over the dataset: an ordered
// walk through every record, dwelling on each while a progress bar counts
// down, panning the camera to a zoom tier matched to the entry's
// geography. States are {Stopped, Playing}; every transition cancels the
// previous step's timers before scheduling new ones.
package tour

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/internal/geo"
	"github.com/researchatlas/engine/pkg/core"
)

// Camera is the view sink the tour pans between entries.
type Camera interface {
	SetView(core.ViewState) core.ViewState
}

// Selection is the panel sink: each step opens an entry, stopping closes
// the panel.
type Selection interface {
	ClickPoint(core.GeoPoint)
	Close()
}

// Dependencies carries everything a Sequencer needs. OnChange, when set,
// is called after every timer-driven state change (tick and dwell
// advance) with no sequencer lock held; command-driven changes are the
// caller's own to observe.
type Dependencies struct {
	Camera    Camera
	Selection Selection
	Regions   config.RegionConfig
	TierZooms config.TierZooms
	Durations []int
	Duration  int
	Tick      time.Duration
	Lexicon   []string
	Log       *slog.Logger
	OnChange  func()
}

const (
	defaultTick     = 100 * time.Millisecond
	defaultDuration = 60
)

// Sequencer is the tour state machine. All methods are safe for
// concurrent use; timer callbacks and API calls serialize on one mutex.
type Sequencer struct {
	mu    sync.Mutex
	deps  Dependencies
	sched scheduler

	campus  geom.Envelope
	state   geom.Envelope
	country geom.Envelope

	entries     []core.GeoPoint
	playing     bool
	closed      bool
	index       int
	progress    float64
	remaining   float64
	duration    int
	stepSeconds float64
}

// New creates a stopped Sequencer. A zero tick falls back to 100ms, a
// duration outside the configured set falls back to 60s.
func New(deps Dependencies) *Sequencer {
	if deps.Tick <= 0 {
		deps.Tick = defaultTick
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Duration <= 0 || !allowedDuration(deps.Durations, deps.Duration) {
		deps.Duration = defaultDuration
	}
	s := &Sequencer{
		deps:     deps,
		duration: deps.Duration,
	}
	s.remaining = float64(s.duration)
	s.campus = envelope(deps.Regions.Campus)
	s.state = envelope(deps.Regions.State)
	s.country = envelope(deps.Regions.Country)
	return s
}

// SetOnChange registers the listener fired after timer-driven changes.
// Set before the first Start; replacing it mid-tour is safe.
func (s *Sequencer) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps.OnChange = fn
}

func envelope(b config.BBox) geom.Envelope {
	return geo.NewEnvelope(b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

func allowedDuration(set []int, seconds int) bool {
	if len(set) == 0 {
		return seconds == defaultDuration
	}
	for _, d := range set {
		if d == seconds {
			return true
		}
	}
	return false
}

// Start begins a tour over the given points, ordered by term recency.
// Starting with no points is a no-op. A running tour restarts from the
// top. Reports whether a tour began.
func (s *Sequencer) Start(points []core.GeoPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	entries := OrderEntries(points, s.deps.Lexicon)
	if len(entries) == 0 {
		return false
	}

	s.sched.cancelAll()
	s.entries = entries
	s.playing = true
	s.index = 0
	s.progress = 0
	s.remaining = float64(s.duration)
	s.deps.Selection.Close()
	s.deps.Log.Debug("tour started", "entries", len(entries), "duration", s.duration)
	s.advanceLocked(0)
	return true
}

// Stop ends the tour: timers cancelled, counters reset, panel closed.
// Stopping a stopped tour is a no-op beyond the reset.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Next moves to the following entry. Only meaningful while playing;
// clamped at the last entry.
func (s *Sequencer) Next() {
	s.shift(1)
}

// Previous moves to the preceding entry. Only meaningful while playing;
// clamped at the first entry.
func (s *Sequencer) Previous() {
	s.shift(-1)
}

// SetDuration selects a dwell duration from the configured set. Values
// outside the set are rejected. The running step keeps its schedule; the
// new duration applies from the next step.
func (s *Sequencer) SetDuration(seconds int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !allowedDuration(s.deps.Durations, seconds) {
		return false
	}
	s.duration = seconds
	if !s.playing {
		s.remaining = float64(seconds)
	}
	return true
}

// Playing reports whether a tour is running.
func (s *Sequencer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Snapshot returns the externally visible tour state.
func (s *Sequencer) Snapshot() core.TourSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := core.TourSnapshot{
		Playing:   s.playing,
		Index:     s.index,
		Total:     len(s.entries),
		Progress:  s.progress,
		Remaining: s.remaining,
		Duration:  s.duration,
	}
	if s.playing && s.index < len(s.entries) {
		snap.CanGoPrevious = s.index > 0
		snap.CanGoNext = s.index < len(s.entries)-1
		entry := s.entries[s.index]
		snap.Current = &entry
	}
	return snap
}

// Close tears the sequencer down. Both timers are cancelled
// unconditionally and no callback runs afterwards; the sequencer cannot
// be restarted.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.cancelAll()
	s.playing = false
	s.closed = true
}

func (s *Sequencer) shift(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	next := s.index + delta
	if next < 0 || next >= len(s.entries) {
		return
	}
	s.sched.cancelAll()
	s.advanceLocked(next)
}

// advanceLocked moves the tour to entry i: select it, pan the camera,
// restart both timers. An index past the end stops the tour. Caller holds
// the lock.
func (s *Sequencer) advanceLocked(i int) {
	if i >= len(s.entries) {
		s.stopLocked()
		return
	}

	s.index = i
	s.progress = 0
	s.stepSeconds = float64(s.duration)
	s.remaining = s.stepSeconds

	entry := s.entries[i]
	s.deps.Selection.ClickPoint(entry)
	s.deps.Camera.SetView(s.target(entry))
	s.deps.Log.Debug("tour advanced", "index", i, "entry", entry.Name)

	s.sched.cancelAll()
	dwell := time.Duration(s.stepSeconds * float64(time.Second))
	s.sched.start(s.deps.Tick, dwell, s.handleTick, s.handleDwell)
}

// stopLocked resets to the stopped state. The panel is only closed when a
// tour was actually playing, so a stray stop cannot wipe a manual
// selection. Caller holds the lock.
func (s *Sequencer) stopLocked() {
	wasPlaying := s.playing
	s.sched.cancelAll()
	s.playing = false
	s.index = 0
	s.progress = 0
	s.remaining = float64(s.duration)
	if wasPlaying {
		s.deps.Selection.Close()
		s.deps.Log.Debug("tour stopped")
	}
}

func (s *Sequencer) handleTick(gen uint64) {
	s.mu.Lock()
	if gen != s.sched.generation() || !s.playing {
		s.mu.Unlock()
		return
	}
	tickSeconds := s.deps.Tick.Seconds()
	s.progress = math.Min(100, s.progress+100*tickSeconds/s.stepSeconds)
	s.remaining = math.Max(0, s.remaining-tickSeconds)
	s.mu.Unlock()

	s.notify()
}

func (s *Sequencer) handleDwell(gen uint64) {
	s.mu.Lock()
	if gen != s.sched.generation() || !s.playing {
		s.mu.Unlock()
		return
	}
	// The dwell fires at or after the final tick. Pin the display values
	// before advancing so no snapshot of this step ever shows a partial
	// countdown once the index has moved on.
	s.progress = 100
	s.remaining = 0
	s.advanceLocked(s.index + 1)
	s.mu.Unlock()

	s.notify()
}

func (s *Sequencer) notify() {
	s.mu.Lock()
	fn := s.deps.OnChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// target picks the camera view for an entry. Tier order is a contract:
// campus focus or campus envelope, then the state envelope, then the
// country envelope, then the world tier. First match wins; the camera
// centers on the entry itself.
func (s *Sequencer) target(e core.GeoPoint) core.ViewState {
	z := s.deps.TierZooms
	view := core.ViewState{Lon: e.Lon, Lat: e.Lat}
	switch {
	case e.MapFocus == core.FocusCampus || geo.EnvelopeContains(s.campus, e.Lat, e.Lon):
		view.Zoom = z.Campus
	case geo.EnvelopeContains(s.state, e.Lat, e.Lon):
		view.Zoom = z.Region
	case geo.EnvelopeContains(s.country, e.Lat, e.Lon):
		view.Zoom = z.Country
	default:
		view.Zoom = z.World
	}
	return view
}
