package tour

import (
	"time"

	"github.com/researchatlas/engine/internal/channel"
)

// scheduler owns the tour's two timer handles: the repeating progress
// tick and the single-shot dwell timer. At most one of each is live at
// any instant. Methods must be called with the sequencer's lock held;
// timer callbacks re-enter the sequencer, which drops them when the
// generation has moved on, so a cancelled timer can never mutate state.
type scheduler struct {
	gen      uint64
	ticker   *time.Ticker
	tickStop chan struct{}
	dwell    *time.Timer
}

// generation returns the current schedule generation. A callback carrying
// an older generation is stale.
func (s *scheduler) generation() uint64 {
	return s.gen
}

// cancelAll stops both handles and bumps the generation, invalidating any
// callback already in flight. Idempotent: cancelling with nothing
// scheduled is a no-op.
func (s *scheduler) cancelAll() {
	s.gen++
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.tickStop)
		s.ticker = nil
		s.tickStop = nil
	}
	if s.dwell != nil {
		s.dwell.Stop()
		s.dwell = nil
	}
}

// start schedules a tick loop and a dwell timer under the current
// generation. Each callback receives the generation it was scheduled
// under.
func (s *scheduler) start(tick, dwell time.Duration, onTick, onDwell func(gen uint64)) {
	gen := s.gen

	ticker := time.NewTicker(tick)
	stop := channel.NewSignal()
	s.ticker = ticker
	s.tickStop = stop
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				onTick(gen)
			}
		}
	}()

	s.dwell = time.AfterFunc(dwell, func() {
		onDwell(gen)
	})
}
