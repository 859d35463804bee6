package engine

import (
	"encoding/json"
	"fmt"

	"github.com/researchatlas/engine/internal/dispatcher"
	"github.com/researchatlas/engine/pkg/core"
)

// Command names accepted from the HTTP API and websocket stream.
const (
	CmdFilterSet    = "filter.set"
	CmdFilterClear  = "filter.clear"
	CmdClusterClick = "cluster.click"
	CmdPointClick   = "point.click"
	CmdPanelBack    = "panel.back"
	CmdPanelClose   = "panel.close"
	CmdTourStart    = "tour.start"
	CmdTourStop     = "tour.stop"
	CmdTourNext     = "tour.next"
	CmdTourPrevious = "tour.previous"
	CmdTourDuration = "tour.duration"
	CmdViewSet      = "view.set"
	CmdViewJump     = "view.jump"
	CmdViewZoom     = "view.zoom"
)

type filterPayload struct {
	Departments []string `json:"departments"`
	Terms       []string `json:"terms"`
	Types       []string `json:"types"`
}

type clusterClickPayload struct {
	ID string `json:"id"`
}

type pointClickPayload struct {
	Name       string `json:"name"`
	Researcher string `json:"researcher"`
}

type tourStartPayload struct {
	Duration int `json:"duration"`
}

type tourDurationPayload struct {
	Duration int `json:"duration"`
}

type viewSetPayload struct {
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	Zoom float64 `json:"zoom"`
}

type viewJumpPayload struct {
	Preset string `json:"preset"`
}

type viewZoomPayload struct {
	Direction int `json:"direction"`
}

// RegisterHandlers binds the full interaction command set. Every handler
// returns the post-transition engine state so request/response callers see
// the same snapshot the subscribers were sent.
func (e *Engine) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdFilterSet, e.handleFilterSet, dispatcher.Logged())
	d.Register(CmdFilterClear, e.handleFilterClear, dispatcher.Logged())
	d.Register(CmdClusterClick, e.handleClusterClick, dispatcher.Logged())
	d.Register(CmdPointClick, e.handlePointClick, dispatcher.Logged())
	d.Register(CmdPanelBack, e.handlePanelBack, dispatcher.Logged())
	d.Register(CmdPanelClose, e.handlePanelClose, dispatcher.Logged())
	d.Register(CmdTourStart, e.handleTourStart, dispatcher.Logged())
	d.Register(CmdTourStop, e.handleTourStop, dispatcher.Logged())
	d.Register(CmdTourNext, e.handleTourNext, dispatcher.Logged())
	d.Register(CmdTourPrevious, e.handleTourPrevious, dispatcher.Logged())
	d.Register(CmdTourDuration, e.handleTourDuration, dispatcher.Logged())
	d.Register(CmdViewSet, e.handleViewSet, dispatcher.Logged())
	d.Register(CmdViewJump, e.handleViewJump, dispatcher.Logged())
	d.Register(CmdViewZoom, e.handleViewZoom, dispatcher.Logged())
}

func decodePayload[T any](ev dispatcher.Event) (T, error) {
	var p T
	if len(ev.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return p, fmt.Errorf("decoding %s payload: %w", ev.Command, err)
	}
	return p, nil
}

func (e *Engine) handleFilterSet(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[filterPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.SetFilter(core.FacetFilter{
		Departments: p.Departments,
		Terms:       p.Terms,
		Types:       p.Types,
	})
}

func (e *Engine) handleFilterClear(ev dispatcher.Event) (any, error) {
	return e.ClearFilter()
}

func (e *Engine) handleClusterClick(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[clusterClickPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.ClickCluster(p.ID)
}

func (e *Engine) handlePointClick(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[pointClickPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.ClickPoint(p.Name, p.Researcher)
}

func (e *Engine) handlePanelBack(ev dispatcher.Event) (any, error) {
	return e.GoBack()
}

func (e *Engine) handlePanelClose(ev dispatcher.Event) (any, error) {
	return e.ClosePanel()
}

func (e *Engine) handleTourStart(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[tourStartPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.StartTour(p.Duration)
}

func (e *Engine) handleTourStop(ev dispatcher.Event) (any, error) {
	return e.StopTour()
}

func (e *Engine) handleTourNext(ev dispatcher.Event) (any, error) {
	return e.NextEntry()
}

func (e *Engine) handleTourPrevious(ev dispatcher.Event) (any, error) {
	return e.PreviousEntry()
}

func (e *Engine) handleTourDuration(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[tourDurationPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.SetTourDuration(p.Duration)
}

func (e *Engine) handleViewSet(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[viewSetPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.SetView(p.Lon, p.Lat, p.Zoom)
}

func (e *Engine) handleViewJump(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[viewJumpPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.JumpTo(p.Preset)
}

func (e *Engine) handleViewZoom(ev dispatcher.Event) (any, error) {
	p, err := decodePayload[viewZoomPayload](ev)
	if err != nil {
		return nil, err
	}
	return e.ZoomStep(p.Direction)
}
