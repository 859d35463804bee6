package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchatlas/engine/internal/dispatcher"
	"github.com/researchatlas/engine/pkg/core"
)

func testDispatcher(t *testing.T, e *Engine) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(discardLog())
	require.NoError(t, err)
	e.RegisterHandlers(d)
	return d
}

func dispatchState(t *testing.T, d *dispatcher.Dispatcher, command, payload string) core.EngineState {
	t.Helper()
	ev := dispatcher.Event{Command: command}
	if payload != "" {
		ev.Payload = json.RawMessage(payload)
	}
	result, err := d.Dispatch(ev)
	require.NoError(t, err)
	state, ok := result.(core.EngineState)
	require.True(t, ok, "handler result is an engine state")
	return state
}

func TestRegisterHandlersCoversCommandSet(t *testing.T) {
	e := testEngine(t, testPoints())
	d := testDispatcher(t, e)

	commands := []string{
		CmdFilterSet, CmdFilterClear, CmdClusterClick, CmdPointClick,
		CmdPanelBack, CmdPanelClose, CmdTourStart, CmdTourStop,
		CmdTourNext, CmdTourPrevious, CmdTourDuration,
		CmdViewSet, CmdViewJump, CmdViewZoom,
	}
	for _, cmd := range commands {
		assert.True(t, d.HasHandler(cmd), "missing handler for %s", cmd)
	}
	assert.Len(t, d.Commands(), len(commands))
}

func TestHandleFilterSet(t *testing.T) {
	e := testEngine(t, testPoints())
	d := testDispatcher(t, e)

	state := dispatchState(t, d, CmdFilterSet, `{"departments":["Biology"]}`)
	assert.Equal(t, core.ViewFiltered, state.Selection.View)
	assert.Len(t, state.Selection.Results, 2)

	state = dispatchState(t, d, CmdFilterClear, "")
	assert.Equal(t, core.ViewIdle, state.Selection.View)
}

func TestHandleClusterAndPointClicks(t *testing.T) {
	e := testEngine(t, testPoints())
	d := testDispatcher(t, e)

	marker := clusterContaining(t, e.Snapshot().Clusters, "Coral Acoustics", "Ana Silva")
	state := dispatchState(t, d, CmdClusterClick, `{"id":"`+marker.ID+`"}`)
	assert.Equal(t, core.ViewPoint, state.Selection.View)

	state = dispatchState(t, d, CmdPointClick, `{"name":"Delta Sediment","researcher":"Priya Nair"}`)
	require.NotNil(t, state.Selection.Point)
	assert.Equal(t, "Delta Sediment", state.Selection.Point.Name)

	state = dispatchState(t, d, CmdPanelClose, "")
	assert.Equal(t, core.ViewIdle, state.Selection.View)
}

func TestHandleClusterClickUnknownID(t *testing.T) {
	e := testEngine(t, testPoints())
	d := testDispatcher(t, e)

	_, err := d.Dispatch(dispatcher.Event{
		Command: CmdClusterClick,
		Payload: json.RawMessage(`{"id":"cluster-999"}`),
	})
	assert.ErrorIs(t, err, ErrUnknownCluster)
}

func TestHandleMalformedPayload(t *testing.T) {
	e := testEngine(t, testPoints())
	d := testDispatcher(t, e)

	_, err := d.Dispatch(dispatcher.Event{
		Command: CmdViewSet,
		Payload: json.RawMessage(`{"zoom":"high"}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding view.set payload")
}

func TestHandleViewCommands(t *testing.T) {
	e := testEngine(t, testPoints())
	d := testDispatcher(t, e)

	state := dispatchState(t, d, CmdViewSet, `{"lon":-94.57,"lat":39.09,"zoom":8}`)
	assert.InDelta(t, 8.0, state.View.Zoom, 1e-9)

	state = dispatchState(t, d, CmdViewZoom, `{"direction":1}`)
	assert.InDelta(t, 9.0, state.View.Zoom, 1e-9)

	state = dispatchState(t, d, CmdViewJump, `{"preset":"campus"}`)
	assert.InDelta(t, 15.0, state.View.Zoom, 1e-9)

	_, err := d.Dispatch(dispatcher.Event{Command: CmdViewJump, Payload: json.RawMessage(`{"preset":"moon"}`)})
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestHandleTourCommands(t *testing.T) {
	e := testEngine(t, testPoints())
	d := testDispatcher(t, e)

	state := dispatchState(t, d, CmdTourStart, `{"duration":30}`)
	assert.True(t, state.Tour.Playing)
	assert.Equal(t, 30, state.Tour.Duration)

	state = dispatchState(t, d, CmdTourNext, "")
	assert.Equal(t, 1, state.Tour.Index)

	state = dispatchState(t, d, CmdTourPrevious, "")
	assert.Equal(t, 0, state.Tour.Index)

	state = dispatchState(t, d, CmdTourStop, "")
	assert.False(t, state.Tour.Playing)

	_, err := d.Dispatch(dispatcher.Event{Command: CmdTourDuration, Payload: json.RawMessage(`{"duration":45}`)})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}
