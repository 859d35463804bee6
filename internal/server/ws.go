package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/researchatlas/engine/internal/channel"
	"github.com/researchatlas/engine/internal/dispatcher"
	"github.com/researchatlas/engine/pkg/core"
	"github.com/researchatlas/engine/pkg/streaming"
)

const (
	sendQueueSize  = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
)

// client is one connected websocket session with a single write goroutine.
type client struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	log    zerolog.Logger
}

// handleWebsocket upgrades the request and serves the session until the
// peer disconnects or the server shuts down.
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.deps.Logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	cl := &client{
		conn:   conn,
		sendCh: make(chan []byte, sendQueueSize),
		done:   channel.NewSignal(),
		log:    s.deps.Logger.With().Str("remote", conn.RemoteAddr().String()).Logger(),
	}

	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()

	cl.log.Info().Msg("WebSocket client connected")

	// hand the session its dataset and current state before live updates
	cl.enqueueFrame(streaming.TypeDataset, s.deps.Engine.Dataset().Get())
	cl.enqueueFrame(streaming.TypeStateUpdate, s.deps.Engine.Snapshot())

	subID, updates := s.deps.Engine.Subscribe()

	go cl.writeLoop()
	go cl.pumpStates(updates)

	cl.readLoop(s.deps.Dispatcher)

	s.deps.Engine.Unsubscribe(subID)
	cl.shutdown()

	s.mu.Lock()
	delete(s.clients, cl)
	s.mu.Unlock()

	cl.log.Info().Msg("WebSocket client disconnected")
}

// pumpStates forwards engine broadcasts to the session until the
// subscription channel closes or the session ends.
func (cl *client) pumpStates(updates <-chan core.EngineState) {
	for {
		select {
		case <-cl.done:
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			cl.enqueueFrame(streaming.TypeStateUpdate, state)
		}
	}
}

// readLoop consumes inbound frames, routes command frames through the
// dispatcher and answers each with an ack or error frame. It returns when
// the connection drops.
func (cl *client) readLoop(disp *dispatcher.Dispatcher) {
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			select {
			case <-cl.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					cl.log.Warn().Err(err).Msg("WebSocket read error")
				}
			}
			return
		}
		cl.handleFrame(disp, message)
	}
}

func (cl *client) handleFrame(disp *dispatcher.Dispatcher, message []byte) {
	env, err := streaming.ParseEnvelope(message)
	if err != nil {
		cl.sendError("", "invalid frame: "+err.Error())
		return
	}
	if env.Type != streaming.TypeCommand {
		cl.sendError("", fmt.Sprintf("unsupported frame type %q", env.Type))
		return
	}

	var cmd streaming.Command
	if err := json.Unmarshal(env.Payload, &cmd); err != nil || cmd.Command == "" {
		cl.sendError("", "invalid command payload")
		return
	}

	if _, err := disp.Dispatch(dispatcher.Event{
		Command: cmd.Command,
		Payload: cmd.Payload,
	}); err != nil {
		cl.sendError(cmd.Command, err.Error())
		return
	}

	cl.enqueueFrame(streaming.TypeAck, streaming.AckMessage{For: cmd.Command})
}

func (cl *client) sendError(forCmd, message string) {
	cl.enqueueFrame(streaming.TypeError, streaming.ErrorMessage{For: forCmd, Message: message})
}

func (cl *client) enqueueFrame(msgType string, payload any) {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		cl.log.Error().Err(err).Str("type", msgType).Msg("Error encoding frame")
		return
	}
	cl.enqueue(data)
}

// enqueue queues a frame for the write loop. When the session cannot keep
// up, the oldest queued frame is dropped so the peer converges on the
// newest state instead of stalling the engine.
func (cl *client) enqueue(data []byte) {
	for {
		select {
		case cl.sendCh <- data:
			return
		default:
			select {
			case <-cl.sendCh:
				cl.log.Debug().Msg("WebSocket send queue full, dropping oldest frame")
			default:
			}
		}
	}
}

// writeLoop drains sendCh and keeps the connection alive with pings.
// Only one writeLoop runs per session; it returns on error or shutdown.
func (cl *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case data := <-cl.sendCh:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				cl.log.Warn().Err(err).Msg("WebSocket write error")
				cl.shutdown()
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.shutdown()
				return
			}
		}
	}
}

// shutdown ends the session once: stops the loops and closes the socket.
func (cl *client) shutdown() {
	cl.once.Do(func() {
		close(cl.done)
		cl.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		cl.conn.Close()
	})
}
