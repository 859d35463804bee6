// Package server exposes the engine over HTTP and WebSocket: REST
// endpoints for dataset, points, facets, clusters and state, a command
// endpoint feeding the dispatcher, and a streaming connection that pushes
// a state frame after every engine transition.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/internal/dispatcher"
	"github.com/researchatlas/engine/internal/engine"
)

const shutdownTimeout = 5 * time.Second

// Dependencies holds everything the server serves from. Presets and
// Durations feed the dataset payload alongside the engine's store.
type Dependencies struct {
	Engine     *engine.Engine
	Dispatcher *dispatcher.Dispatcher
	Presets    map[string]config.ViewPreset
	Durations  []int
	Logger     zerolog.Logger
}

// Server is the HTTP/WebSocket front end of the engine.
type Server struct {
	cfg      config.ServerConfig
	deps     Dependencies
	router   *gin.Engine
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New builds the router and websocket upgrader. Run starts serving.
func New(cfg config.ServerConfig, deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		clients: make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))
	router.Use(CORS(cfg.AllowedOrigins))

	router.GET("/healthcheck", s.handleHealthcheck)

	api := router.Group("/api/v1")
	{
		api.GET("/dataset", s.handleDataset)
		api.GET("/points", s.handlePoints)
		api.GET("/facets", s.handleFacets)
		api.GET("/clusters", s.handleClusters)
		api.GET("/state", s.handleState)
		api.POST("/command", s.handleCommand)
		api.GET("/export.geojson", s.handleExportGeoJSON)
	}

	router.GET("/ws", s.handleWebsocket)

	s.router = router
	return s
}

// Router returns the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run serves until ctx is cancelled, then shuts the listener down
// gracefully and closes the remaining websocket clients.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.deps.Logger.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.closeClients()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.deps.Logger.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for cl := range s.clients {
		clients = append(clients, cl)
	}
	s.mu.Unlock()

	for _, cl := range clients {
		cl.shutdown()
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return allowOrigin(s.cfg.AllowedOrigins, origin) != ""
}
