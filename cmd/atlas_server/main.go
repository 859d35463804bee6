// atlas_server loads a research project dataset, resolves its locations
// and serves the interactive map engine over HTTP and WebSocket.
//
// Subcommands:
//
//	serve            load the configured dataset and serve it (default)
//	demo             serve the built-in sample dataset, skipping geocoding
//	export [path]    write the dataset payload (or GeoJSON) to a file
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/researchatlas/engine/internal/camera"
	"github.com/researchatlas/engine/internal/cluster"
	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/internal/dataset"
	"github.com/researchatlas/engine/internal/dispatcher"
	"github.com/researchatlas/engine/internal/engine"
	"github.com/researchatlas/engine/internal/influx"
	"github.com/researchatlas/engine/internal/logging"
	"github.com/researchatlas/engine/internal/monitor"
	"github.com/researchatlas/engine/internal/selection"
	"github.com/researchatlas/engine/internal/server"
	"github.com/researchatlas/engine/internal/store"
	"github.com/researchatlas/engine/internal/tour"
	"github.com/researchatlas/engine/pkg/core"
)

// Version can be set at build time via ldflags.
var (
	Version   = "0.5.0"
	BuildDate = "unknown"
)

const AppName = "atlas_server"

var (
	// SlogManager handles all slog-based logging.
	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	SessionStart = time.Now()
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// console-only logging until config names the session log file
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info")
	Logger = SlogManager.Logger()

	Logger.Info("Starting up", "app", AppName, "version", Version, "buildDate", BuildDate)

	if err := config.Load("."); err != nil {
		Logger.Warn("Failed to load config, using defaults", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logLevel := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")

	var fileSink io.Writer
	logFile, logPath, err := logging.OpenSessionLog(logsDir, AppName, SessionStart)
	if err != nil {
		Logger.Error("Failed to open session log file", "error", err)
	} else {
		fileSink = logFile
		defer logFile.Close()
	}

	SlogManager.Setup(fileSink, logLevel)
	Logger = SlogManager.Logger()
	if fileSink != nil {
		Logger.Info("Logging to file", "path", logPath)
	}

	zwriter, err := logging.NewZerologWriter(fileSink, config.GetGraylogConfig())
	if err != nil {
		Logger.Warn("Failed to set up graylog sink, console and file only", "error", err)
		zwriter, _ = logging.NewZerologWriter(fileSink, config.GraylogConfig{})
	}
	zlog := logging.NewZerologLogger(zwriter, logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "serve"
	rest := args
	if len(args) > 0 {
		command = strings.ToLower(args[0])
		rest = args[1:]
	}

	switch command {
	case "serve":
		return runServe(ctx, zlog, false)
	case "demo":
		return runServe(ctx, zlog, true)
	case "export":
		return runExport(ctx, zlog, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected serve, demo or export)\n", command)
		return 2
	}
}

func runServe(ctx context.Context, zlog zerolog.Logger, demo bool) int {
	serverCfg := config.GetServerConfig()
	if demo {
		serverCfg.Enabled = true
	}
	if !serverCfg.Enabled {
		Logger.Error("server.enabled is false, nothing to serve")
		return 1
	}

	datasetCtx := dataset.NewContext()
	points, err := loadDataset(ctx, zlog, datasetCtx, demo)
	if err != nil {
		Logger.Error("Failed to load dataset", "error", err)
		return 1
	}

	eng, seq, err := buildEngine(points, datasetCtx)
	if err != nil {
		Logger.Error("Failed to build engine", "error", err)
		return 1
	}

	disp, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		return 1
	}
	eng.RegisterHandlers(disp)

	srv := server.New(serverCfg, server.Dependencies{
		Engine:     eng,
		Dispatcher: disp,
		Presets:    config.GetViewConfig().Presets,
		Durations:  config.GetTourConfig().Durations,
		Logger:     zlog,
	})

	influxManager := influx.NewManager(config.GetInfluxConfig(), zlog)
	if err := influxManager.Connect(); err != nil {
		Logger.Warn("Metrics output unavailable", "error", err)
		influxManager = nil
	}

	monitorService := monitor.NewService(monitor.Dependencies{
		Engine:      eng,
		Dataset:     datasetCtx,
		Influx:      influxManager,
		LogManager:  SlogManager,
		QueueSizes:  disp.QueueSizes,
		ClientCount: srv.ClientCount,
		StatusPath:  filepath.Join(config.GetString("logsDir"), "status.json"),
	})

	// dynamic state attrs stamped onto every log record
	SlogManager.GetDatasetName = func() string { return datasetCtx.Get().Name }
	SlogManager.IsTourActive = seq.Playing
	SlogManager.IsMonitorRunning = monitorService.IsRunning

	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start status monitor", "error", err)
	}

	info := datasetCtx.Get()
	Logger.Info("Research atlas ready",
		"dataset", info.Name,
		"points", info.Points,
		"addr", serverCfg.ListenAddr)

	err = srv.Run(ctx)

	monitorService.Stop()
	if drainErr := disp.Drain(5 * time.Second); drainErr != nil {
		Logger.Warn("Dispatcher drain incomplete", "error", drainErr)
	}
	eng.Close()
	if influxManager != nil {
		influxManager.Close()
	}

	if err != nil {
		Logger.Error("Server failed", "error", err)
		return 1
	}
	Logger.Info("Shutdown complete")
	return 0
}

// buildEngine assembles the interaction core from the config sections.
func buildEngine(points []core.GeoPoint, datasetCtx *dataset.Context) (*engine.Engine, *tour.Sequencer, error) {
	clusterCfg, err := config.GetClusterConfig()
	if err != nil {
		Logger.Warn("Invalid cluster config, using default thresholds", "error", err)
	}

	st := store.New(points)
	sel := selection.New(clusterCfg.AutoExpandZoom)
	cam := camera.New(config.GetViewConfig())

	tourCfg := config.GetTourConfig()
	seq := tour.New(tour.Dependencies{
		Camera:    cam,
		Selection: sel,
		Regions:   config.GetRegionConfig(),
		TierZooms: tourCfg.TierZooms,
		Durations: tourCfg.Durations,
		Duration:  tourCfg.DefaultDuration,
		Tick:      tourCfg.Tick,
		Lexicon:   config.GetTermLexicon(),
		Log:       Logger,
	})

	eng, err := engine.New(engine.Dependencies{
		Store:     st,
		Clusters:  cluster.NewCache(cluster.New(clusterThresholds(clusterCfg.Thresholds)), clusterCfg.CacheSize),
		Selection: sel,
		Camera:    cam,
		Tour:      seq,
		Dataset:   datasetCtx,
		Log:       Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return eng, seq, nil
}

// clusterThresholds converts the config table, falling back to the
// built-in defaults when the table fails validation.
func clusterThresholds(bands []config.ZoomThreshold) cluster.Thresholds {
	if len(bands) == 0 {
		return nil
	}
	t := make(cluster.Thresholds, 0, len(bands))
	for _, b := range bands {
		t = append(t, cluster.Band{MaxZoom: b.MaxZoom, Degrees: b.Degrees})
	}
	if err := t.Validate(); err != nil {
		Logger.Warn("Invalid cluster threshold table, using defaults", "error", err)
		return nil
	}
	return t
}
