// Package monitor samples engine and runtime health on a fixed interval
// and ships it to the metrics manager plus an optional status file.
package monitor

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/researchatlas/engine/internal/channel"
	"github.com/researchatlas/engine/internal/dataset"
	"github.com/researchatlas/engine/internal/influx"
	"github.com/researchatlas/engine/internal/logging"
)

// EngineStats is the subset of engine state the monitor samples.
type EngineStats interface {
	Usage() map[string]int
	ClusterCacheStats() (hits, misses uint64)
}

// Dependencies holds all dependencies for the monitor service.
// QueueSizes and ClientCount may be nil when the owning subsystem is
// not running; Influx may be nil to disable metric output.
type Dependencies struct {
	Engine      EngineStats
	Dataset     *dataset.Context
	Influx      *influx.Manager
	LogManager  *logging.SlogManager
	QueueSizes  func() map[string]int
	ClientCount func() int
	StatusPath  string
}

// Status is one sampled snapshot of engine and runtime health.
type Status struct {
	Time           time.Time      `json:"time"`
	Dataset        dataset.Info   `json:"dataset"`
	Goroutines     int            `json:"goroutines"`
	HeapAllocBytes uint64         `json:"heapAllocBytes"`
	HeapObjects    uint64         `json:"heapObjects"`
	CacheHits      uint64         `json:"cacheHits"`
	CacheMisses    uint64         `json:"cacheMisses"`
	Clients        int            `json:"clients"`
	QueueDepths    map[string]int `json:"queueDepths,omitempty"`
	Interactions   map[string]int `json:"interactions,omitempty"`
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: channel.NewSignal(),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status samples the current engine and runtime state.
func (s *Service) Status() Status {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := Status{
		Time:           time.Now(),
		Dataset:        s.deps.Dataset.Get(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		HeapObjects:    mem.HeapObjects,
	}

	if s.deps.Engine != nil {
		status.CacheHits, status.CacheMisses = s.deps.Engine.ClusterCacheStats()
		status.Interactions = s.deps.Engine.Usage()
	}
	if s.deps.QueueSizes != nil {
		status.QueueDepths = s.deps.QueueSizes()
	}
	if s.deps.ClientCount != nil {
		status.Clients = s.deps.ClientCount()
	}

	return status
}

// Start starts the status monitor goroutine. Calling Start on a running
// service is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = channel.NewSignal()
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		var statusFile *os.File
		if s.deps.StatusPath != "" {
			var err error
			statusFile, err = os.Create(s.deps.StatusPath)
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			}
			defer statusFile.Close()
		}

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				if !s.deps.Dataset.Loaded() {
					continue
				}

				status := s.Status()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					enc := json.NewEncoder(statusFile)
					enc.SetIndent("", "  ")
					if err := enc.Encode(status); err != nil {
						logger.Error("Error writing status file", "error", err)
					}
				}

				s.writePoints(status)
			}
		}
	}()

	return nil
}

// writePoints ships one sampled status to the metrics manager.
func (s *Service) writePoints(status Status) {
	if s.deps.Influx == nil {
		return
	}

	ctx := context.Background()
	logger := s.deps.LogManager.Logger()

	p := influxdb2.NewPointWithMeasurement("engine_runtime").
		AddTag("dataset", status.Dataset.Name).
		AddField("goroutines", status.Goroutines).
		AddField("heap_alloc_bytes", int64(status.HeapAllocBytes)).
		AddField("heap_objects", int64(status.HeapObjects)).
		AddField("cluster_cache_hits", int64(status.CacheHits)).
		AddField("cluster_cache_misses", int64(status.CacheMisses)).
		AddField("clients", status.Clients).
		SetTime(status.Time)
	if err := s.deps.Influx.WritePoint(ctx, influx.BucketPerformance, p); err != nil {
		logger.Error("Error writing runtime point", "error", err)
	}

	if len(status.QueueDepths) > 0 {
		p = influxdb2.NewPointWithMeasurement("dispatcher_queue_lengths").
			AddTag("dataset", status.Dataset.Name).
			SetTime(status.Time)
		for cmd, depth := range status.QueueDepths {
			p.AddField(cmd, depth)
		}
		if err := s.deps.Influx.WritePoint(ctx, influx.BucketPerformance, p); err != nil {
			logger.Error("Error writing queue point", "error", err)
		}
	}

	if len(status.Interactions) > 0 {
		p = influxdb2.NewPointWithMeasurement("interactions").
			AddTag("dataset", status.Dataset.Name).
			SetTime(status.Time)
		for cmd, count := range status.Interactions {
			p.AddField(cmd, count)
		}
		if err := s.deps.Influx.WritePoint(ctx, influx.BucketUsage, p); err != nil {
			logger.Error("Error writing usage point", "error", err)
		}
	}
}

// Stop stops the status monitor. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.isRunning = false
		close(s.stopChan)
	}
}
