// Package dataset tracks what is currently loaded: name, origin and the
// load counters shown by the healthcheck, export meta and monitor.
package dataset

import (
	"sync"
	"time"
)

// Info describes one loaded dataset.
type Info struct {
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loadedAt"`
	Rows     int       `json:"rows"`
	Points   int       `json:"points"`
	Dropped  int       `json:"dropped"`
}

// Context holds the current dataset state.
type Context struct {
	mu   sync.RWMutex
	info Info
}

// NewContext creates a new Context with default values.
func NewContext() *Context {
	return &Context{
		info: Info{Name: "no dataset loaded"},
	}
}

// Get returns the current dataset info.
func (dc *Context) Get() Info {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.info
}

// Set replaces the dataset info, stamping the load time when unset.
func (dc *Context) Set(info Info) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if info.LoadedAt.IsZero() {
		info.LoadedAt = time.Now()
	}
	dc.info = info
}

// SetCounts updates the load counters without touching identity fields.
func (dc *Context) SetCounts(rows, points, dropped int) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.info.Rows = rows
	dc.info.Points = points
	dc.info.Dropped = dropped
}

// Loaded reports whether a dataset has been loaded.
func (dc *Context) Loaded() bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return !dc.info.LoadedAt.IsZero()
}
