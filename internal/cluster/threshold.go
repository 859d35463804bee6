package cluster

import (
	"errors"
	"fmt"
)

// Band is one step of the zoom-to-threshold table: the grouping distance
// in degrees applied up to and including MaxZoom.
type Band struct {
	MaxZoom float64
	Degrees float64
}

// Thresholds is an ordered step table, loose at world zoom and tight at
// campus zoom. Degrees must be non-increasing across the table.
type Thresholds []Band

// DefaultThresholds returns the tuning table used when no configuration
// overrides it.
func DefaultThresholds() Thresholds {
	return Thresholds{
		{MaxZoom: 4, Degrees: 5.0},
		{MaxZoom: 6, Degrees: 2.0},
		{MaxZoom: 8, Degrees: 0.8},
		{MaxZoom: 10, Degrees: 0.3},
		{MaxZoom: 12, Degrees: 0.05},
		{MaxZoom: 14, Degrees: 0.01},
		{MaxZoom: 99, Degrees: 0.002},
	}
}

// IndexForZoom returns the index of the first band admitting the given
// zoom. Zooms past the last band use the last band.
func (t Thresholds) IndexForZoom(zoom float64) int {
	for i, b := range t {
		if zoom <= b.MaxZoom {
			return i
		}
	}
	return len(t) - 1
}

// ForZoom returns the grouping distance for the given zoom.
func (t Thresholds) ForZoom(zoom float64) float64 {
	if len(t) == 0 {
		return 0
	}
	return t[t.IndexForZoom(zoom)].Degrees
}

// Validate checks the table invariants: non-empty, strictly ascending
// MaxZoom, positive and non-increasing Degrees.
func (t Thresholds) Validate() error {
	if len(t) == 0 {
		return errors.New("threshold table is empty")
	}
	for i, b := range t {
		if b.Degrees <= 0 {
			return fmt.Errorf("band %d: degrees must be positive, got %v", i, b.Degrees)
		}
		if i == 0 {
			continue
		}
		if b.MaxZoom <= t[i-1].MaxZoom {
			return fmt.Errorf("band %d: maxZoom %v not above previous %v", i, b.MaxZoom, t[i-1].MaxZoom)
		}
		if b.Degrees > t[i-1].Degrees {
			return fmt.Errorf("band %d: degrees %v increases over previous %v", i, b.Degrees, t[i-1].Degrees)
		}
	}
	return nil
}
