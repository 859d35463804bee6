package cluster

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchatlas/engine/pkg/core"
)

func pt(name string, lat, lon float64) core.GeoPoint {
	return core.GeoPoint{Name: name, Researcher: "R", Lat: lat, Lon: lon}
}

// single returns a one-band table so tests can pin the exact grouping
// distance.
func single(degrees float64) Thresholds {
	return Thresholds{{MaxZoom: 99, Degrees: degrees}}
}

func TestCompute_EmptyInput(t *testing.T) {
	got := Compute(nil, 5, nil)

	require.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestCompute_SinglePoint(t *testing.T) {
	p := pt("Solo", 40.0, -111.0)

	got := Compute([]core.GeoPoint{p}, 5, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "marker-1", got[0].ID)
	assert.False(t, got[0].IsCluster)
	assert.Equal(t, 40.0, got[0].Lat)
	assert.Equal(t, -111.0, got[0].Lon)
	require.Len(t, got[0].Points, 1)
	assert.Equal(t, "Solo", got[0].Points[0].Name)
}

func TestCompute_PairWithinThreshold(t *testing.T) {
	points := []core.GeoPoint{
		pt("A", 40.0, -111.0),
		pt("B", 40.1, -111.1),
	}

	got := New(single(0.5)).Compute(points, 5, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "cluster-1", got[0].ID)
	assert.True(t, got[0].IsCluster)
	assert.Len(t, got[0].Points, 2)
}

func TestCompute_MonotonicityExample(t *testing.T) {
	// Pair plus a far-away singleton: tight threshold keeps them apart,
	// loose threshold absorbs everything into one group.
	points := []core.GeoPoint{
		pt("A", 0, 0),
		pt("B", 0.0001, 0.0001),
		pt("C", 10, 10),
	}

	tight := New(single(0.0005)).Compute(points, 5, nil)
	require.Len(t, tight, 2)
	assert.True(t, tight[0].IsCluster)
	assert.Len(t, tight[0].Points, 2)
	assert.False(t, tight[1].IsCluster)

	loose := New(single(5.0)).Compute(points, 5, nil)
	require.Len(t, loose, 1)
	assert.Len(t, loose[0].Points, 3)
}

func TestCompute_CountNonIncreasingAsThresholdGrows(t *testing.T) {
	points := []core.GeoPoint{
		pt("A", 0, 0),
		pt("B", 0.2, 0.1),
		pt("C", 1.5, 1.2),
		pt("D", 8.0, 7.5),
		pt("E", 8.3, 7.6),
		pt("F", 40.0, -111.0),
	}

	prev := math.MaxInt
	for _, degrees := range []float64{0.001, 0.05, 0.5, 2.0, 10.0, 100.0} {
		got := New(single(degrees)).Compute(points, 5, nil)
		assert.LessOrEqual(t, len(got), prev, "cluster count grew at threshold %v", degrees)
		prev = len(got)
	}
}

func TestCompute_GreedySeedDistance(t *testing.T) {
	// B is within range of seed A, C is within range of B but not of A.
	// Grouping measures against the seed, so C stays separate.
	points := []core.GeoPoint{
		pt("A", 0, 0),
		pt("B", 0, 0.9),
		pt("C", 0, 1.8),
	}

	got := New(single(1.0)).Compute(points, 5, nil)

	require.Len(t, got, 2)
	assert.Len(t, got[0].Points, 2)
	assert.Equal(t, "C", got[1].Points[0].Name)
}

func TestCompute_CentroidIsArithmeticMean(t *testing.T) {
	points := []core.GeoPoint{
		pt("A", 40.0, -111.0),
		pt("B", 40.2, -111.4),
		pt("C", 40.4, -111.2),
	}

	got := New(single(1.0)).Compute(points, 5, nil)

	require.Len(t, got, 1)
	assert.InDelta(t, (40.0+40.2+40.4)/3, got[0].Lat, 1e-9)
	assert.InDelta(t, (-111.0-111.4-111.2)/3, got[0].Lon, 1e-9)
}

func TestCompute_ExactCluster(t *testing.T) {
	points := []core.GeoPoint{
		pt("A", 40.0, -111.0),
		pt("B", 40.0, -111.0),
		pt("C", 40.0, -111.0),
	}

	got := New(single(0.1)).Compute(points, 5, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "exact-cluster-1", got[0].ID)
	assert.True(t, got[0].IsCluster)
	assert.Len(t, got[0].Points, 3)
	assert.Equal(t, 40.0, got[0].Lat)
	assert.Equal(t, -111.0, got[0].Lon)
}

func TestCompute_MixedCoordinatesIsPlainCluster(t *testing.T) {
	points := []core.GeoPoint{
		pt("A", 40.0, -111.0),
		pt("B", 40.0, -111.0),
		pt("C", 40.01, -111.0),
	}

	got := New(single(0.1)).Compute(points, 5, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "cluster-1", got[0].ID)
}

func TestCompute_DiscoveryOrderIDs(t *testing.T) {
	// Three groups in input order: a pair, a singleton, a pair.
	points := []core.GeoPoint{
		pt("A1", 0, 0),
		pt("A2", 0.01, 0.01),
		pt("B", 5, 5),
		pt("C1", 20, 20),
		pt("C2", 20.01, 20.01),
	}

	got := New(single(0.1)).Compute(points, 5, nil)

	require.Len(t, got, 3)
	assert.Equal(t, "cluster-1", got[0].ID)
	assert.Equal(t, "marker-2", got[1].ID)
	assert.Equal(t, "cluster-3", got[2].ID)
}

func TestCompute_SentinelReplacesCounterID(t *testing.T) {
	focus := pt("B", 5, 5)
	points := []core.GeoPoint{
		pt("A1", 0, 0),
		pt("A2", 0.01, 0.01),
		focus,
		pt("C", 20, 20),
	}

	got := New(single(0.1)).Compute(points, 5, &focus)

	require.Len(t, got, 3)
	assert.Equal(t, "cluster-1", got[0].ID)
	assert.Equal(t, core.SelectedClusterID, got[1].ID)
	// The sentinel group still consumes its counter slot.
	assert.Equal(t, "marker-3", got[2].ID)
}

func TestCompute_SentinelUniqueness(t *testing.T) {
	focus := pt("B", 0.01, 0.01)
	points := []core.GeoPoint{
		pt("A", 0, 0),
		focus,
		pt("C", 10, 10),
		pt("D", 10.01, 10.01),
	}

	got := New(single(0.1)).Compute(points, 5, &focus)

	sentinels := 0
	for _, c := range got {
		if c.ID == core.SelectedClusterID {
			sentinels++
			assert.True(t, c.Contains(focus.Key()), "sentinel cluster must contain the focus point")
		}
	}
	assert.Equal(t, 1, sentinels)
}

func TestCompute_SentinelNeedsIdentityMatch(t *testing.T) {
	// Same name, different researcher: not the same record.
	focus := core.GeoPoint{Name: "A", Researcher: "Other", Lat: 0, Lon: 0}
	points := []core.GeoPoint{
		pt("A", 0, 0),
		pt("B", 10, 10),
	}

	got := New(single(0.1)).Compute(points, 5, &focus)

	for _, c := range got {
		assert.NotEqual(t, core.SelectedClusterID, c.ID)
	}
}

func TestCompute_NoFocusNoSentinel(t *testing.T) {
	points := []core.GeoPoint{
		pt("A", 0, 0),
		pt("B", 0.01, 0.01),
	}

	got := New(single(0.1)).Compute(points, 5, nil)

	require.Len(t, got, 1)
	assert.NotEqual(t, core.SelectedClusterID, got[0].ID)
}

func TestCompute_PartitionsInput(t *testing.T) {
	points := make([]core.GeoPoint, 0, 30)
	for i := 0; i < 30; i++ {
		points = append(points, pt(fmt.Sprintf("P%d", i), float64(i%5), float64(i%7)))
	}

	got := New(single(0.5)).Compute(points, 5, nil)

	total := 0
	seen := make(map[core.PointKey]bool)
	for _, c := range got {
		total += len(c.Points)
		for _, m := range c.Points {
			assert.False(t, seen[m.Key()], "point %s appears in two groups", m.Name)
			seen[m.Key()] = true
		}
	}
	assert.Equal(t, len(points), total)
}

func TestCompute_IDPrefixes(t *testing.T) {
	points := []core.GeoPoint{
		pt("A1", 0, 0),
		pt("A2", 0, 0),
		pt("B1", 5, 5),
		pt("B2", 5.01, 5.01),
		pt("C", 20, 20),
	}

	got := New(single(0.1)).Compute(points, 5, nil)

	require.Len(t, got, 3)
	for _, c := range got {
		switch {
		case strings.HasPrefix(c.ID, "exact-cluster-"):
			assert.True(t, c.IsCluster)
		case strings.HasPrefix(c.ID, "cluster-"):
			assert.True(t, c.IsCluster)
		case strings.HasPrefix(c.ID, "marker-"):
			assert.False(t, c.IsCluster)
		default:
			t.Errorf("unexpected cluster ID %q", c.ID)
		}
	}
}

func TestCompute_ZoomSelectsBand(t *testing.T) {
	// One degree apart: grouped at world zoom, separate at campus zoom.
	points := []core.GeoPoint{
		pt("A", 40.0, -111.0),
		pt("B", 41.0, -111.0),
	}

	world := Compute(points, 2, nil)
	assert.Len(t, world, 1)

	campus := Compute(points, 16, nil)
	assert.Len(t, campus, 2)
}
