package export

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchatlas/engine/pkg/core"
)

func testPoints() []core.GeoPoint {
	return []core.GeoPoint{
		{Name: "Origin Study", Researcher: "A", Lat: 0, Lon: 0, MapFocus: core.FocusWorld},
		{
			Name:       "Glacier Survey",
			Researcher: "B",
			Lat:        61.2,
			Lon:        -149.9,
			Department: "Geology",
			MapFocus:   core.FocusWorld,
			Links:      []string{"https://example.org/ice"},
		},
	}
}

func TestGeoJSON_4326(t *testing.T) {
	fc, err := GeoJSON(testPoints(), CRS4326)
	require.NoError(t, err)

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	glacier := fc.Features[1]
	assert.Equal(t, "Feature", glacier.Type)
	assert.Equal(t, "Point", glacier.Geometry.Type)
	assert.Equal(t, [2]float64{-149.9, 61.2}, glacier.Geometry.Coordinates)
	assert.Equal(t, "Glacier Survey", glacier.Properties["name"])
	assert.Equal(t, "Geology", glacier.Properties["department"])
	assert.NotContains(t, glacier.Properties, "term")
}

func TestGeoJSON_ZeroCRSDefaultsTo4326(t *testing.T) {
	fc, err := GeoJSON(testPoints(), 0)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0, 0}, fc.Features[0].Geometry.Coordinates)
}

func TestGeoJSON_3857Projection(t *testing.T) {
	fc, err := GeoJSON(testPoints(), CRS3857)
	require.NoError(t, err)

	// The null island maps to the mercator origin.
	origin := fc.Features[0].Geometry.Coordinates
	assert.InDelta(t, 0, origin[0], 1e-6)
	assert.InDelta(t, 0, origin[1], 1e-6)

	// A western-hemisphere point lands at negative mercator x, and well
	// outside the degree domain.
	glacier := fc.Features[1].Geometry.Coordinates
	assert.Negative(t, glacier[0])
	assert.Greater(t, math.Abs(glacier[0]), 1_000_000.0)
	assert.Positive(t, glacier[1])
}

func TestGeoJSON_UnsupportedCRS(t *testing.T) {
	_, err := GeoJSON(testPoints(), 25832)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedCRS)
}

func TestGeoJSON_EmptyInput(t *testing.T) {
	fc, err := GeoJSON(nil, CRS4326)
	require.NoError(t, err)
	assert.NotNil(t, fc.Features)
	assert.Empty(t, fc.Features)
}
