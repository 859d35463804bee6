package geo

import (
	"errors"
	"math"
	"strconv"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Distances here are planar Euclidean in degree space, not geodesic. The
// clustering thresholds are small relative to Earth curvature at the zoom
// levels in use, so the distortion near the poles and the antimeridian is
// an accepted approximation; the threshold table is tuned against this
// metric and must not be reused with a geodesic one.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Distance returns the planar degree-space distance sqrt(dLat²+dLon²)
// between two WGS84 positions.
func Distance(aLat, aLon, bLat, bLon float64) float64 {
	dLat := aLat - bLat
	dLon := aLon - bLon
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// Centroid returns the arithmetic mean of the given positions. Zero input
// yields (0, 0).
func Centroid(lats, lons []float64) (lat, lon float64) {
	if len(lats) == 0 || len(lats) != len(lons) {
		return 0, 0
	}
	for i := range lats {
		lat += lats[i]
		lon += lons[i]
	}
	n := float64(len(lats))
	return lat / n, lon / n
}

// ParseLatLon parses and validates a latitude/longitude string pair.
func ParseLatLon(latStr, lonStr string) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates
	}
	if !ValidCoordinates(lat, lon) {
		return 0, 0, ErrInvalidCoordinates
	}
	return lat, lon, nil
}

// ValidCoordinates reports whether a position is finite and inside the
// WGS84 domain.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// NewEnvelope builds a lon/lat bounding box.
func NewEnvelope(minLon, minLat, maxLon, maxLat float64) geom.Envelope {
	return geom.NewEnvelope(
		geom.XY{X: minLon, Y: minLat},
		geom.XY{X: maxLon, Y: maxLat},
	)
}

// EnvelopeContains reports whether a position falls inside the envelope.
func EnvelopeContains(env geom.Envelope, lat, lon float64) bool {
	return env.Contains(geom.XY{X: lon, Y: lat})
}

// Coords3857From4326 projects a WGS84 longitude/latitude into web mercator.
func Coords3857From4326(
	longitude float64,
	latitude float64,
) (
	point geom.Point,
	err error,
) {
	var x, y float64
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(longitude, latitude, 0)
	point = geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
			Z:  0,
		},
	)
	return point, nil
}
