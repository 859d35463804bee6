package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistance_Zero(t *testing.T) {
	if d := Distance(40.0, -111.0, 40.0, -111.0); d != 0 {
		t.Errorf("expected zero distance, got %f", d)
	}
}

func TestDistance_AxisAligned(t *testing.T) {
	if d := Distance(40.0, -111.0, 41.0, -111.0); d != 1.0 {
		t.Errorf("expected 1.0 for one degree of latitude, got %f", d)
	}
	if d := Distance(40.0, -111.0, 40.0, -110.0); d != 1.0 {
		t.Errorf("expected 1.0 for one degree of longitude, got %f", d)
	}
}

func TestDistance_Diagonal(t *testing.T) {
	d := Distance(0, 0, 3, 4)
	if math.Abs(d-5.0) > 1e-12 {
		t.Errorf("expected 5.0, got %f", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Distance(40.76, -111.84, 39.32, -111.60)
	b := Distance(39.32, -111.60, 40.76, -111.84)
	if a != b {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestCentroid_SinglePoint(t *testing.T) {
	lat, lon := Centroid([]float64{40.5}, []float64{-111.5})
	if lat != 40.5 || lon != -111.5 {
		t.Errorf("expected (40.5, -111.5), got (%f, %f)", lat, lon)
	}
}

func TestCentroid_Mean(t *testing.T) {
	lat, lon := Centroid([]float64{0, 10}, []float64{0, 20})
	if lat != 5.0 {
		t.Errorf("expected lat=5.0, got %f", lat)
	}
	if lon != 10.0 {
		t.Errorf("expected lon=10.0, got %f", lon)
	}
}

func TestCentroid_Empty(t *testing.T) {
	lat, lon := Centroid(nil, nil)
	if lat != 0 || lon != 0 {
		t.Errorf("expected (0, 0) for empty input, got (%f, %f)", lat, lon)
	}
}

func TestCentroid_MismatchedLengths(t *testing.T) {
	lat, lon := Centroid([]float64{1, 2}, []float64{1})
	if lat != 0 || lon != 0 {
		t.Errorf("expected (0, 0) for mismatched input, got (%f, %f)", lat, lon)
	}
}

func TestParseLatLon_Valid(t *testing.T) {
	lat, lon, err := ParseLatLon("40.7608", "-111.8910")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat != 40.7608 {
		t.Errorf("expected lat=40.7608, got %f", lat)
	}
	if lon != -111.8910 {
		t.Errorf("expected lon=-111.8910, got %f", lon)
	}
}

func TestParseLatLon_InvalidLatitude(t *testing.T) {
	_, _, err := ParseLatLon("abc", "-111.8910")

	if err == nil {
		t.Fatal("expected error for invalid latitude")
	}
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestParseLatLon_InvalidLongitude(t *testing.T) {
	_, _, err := ParseLatLon("40.76", "xyz")

	if err == nil {
		t.Fatal("expected error for invalid longitude")
	}
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestParseLatLon_OutOfRange(t *testing.T) {
	if _, _, err := ParseLatLon("91.0", "0"); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates for lat 91, got %v", err)
	}
	if _, _, err := ParseLatLon("0", "181.0"); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates for lon 181, got %v", err)
	}
	if _, _, err := ParseLatLon("-90.0", "-180.0"); err != nil {
		t.Errorf("domain corners are valid, got %v", err)
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(40.76, -111.89) {
		t.Error("expected valid coordinates")
	}
	if ValidCoordinates(math.NaN(), 0) {
		t.Error("NaN latitude must be invalid")
	}
	if ValidCoordinates(0, math.Inf(1)) {
		t.Error("infinite longitude must be invalid")
	}
	if ValidCoordinates(-90.0001, 0) {
		t.Error("latitude below -90 must be invalid")
	}
}

func TestEnvelopeContains_Inside(t *testing.T) {
	env := NewEnvelope(-114.06, 36.99, -109.04, 42.01)

	if !EnvelopeContains(env, 40.76, -111.84) {
		t.Error("expected point inside envelope")
	}
}

func TestEnvelopeContains_Outside(t *testing.T) {
	env := NewEnvelope(-114.06, 36.99, -109.04, 42.01)

	if EnvelopeContains(env, 60.1, -149.4) {
		t.Error("expected point outside envelope")
	}
	if EnvelopeContains(env, 40.76, -108.0) {
		t.Error("expected point east of envelope to be outside")
	}
}

func TestEnvelopeContains_Boundary(t *testing.T) {
	env := NewEnvelope(-10, -10, 10, 10)

	if !EnvelopeContains(env, 10, 10) {
		t.Error("expected boundary corner to be inside")
	}
	if !EnvelopeContains(env, 0, -10) {
		t.Error("expected boundary edge to be inside")
	}
}

func TestCoords3857From4326_Origin(t *testing.T) {
	point, err := Coords3857From4326(0, 0)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coords, ok := point.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if coords.X != 0 {
		t.Errorf("expected X=0 at origin, got %f", coords.X)
	}
	if coords.Y != 0 {
		t.Errorf("expected Y=0 at origin, got %f", coords.Y)
	}
}

func TestCoords3857From4326_NonZeroCoordinates(t *testing.T) {
	point, err := Coords3857From4326(10, 10)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coords, ok := point.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if coords.X <= 0 {
		t.Errorf("expected positive X, got %f", coords.X)
	}
	if coords.Y <= 0 {
		t.Errorf("expected positive Y, got %f", coords.Y)
	}
}

func TestCoords3857From4326_NegativeCoordinates(t *testing.T) {
	point, err := Coords3857From4326(-45, -30)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coords, ok := point.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if coords.X >= 0 {
		t.Errorf("expected negative X for western hemisphere, got %f", coords.X)
	}
	if coords.Y >= 0 {
		t.Errorf("expected negative Y for southern hemisphere, got %f", coords.Y)
	}
}
