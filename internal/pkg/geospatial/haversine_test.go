package geospatial

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenaworks/proximity/internal/core/domain"
)

func TestDistanceKm_Identity(t *testing.T) {
	points := [][2]float64{{9.03, 38.74}, {0, 0}, {-33.86, 151.21}, {89.9, -179.9}}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceKm(p[0], p[1], p[0], p[1]), "point %v", p)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{9.03, 38.74, 9.145, 38.7617},
		{43.263, -2.935, 40.4168, -3.7038},
		{-33.86, 151.21, 51.5074, -0.1278},
		{0, 179.5, 0, -179.5},
	}
	for _, p := range pairs {
		assert.Equal(t, DistanceKm(p[0], p[1], p[2], p[3]), DistanceKm(p[2], p[3], p[0], p[1]))
	}
}

func TestDistanceKm_OneDegreeOfLatitude(t *testing.T) {
	d := DistanceKm(9.03, 38.74, 10.03, 38.74)
	assert.InDelta(t, 111.19, d, 0.5)
	assert.Equal(t, 111.19, d)
}

func TestDistanceKm_Monotonic(t *testing.T) {
	prev := -1.0
	for step := 0; step <= 20; step++ {
		d := DistanceKm(9.03, 38.74, 9.03+float64(step)*0.25, 38.74)
		assert.GreaterOrEqual(t, d, 0.0)
		assert.Greater(t, d, prev, "step %d", step)
		prev = d
	}
}

func TestDistanceKm_MatchesS2(t *testing.T) {
	pairs := [][4]float64{
		{9.03, 38.74, 9.145, 38.7617},
		{9.03, 38.74, 10.03, 38.74},
		{43.263, -2.935, 40.4168, -3.7038},
		{-33.86, 151.21, 51.5074, -0.1278},
	}
	for _, p := range pairs {
		a := s2.LatLngFromDegrees(p[0], p[1])
		b := s2.LatLngFromDegrees(p[2], p[3])
		want := a.Distance(b).Radians() * earthRadiusKm
		assert.InDelta(t, want, DistanceKm(p[0], p[1], p[2], p[3]), 0.006, "pair %v", p)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		9.1234999: 9.12,
		9.125:     9.13,
		0.004:     0,
		111.19492: 111.19,
		13.0074:   13.01,
	}
	for in, want := range cases {
		assert.Equal(t, want, round2(in), "round2(%v)", in)
	}
}

func TestDistanceKm_TwoDecimalPlaces(t *testing.T) {
	d := DistanceKm(9.03, 38.74, 9.145, 38.7617)
	assert.Equal(t, d, math.Round(d*100)/100)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	b := BoundingBox(9.03, 38.74, 10)
	require.Less(t, b.MinLat, 9.03)
	require.Greater(t, b.MaxLat, 9.03)

	// The box edges sit one radius plus the rounding slack away from the center.
	assert.InDelta(t, 10.005, haversineKm(9.03, 38.74, b.MaxLat, 38.74), 1e-6)
	assert.InDelta(t, 10.005, haversineKm(9.03, 38.74, b.MinLat, 38.74), 1e-6)
	assert.GreaterOrEqual(t, haversineKm(9.03, 38.74, 9.03, b.MaxLon), 10.005)
	assert.GreaterOrEqual(t, haversineKm(9.03, 38.74, 9.03, b.MinLon), 10.005)
}

func TestBoundingBox_KeepsPointsThatRoundToRadius(t *testing.T) {
	lat := 9.03 + toDeg(10.004/earthRadiusKm)
	require.Equal(t, 10.0, DistanceKm(9.03, 38.74, lat, 38.74))

	b := BoundingBox(9.03, 38.74, 10)
	assert.Less(t, lat, b.MaxLat)
}

func TestBoundingBox_Poles(t *testing.T) {
	b := BoundingBox(90, 0, 50)
	assert.Equal(t, 90.0, b.MaxLat)
	assert.Equal(t, -180.0, b.MinLon)
	assert.Equal(t, 180.0, b.MaxLon)
}

func TestValidLatLon(t *testing.T) {
	assert.True(t, ValidLatLon(0, 0))
	assert.True(t, ValidLatLon(-90, 180))
	assert.False(t, ValidLatLon(90.0001, 0))
	assert.False(t, ValidLatLon(0, -180.5))
	assert.False(t, ValidLatLon(math.NaN(), 0))
	assert.False(t, ValidLatLon(0, math.Inf(1)))
}

func ptr(v float64) *float64 { return &v }

func TestExtractCoordinates_GeoJSONAxisOrder(t *testing.T) {
	loc := domain.Location{Coordinates: &domain.GeoJSONPoint{Type: "Point", Coordinates: []float64{38.74, 9.03}}}
	p := ExtractCoordinates(loc)
	require.NotNil(t, p)
	assert.Equal(t, 9.03, p.Lat)
	assert.Equal(t, 38.74, p.Lon)
}

func TestExtractCoordinates_FlatWins(t *testing.T) {
	loc := domain.Location{
		Latitude:    ptr(1),
		Longitude:   ptr(1),
		Coordinates: domain.NewGeoJSONPoint(2, 2),
	}
	p := ExtractCoordinates(loc)
	require.NotNil(t, p)
	assert.Equal(t, domain.GeoPoint{Lat: 1, Lon: 1}, *p)
}

func TestExtractCoordinates_HalfFlatFallsBackToGeoJSON(t *testing.T) {
	loc := domain.Location{Latitude: ptr(1), Coordinates: domain.NewGeoJSONPoint(2, 3)}
	p := ExtractCoordinates(loc)
	require.NotNil(t, p)
	assert.Equal(t, domain.GeoPoint{Lat: 2, Lon: 3}, *p)
}

func TestExtractCoordinates_FlatZeroIsAValue(t *testing.T) {
	p := ExtractCoordinates(domain.FlatLocation(0, 0))
	require.NotNil(t, p)
	assert.Equal(t, domain.GeoPoint{}, *p)
}

func TestExtractCoordinates_Missing(t *testing.T) {
	assert.Nil(t, ExtractCoordinates(domain.Location{}))
	assert.Nil(t, ExtractCoordinates(domain.Location{Longitude: ptr(5)}))
	assert.Nil(t, ExtractCoordinates(domain.Location{Coordinates: &domain.GeoJSONPoint{Type: "Point"}}))
	assert.Nil(t, ExtractCoordinates(domain.Location{Coordinates: &domain.GeoJSONPoint{Type: "Point", Coordinates: []float64{38.74}}}))
}

func TestExtractCoordinates_NullGeoJSONMember(t *testing.T) {
	cases := []struct {
		body string
		want *domain.GeoPoint
	}{
		{`{"coordinates":{"type":"Point","coordinates":[38.74,null]}}`, nil},
		{`{"coordinates":{"type":"Point","coordinates":[null,9.03]}}`, nil},
		{`{"coordinates":{"type":"Point","coordinates":[null,null]}}`, nil},
		{`{"coordinates":{"type":"Point","coordinates":[38.74,9.03,null]}}`, &domain.GeoPoint{Lat: 9.03, Lon: 38.74}},
		{`{"latitude":null,"longitude":38.74,"coordinates":{"type":"Point","coordinates":[38.74,null]}}`, nil},
	}
	for _, tc := range cases {
		var loc domain.Location
		require.NoError(t, json.Unmarshal([]byte(tc.body), &loc), tc.body)
		assert.Equal(t, tc.want, ExtractCoordinates(loc), tc.body)
	}

	var loc domain.Location
	require.NoError(t, json.Unmarshal([]byte(`{"coordinates":{"type":"Point","coordinates":[38.74,null]}}`), &loc))
	assert.Nil(t, DistanceBetween(loc, domain.FlatLocation(9.03, 38.74)))
}

func TestDistanceBetween_MissingLocation(t *testing.T) {
	known := domain.FlatLocation(1, 1)
	assert.Nil(t, DistanceBetween(domain.Location{}, known))
	assert.Nil(t, DistanceBetween(known, domain.Location{}))
	assert.Nil(t, DistanceBetween(domain.Location{}, domain.Location{}))
}

func TestDistanceBetween_MixedShapes(t *testing.T) {
	d := DistanceBetween(domain.FlatLocation(9.03, 38.74), domain.GeoJSONLocation(10.03, 38.74))
	require.NotNil(t, d)
	assert.Equal(t, 111.19, *d)
}

func TestDistanceBetween_SeekerAndProviders(t *testing.T) {
	seeker := domain.FlatLocation(9.0300, 38.7400)

	a := DistanceBetween(seeker, domain.FlatLocation(9.0300, 38.7400))
	require.NotNil(t, a)
	assert.Equal(t, 0.0, *a)

	b := DistanceBetween(seeker, domain.FlatLocation(9.1450, 38.7617))
	require.NotNil(t, b)
	assert.Equal(t, round2(haversineKm(9.03, 38.74, 9.145, 38.7617)), *b)
	assert.Equal(t, 13.01, *b)

	c := DistanceBetween(seeker, domain.Location{})
	assert.Nil(t, c)
}

func TestDistanceFrom(t *testing.T) {
	d := DistanceFrom(domain.GeoPoint{Lat: 9.03, Lon: 38.74}, domain.GeoJSONLocation(9.145, 38.7617))
	require.NotNil(t, d)
	assert.Equal(t, 13.01, *d)
	assert.Nil(t, DistanceFrom(domain.GeoPoint{}, domain.Location{}))
}
