// Package geospatial computes great-circle distances between marketplace
// locations.
package geospatial

import (
	"math"

	"github.com/tenaworks/proximity/internal/core/domain"
)

const earthRadiusKm = 6371.0

// RoundingSlackKm widens the prefilter box so that points whose distance
// rounds down to the radius are still candidates.
const RoundingSlackKm = 0.005

// DistanceKm returns the Haversine great-circle distance in kilometers between
// two points given in degrees, rounded to two decimal places.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return round2(haversineKm(lat1, lon1, lat2, lon2))
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BoundingBox returns a box enclosing the spherical cap of radiusKm around a
// point, widened by RoundingSlackKm. It is a prefilter only; callers still
// compute the exact distance.
func BoundingBox(lat, lon, radiusKm float64) domain.Bounds {
	angular := (radiusKm + RoundingSlackKm) / earthRadiusKm
	latDelta := toDeg(angular)
	b := domain.Bounds{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
		MinLon: -180,
		MaxLon: 180,
	}

	// The cap reaches a pole, or wraps all meridians: keep the full range.
	cos := math.Cos(toRad(lat))
	if b.MinLat == -90 || b.MaxLat == 90 || cos < 1e-9 {
		return b
	}
	ratio := math.Sin(angular) / cos
	if ratio >= 1 {
		return b
	}
	lonDelta := toDeg(math.Asin(ratio))
	b.MinLon = lon - lonDelta
	b.MaxLon = lon + lonDelta
	return b
}

// ValidLatLon reports whether lat/lon are finite and inside the WGS 84 ranges.
// DistanceKm does not validate its input; use this at the boundary.
func ValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
