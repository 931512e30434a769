package geospatial

import "github.com/tenaworks/proximity/internal/core/domain"

// ExtractCoordinates normalizes a location record to a lat/lon pair.
//
// Flat latitude/longitude fields win when both are set. Otherwise the GeoJSON
// point is read in its [lon, lat] axis order. A record with neither yields nil.
func ExtractCoordinates(loc domain.Location) *domain.GeoPoint {
	if loc.Latitude != nil && loc.Longitude != nil {
		return &domain.GeoPoint{Lat: *loc.Latitude, Lon: *loc.Longitude}
	}
	if loc.Coordinates != nil && len(loc.Coordinates.Coordinates) >= 2 {
		lon, lat := loc.Coordinates.Coordinates[0], loc.Coordinates.Coordinates[1]
		return &domain.GeoPoint{Lat: lat, Lon: lon}
	}
	return nil
}

// DistanceBetween returns the distance in km between two location records, or
// nil when either one has no known location.
func DistanceBetween(origin, target domain.Location) *float64 {
	from := ExtractCoordinates(origin)
	if from == nil {
		return nil
	}
	to := ExtractCoordinates(target)
	if to == nil {
		return nil
	}
	d := DistanceKm(from.Lat, from.Lon, to.Lat, to.Lon)
	return &d
}

// DistanceFrom is DistanceBetween with an already normalized origin.
func DistanceFrom(origin domain.GeoPoint, target domain.Location) *float64 {
	to := ExtractCoordinates(target)
	if to == nil {
		return nil
	}
	d := DistanceKm(origin.Lat, origin.Lon, to.Lat, to.Lon)
	return &d
}
