package domain

import "encoding/json"

// GeoPoint represents a normalized geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoJSONPoint is a GeoJSON Point geometry. Coordinates are [lon, lat].
type GeoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// UnmarshalJSON decodes a Point. A null longitude or latitude leaves the
// point without coordinates; a null beyond those drops the remaining members.
func (p *GeoJSONPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string     `json:"type"`
		Coordinates []*float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Type = raw.Type
	p.Coordinates = nil
	for i, v := range raw.Coordinates {
		if v == nil {
			if i < 2 {
				p.Coordinates = nil
			}
			break
		}
		p.Coordinates = append(p.Coordinates, *v)
	}
	return nil
}

// NewGeoJSONPoint builds a Point from a latitude and longitude.
func NewGeoJSONPoint(lat, lon float64) *GeoJSONPoint {
	return &GeoJSONPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

// Location is the location part of a seeker or provider record. It may carry
// flat latitude/longitude fields, a GeoJSON point, both, or neither.
type Location struct {
	Latitude    *float64      `json:"latitude,omitempty"`
	Longitude   *float64      `json:"longitude,omitempty"`
	Coordinates *GeoJSONPoint `json:"coordinates,omitempty"`
}

// FlatLocation builds a Location carrying only flat fields.
func FlatLocation(lat, lon float64) Location {
	return Location{Latitude: &lat, Longitude: &lon}
}

// GeoJSONLocation builds a Location carrying only a GeoJSON point.
func GeoJSONLocation(lat, lon float64) Location {
	return Location{Coordinates: NewGeoJSONPoint(lat, lon)}
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
