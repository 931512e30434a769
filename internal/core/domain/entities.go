package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a seeker or provider does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCoordinates is returned for missing or out-of-range coordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider is a service provider listed on the marketplace.
type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Location  Location  `json:"location"`
	OnDuty    bool      `json:"on_duty"`
	Rating    float64   `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Seeker is a user looking for a service.
type Seeker struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// RankedProvider is a provider annotated with its distance from an origin.
// DistanceKm is nil when either side has no known location.
type RankedProvider struct {
	Provider
	DistanceKm *float64 `json:"distance_km"`
}

// LocationUpdate is a provider location report travelling over the broker.
type LocationUpdate struct {
	ProviderID string    `json:"provider_id"`
	Location   Location  `json:"location"`
	ReportedAt time.Time `json:"reported_at"`
}

// NearbyQuery describes a radius search around an origin point.
type NearbyQuery struct {
	Origin     GeoPoint
	RadiusKm   float64
	Category   string
	OnDutyOnly bool
	Limit      int
}
