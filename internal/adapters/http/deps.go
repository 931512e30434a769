package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/tenaworks/proximity/internal/core/usecases"
)

// Pinger is satisfied by the database pool and the cache client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Providers *usecases.ProviderService
	Proximity *usecases.ProximityService
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger
	// MaxRadiusKm bounds radius_km on nearby queries; zero means the service default.
	MaxRadiusKm float64
}
