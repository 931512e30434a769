package ports

import (
	"context"

	"github.com/tenaworks/proximity/internal/core/domain"
)

// ProviderRepository persists service providers and their locations.
type ProviderRepository interface {
	Upsert(ctx context.Context, p *domain.Provider) error
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
	// FindInBounds returns providers whose resolved location lies inside b.
	FindInBounds(ctx context.Context, b domain.Bounds, category string, onDutyOnly bool) ([]domain.Provider, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]domain.Provider, error)
	UpdateLocation(ctx context.Context, id string, loc domain.Location) error
	// ListGeoJSONOnly pages through providers that carry only a GeoJSON point,
	// ordered by ID, starting after afterID.
	ListGeoJSONOnly(ctx context.Context, afterID string, limit int) ([]domain.Provider, error)
	// SetFlatCoordinates writes flat latitude/longitude fields for a provider.
	SetFlatCoordinates(ctx context.Context, id string, p domain.GeoPoint) error
}

// SeekerRepository persists service seekers.
type SeekerRepository interface {
	Upsert(ctx context.Context, s *domain.Seeker) error
	GetByID(ctx context.Context, id string) (*domain.Seeker, error)
}
