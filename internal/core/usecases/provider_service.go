package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tenaworks/proximity/internal/core/domain"
	"github.com/tenaworks/proximity/internal/core/ports"
	"github.com/tenaworks/proximity/internal/pkg/geospatial"
	"github.com/tenaworks/proximity/internal/pkg/metrics"
)

// ErrReportsUnavailable is returned by ReportLocation when no broker is configured.
var ErrReportsUnavailable = errors.New("location reports unavailable: no broker")

// ProviderService handles provider lookups and location updates.
type ProviderService struct {
	providers ports.ProviderRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewProviderService creates a new ProviderService. publisher may be nil.
func NewProviderService(providers ports.ProviderRepository, publisher ports.EventPublisher) *ProviderService {
	return &ProviderService{providers: providers, publisher: publisher, now: time.Now}
}

// GetByID returns a single provider.
func (s *ProviderService) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	return s.providers.GetByID(ctx, id)
}

// UpdateLocation validates and stores a provider location, then broadcasts it.
func (s *ProviderService) UpdateLocation(ctx context.Context, providerID string, loc domain.Location) (*domain.LocationUpdate, error) {
	if providerID == "" {
		return nil, fmt.Errorf("provider id must not be empty")
	}
	if err := ValidateLocation(loc); err != nil {
		metrics.LocationUpdates.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.providers.UpdateLocation(ctx, providerID, loc); err != nil {
		return nil, fmt.Errorf("update provider %s location: %w", providerID, err)
	}
	metrics.LocationUpdates.WithLabelValues("applied").Inc()

	update := &domain.LocationUpdate{ProviderID: providerID, Location: loc, ReportedAt: s.now().UTC()}
	if s.publisher != nil {
		if err := s.publisher.BroadcastLocation(ctx, update); err != nil {
			slog.WarnContext(ctx, "broadcast location failed", "provider_id", providerID, "error", err)
		}
	}
	return update, nil
}

// ReportLocation validates a location report and queues it for ingestion.
func (s *ProviderService) ReportLocation(ctx context.Context, providerID string, loc domain.Location) (*domain.LocationUpdate, error) {
	if providerID == "" {
		return nil, fmt.Errorf("provider id must not be empty")
	}
	if err := ValidateLocation(loc); err != nil {
		metrics.LocationUpdates.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if s.publisher == nil {
		return nil, ErrReportsUnavailable
	}

	update := &domain.LocationUpdate{ProviderID: providerID, Location: loc, ReportedAt: s.now().UTC()}
	if err := s.publisher.PublishLocationUpdate(ctx, update); err != nil {
		return nil, fmt.Errorf("publish location update: %w", err)
	}
	metrics.LocationUpdates.WithLabelValues("queued").Inc()
	return update, nil
}

// ApplyLocationUpdate stores a location update received from the broker.
func (s *ProviderService) ApplyLocationUpdate(ctx context.Context, u *domain.LocationUpdate) error {
	_, err := s.UpdateLocation(ctx, u.ProviderID, u.Location)
	return err
}

// ValidateLocation checks that a location resolves to a point and that every
// representation it carries is inside the WGS 84 ranges.
func ValidateLocation(loc domain.Location) error {
	p := geospatial.ExtractCoordinates(loc)
	if p == nil {
		return fmt.Errorf("location has no coordinates: %w", domain.ErrInvalidCoordinates)
	}
	if !geospatial.ValidLatLon(p.Lat, p.Lon) {
		return fmt.Errorf("coordinates %v,%v out of range: %w", p.Lat, p.Lon, domain.ErrInvalidCoordinates)
	}
	if loc.Coordinates != nil {
		geo := geospatial.ExtractCoordinates(domain.Location{Coordinates: loc.Coordinates})
		if geo == nil || !geospatial.ValidLatLon(geo.Lat, geo.Lon) {
			return fmt.Errorf("geojson point %v: %w", loc.Coordinates.Coordinates, domain.ErrInvalidCoordinates)
		}
		if loc.Coordinates.Type != "" && loc.Coordinates.Type != "Point" {
			return fmt.Errorf("geojson type %q: %w", loc.Coordinates.Type, domain.ErrInvalidCoordinates)
		}
	}
	return nil
}
