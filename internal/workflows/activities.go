package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tenaworks/proximity/internal/core/domain"
	"github.com/tenaworks/proximity/internal/core/ports"
	"github.com/tenaworks/proximity/internal/pkg/geospatial"
	"github.com/tenaworks/proximity/internal/pkg/metrics"
)

// NormalizeActivities holds the activity implementations for NormalizeLocationsWorkflow.
type NormalizeActivities struct {
	Providers ports.ProviderRepository
}

// ListGeoJSONOnly returns the IDs of the next page of providers whose only
// location is a GeoJSON point, ordered by ID after afterID.
func (a *NormalizeActivities) ListGeoJSONOnly(ctx context.Context, afterID string, pageSize int) ([]string, error) {
	providers, err := a.Providers.ListGeoJSONOnly(ctx, afterID, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list geojson-only providers after %q: %w", afterID, err)
	}
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	return ids, nil
}

// WriteFlatCoordinates derives flat latitude/longitude from each provider's
// current location and stores them. Providers that vanished or no longer
// resolve to a point are skipped. It returns how many were written.
func (a *NormalizeActivities) WriteFlatCoordinates(ctx context.Context, ids []string) (int, error) {
	written := 0
	for _, id := range ids {
		p, err := a.Providers.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return written, fmt.Errorf("get provider %s: %w", id, err)
		}

		pt := geospatial.ExtractCoordinates(p.Location)
		if pt == nil || !geospatial.ValidLatLon(pt.Lat, pt.Lon) {
			slog.WarnContext(ctx, "skipping provider without usable location", "provider_id", id)
			continue
		}
		if err := a.Providers.SetFlatCoordinates(ctx, id, *pt); err != nil {
			return written, fmt.Errorf("set flat coordinates for %s: %w", id, err)
		}
		written++
		metrics.NormalizedLocations.Inc()
	}
	return written, nil
}
