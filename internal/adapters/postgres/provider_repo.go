package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tenaworks/proximity/internal/core/domain"
	"github.com/tenaworks/proximity/internal/pkg/telemetry"
)

const providerColumns = `id, name, category, latitude, longitude, coordinates, on_duty, rating, updated_at`

// ProviderRepo implements ports.ProviderRepository with pgx.
type ProviderRepo struct {
	db *DB
}

// NewProviderRepo creates a new ProviderRepo.
func NewProviderRepo(db *DB) *ProviderRepo {
	return &ProviderRepo{db: db}
}

func scanProvider(row pgx.Row) (domain.Provider, error) {
	var p domain.Provider
	err := row.Scan(
		&p.ID, &p.Name, &p.Category,
		&p.Location.Latitude, &p.Location.Longitude, &p.Location.Coordinates,
		&p.OnDuty, &p.Rating, &p.UpdatedAt,
	)
	return p, err
}

func collectProviders(rows pgx.Rows) ([]domain.Provider, error) {
	defer rows.Close()

	var providers []domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// Upsert inserts or updates a provider. An empty ID lets the database assign one.
func (r *ProviderRepo) Upsert(ctx context.Context, p *domain.Provider) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO providers (id, name, category, latitude, longitude, coordinates, on_duty, rating)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, category = EXCLUDED.category,
		    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
		    coordinates = EXCLUDED.coordinates, on_duty = EXCLUDED.on_duty,
		    rating = EXCLUDED.rating, updated_at = now()
		RETURNING id, updated_at
	`, p.ID, p.Name, p.Category,
		p.Location.Latitude, p.Location.Longitude, p.Location.Coordinates,
		p.OnDuty, p.Rating,
	).Scan(&p.ID, &p.UpdatedAt)
}

// GetByID returns a provider by UUID.
func (r *ProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	p, err := scanProvider(r.db.Pool.QueryRow(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("provider %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindInBounds returns providers whose resolved location lies inside b.
// Longitudes past ±180 are matched on the other side of the antimeridian.
func (r *ProviderRepo) FindInBounds(ctx context.Context, b domain.Bounds, category string, onDutyOnly bool) ([]domain.Provider, error) {
	ctx, span := telemetry.StartSpan(ctx, "providers.find_in_bounds")
	defer span.End()
	span.SetAttributes(
		attribute.String("category", category),
		attribute.Bool("on_duty_only", onDutyOnly),
	)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE lat_resolved BETWEEN $1 AND $2
		  AND (lon_resolved BETWEEN $3 AND $4
		       OR lon_resolved BETWEEN $3 + 360 AND $4 + 360
		       OR lon_resolved BETWEEN $3 - 360 AND $4 - 360)
		  AND ($5 = '' OR category = $5)
		  AND (NOT $6::boolean OR on_duty)
	`, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon, category, onDutyOnly)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	providers, err := collectProviders(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(providers)))
	return providers, nil
}

// ListByCategory returns up to limit providers, all categories when category is empty.
func (r *ProviderRepo) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Provider, error) {
	ctx, span := telemetry.StartSpan(ctx, "providers.list_by_category")
	defer span.End()

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE ($1 = '' OR category = $1)
		ORDER BY id
		LIMIT $2
	`, category, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return collectProviders(rows)
}

// UpdateLocation replaces a provider's location fields.
func (r *ProviderRepo) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE providers
		SET latitude = $2, longitude = $3, coordinates = $4, updated_at = now()
		WHERE id::text = $1
	`, id, loc.Latitude, loc.Longitude, loc.Coordinates)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("provider %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListGeoJSONOnly pages through providers lacking a complete flat pair.
func (r *ProviderRepo) ListGeoJSONOnly(ctx context.Context, afterID string, limit int) ([]domain.Provider, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE (latitude IS NULL OR longitude IS NULL)
		  AND coordinates IS NOT NULL
		  AND id::text > $1
		ORDER BY id::text
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, err
	}
	return collectProviders(rows)
}

// SetFlatCoordinates fills in flat fields without touching complete rows.
func (r *ProviderRepo) SetFlatCoordinates(ctx context.Context, id string, p domain.GeoPoint) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE providers
		SET latitude = $2, longitude = $3
		WHERE id::text = $1 AND (latitude IS NULL OR longitude IS NULL)
	`, id, p.Lat, p.Lon)
	return err
}
