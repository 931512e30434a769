package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tenaworks/proximity/internal/core/domain"
)

// SeekerRepo implements ports.SeekerRepository with pgx.
type SeekerRepo struct {
	db *DB
}

// NewSeekerRepo creates a new SeekerRepo.
func NewSeekerRepo(db *DB) *SeekerRepo {
	return &SeekerRepo{db: db}
}

// Upsert inserts or updates a seeker.
func (r *SeekerRepo) Upsert(ctx context.Context, s *domain.Seeker) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO seekers (id, name, latitude, longitude, coordinates)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude, coordinates = EXCLUDED.coordinates
		RETURNING id
	`, s.ID, s.Name, s.Location.Latitude, s.Location.Longitude, s.Location.Coordinates,
	).Scan(&s.ID)
}

// GetByID returns a seeker by UUID.
func (r *SeekerRepo) GetByID(ctx context.Context, id string) (*domain.Seeker, error) {
	var s domain.Seeker
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, latitude, longitude, coordinates
		FROM seekers WHERE id::text = $1
	`, id).Scan(&s.ID, &s.Name, &s.Location.Latitude, &s.Location.Longitude, &s.Location.Coordinates)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("seeker %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
