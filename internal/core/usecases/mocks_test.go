package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tenaworks/proximity/internal/core/domain"
)

// --- Mock ProviderRepository ---

type mockProviderRepo struct {
	getByIDFn        func(ctx context.Context, id string) (*domain.Provider, error)
	findInBoundsFn   func(ctx context.Context, b domain.Bounds, category string, onDutyOnly bool) ([]domain.Provider, error)
	listByCategoryFn func(ctx context.Context, category string, limit int) ([]domain.Provider, error)
	updateLocationFn func(ctx context.Context, id string, loc domain.Location) error
}

func (m *mockProviderRepo) Upsert(ctx context.Context, p *domain.Provider) error { return nil }

func (m *mockProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("provider %s: %w", id, domain.ErrNotFound)
}

func (m *mockProviderRepo) FindInBounds(ctx context.Context, b domain.Bounds, category string, onDutyOnly bool) ([]domain.Provider, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, b, category, onDutyOnly)
	}
	return nil, nil
}

func (m *mockProviderRepo) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Provider, error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, category, limit)
	}
	return nil, nil
}

func (m *mockProviderRepo) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	if m.updateLocationFn != nil {
		return m.updateLocationFn(ctx, id, loc)
	}
	return nil
}

func (m *mockProviderRepo) ListGeoJSONOnly(ctx context.Context, afterID string, limit int) ([]domain.Provider, error) {
	return nil, nil
}

func (m *mockProviderRepo) SetFlatCoordinates(ctx context.Context, id string, p domain.GeoPoint) error {
	return nil
}

// --- Mock SeekerRepository ---

type mockSeekerRepo struct {
	seekers map[string]domain.Seeker
}

func (m *mockSeekerRepo) Upsert(ctx context.Context, s *domain.Seeker) error { return nil }

func (m *mockSeekerRepo) GetByID(ctx context.Context, id string) (*domain.Seeker, error) {
	s, ok := m.seekers[id]
	if !ok {
		return nil, fmt.Errorf("seeker %s: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("miss")

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return b, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	publishErr   error
	broadcastErr error
	published    []*domain.LocationUpdate
	broadcasted  []*domain.LocationUpdate
}

func (m *mockPublisher) PublishLocationUpdate(ctx context.Context, u *domain.LocationUpdate) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, u)
	return nil
}

func (m *mockPublisher) BroadcastLocation(ctx context.Context, u *domain.LocationUpdate) error {
	m.broadcasted = append(m.broadcasted, u)
	return m.broadcastErr
}

// --- Fixtures ---

// A sits on the seeker, B is roughly 13 km north, C has no location.
var (
	seekerLoc = domain.FlatLocation(9.03, 38.74)
	provA     = domain.Provider{ID: "a", Category: "plumber", Location: domain.FlatLocation(9.03, 38.74)}
	provB     = domain.Provider{ID: "b", Category: "plumber", Location: domain.FlatLocation(9.1450, 38.7617)}
	provC     = domain.Provider{ID: "c", Category: "plumber"}
)
