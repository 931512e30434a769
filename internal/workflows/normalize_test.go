package workflows

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/tenaworks/proximity/internal/core/domain"
)

// memProviders is an in-memory ProviderRepository.
type memProviders struct {
	mu        sync.Mutex
	providers map[string]domain.Provider
	setErr    error
}

func newMemProviders(ps ...domain.Provider) *memProviders {
	m := &memProviders{providers: map[string]domain.Provider{}}
	for _, p := range ps {
		m.providers[p.ID] = p
	}
	return m
}

func (m *memProviders) Upsert(ctx context.Context, p *domain.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.ID] = *p
	return nil
}

func (m *memProviders) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (m *memProviders) FindInBounds(ctx context.Context, b domain.Bounds, category string, onDutyOnly bool) ([]domain.Provider, error) {
	return nil, nil
}

func (m *memProviders) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Provider, error) {
	return nil, nil
}

func (m *memProviders) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	return nil
}

func (m *memProviders) ListGeoJSONOnly(ctx context.Context, afterID string, limit int) ([]domain.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Provider
	for _, p := range m.providers {
		flat := p.Location.Latitude != nil && p.Location.Longitude != nil
		if !flat && p.Location.Coordinates != nil && p.ID > afterID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProviders) SetFlatCoordinates(ctx context.Context, id string, pt domain.GeoPoint) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.providers[id]
	lat, lon := pt.Lat, pt.Lon
	p.Location.Latitude, p.Location.Longitude = &lat, &lon
	m.providers[id] = p
	return nil
}

func geoJSONProviders(n int) []domain.Provider {
	ps := make([]domain.Provider, n)
	for i := range ps {
		ps[i] = domain.Provider{
			ID:       fmt.Sprintf("p%03d", i),
			Location: domain.GeoJSONLocation(9+float64(i)/100, 38.74),
		}
	}
	return ps
}

func TestNormalizeLocationsWorkflow(t *testing.T) {
	ps := append(geoJSONProviders(5),
		domain.Provider{ID: "flat", Location: domain.FlatLocation(1, 2)},
		domain.Provider{ID: "none"},
	)
	repo := newMemProviders(ps...)

	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(&NormalizeActivities{Providers: repo})

	env.ExecuteWorkflow(NormalizeLocationsWorkflow, NormalizeInput{PageSize: 2})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result NormalizeResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, 3, result.Pages)
	require.Equal(t, 5, result.Normalized)

	// GeoJSON [lon, lat] became flat lat/lon.
	p, err := repo.GetByID(context.Background(), "p002")
	require.NoError(t, err)
	require.NotNil(t, p.Location.Latitude)
	require.InDelta(t, 9.02, *p.Location.Latitude, 1e-9)
	require.InDelta(t, 38.74, *p.Location.Longitude, 1e-9)

	left, _ := repo.ListGeoJSONOnly(context.Background(), "", 100)
	require.Empty(t, left)
}

func TestNormalizeLocationsWorkflow_NothingToDo(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(&NormalizeActivities{Providers: newMemProviders()})

	env.ExecuteWorkflow(NormalizeLocationsWorkflow, NormalizeInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var result NormalizeResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, NormalizeResult{}, result)
}

func TestNormalizeLocationsWorkflow_ContinuesAsNew(t *testing.T) {
	repo := newMemProviders(geoJSONProviders(pagesPerRun + 1)...)

	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(&NormalizeActivities{Providers: repo})

	env.ExecuteWorkflow(NormalizeLocationsWorkflow, NormalizeInput{PageSize: 1})

	require.True(t, env.IsWorkflowCompleted())
	var can *workflow.ContinueAsNewError
	require.True(t, errors.As(env.GetWorkflowError(), &can), "expected continue-as-new, got %v", env.GetWorkflowError())
}

func TestNormalizeLocationsWorkflow_ActivityFailure(t *testing.T) {
	repo := newMemProviders(geoJSONProviders(1)...)
	repo.setErr = errors.New("db down")

	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(&NormalizeActivities{Providers: repo})

	env.ExecuteWorkflow(NormalizeLocationsWorkflow, NormalizeInput{PageSize: 10})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}

func TestWriteFlatCoordinates_SkipsUnusable(t *testing.T) {
	repo := newMemProviders(
		domain.Provider{ID: "ok", Location: domain.GeoJSONLocation(9.03, 38.74)},
		domain.Provider{ID: "short", Location: domain.Location{Coordinates: &domain.GeoJSONPoint{Type: "Point", Coordinates: []float64{38.74}}}},
		domain.Provider{ID: "bad", Location: domain.GeoJSONLocation(120, 38.74)},
	)
	acts := &NormalizeActivities{Providers: repo}

	n, err := acts.WriteFlatCoordinates(context.Background(), []string{"ok", "short", "bad", "gone"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	p, _ := repo.GetByID(context.Background(), "short")
	require.Nil(t, p.Location.Latitude)
}
