package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/tenaworks/proximity/internal/core/domain"
	"github.com/tenaworks/proximity/internal/core/ports"
	"github.com/tenaworks/proximity/internal/pkg/geospatial"
	"github.com/tenaworks/proximity/internal/pkg/metrics"
)

// seekerCandidateCap bounds how many providers of a category are ranked for a seeker.
const seekerCandidateCap = 500

// ProximityOptions tunes radius and caching behaviour.
type ProximityOptions struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	CacheTTLSeconds int
}

// DefaultProximityOptions returns the options used when none are configured.
func DefaultProximityOptions() ProximityOptions {
	return ProximityOptions{DefaultRadiusKm: 5, MaxRadiusKm: 50, CacheTTLSeconds: 60}
}

// ProximityService ranks providers by distance from a seeker or a point.
type ProximityService struct {
	providers ports.ProviderRepository
	seekers   ports.SeekerRepository
	cache     ports.CacheService
	opts      ProximityOptions
}

// NewProximityService creates a new ProximityService. cache may be nil.
func NewProximityService(providers ports.ProviderRepository, seekers ports.SeekerRepository, cache ports.CacheService, opts ProximityOptions) *ProximityService {
	def := DefaultProximityOptions()
	if opts.DefaultRadiusKm <= 0 {
		opts.DefaultRadiusKm = def.DefaultRadiusKm
	}
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = def.MaxRadiusKm
	}
	if opts.DefaultRadiusKm > opts.MaxRadiusKm {
		opts.DefaultRadiusKm = opts.MaxRadiusKm
	}
	if opts.CacheTTLSeconds <= 0 {
		opts.CacheTTLSeconds = def.CacheTTLSeconds
	}
	return &ProximityService{providers: providers, seekers: seekers, cache: cache, opts: opts}
}

// Rank annotates providers with their distance from origin and orders them
// nearest first. Providers with unknown distance go last, in input order.
func (s *ProximityService) Rank(origin domain.Location, providers []domain.Provider) []domain.RankedProvider {
	return rankProviders(origin, providers)
}

func rankProviders(origin domain.Location, providers []domain.Provider) []domain.RankedProvider {
	ranked := make([]domain.RankedProvider, len(providers))
	from := geospatial.ExtractCoordinates(origin)
	for i, p := range providers {
		ranked[i] = domain.RankedProvider{Provider: p}
		if from != nil {
			ranked[i].DistanceKm = geospatial.DistanceFrom(*from, p.Location)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].DistanceKm, ranked[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return ranked
}

// FindNearby returns providers within q.RadiusKm of q.Origin, nearest first.
func (s *ProximityService) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.RankedProvider, error) {
	if !geospatial.ValidLatLon(q.Origin.Lat, q.Origin.Lon) {
		return nil, fmt.Errorf("origin %v,%v: %w", q.Origin.Lat, q.Origin.Lon, domain.ErrInvalidCoordinates)
	}
	if q.RadiusKm <= 0 || math.IsNaN(q.RadiusKm) || math.IsInf(q.RadiusKm, 0) {
		q.RadiusKm = s.opts.DefaultRadiusKm
	}
	if q.RadiusKm > s.opts.MaxRadiusKm {
		q.RadiusKm = s.opts.MaxRadiusKm
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}

	cacheKey := fmt.Sprintf("providers:nearby:%.4f:%.4f:%.2f:%s:%t:%d",
		q.Origin.Lat, q.Origin.Lon, q.RadiusKm, q.Category, q.OnDutyOnly, q.Limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var ranked []domain.RankedProvider
			if err := json.Unmarshal(data, &ranked); err == nil {
				metrics.CacheHits.WithLabelValues("providers_nearby").Inc()
				return ranked, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("providers_nearby").Inc()
	}

	bounds := geospatial.BoundingBox(q.Origin.Lat, q.Origin.Lon, q.RadiusKm)
	candidates, err := s.providers.FindInBounds(ctx, bounds, q.Category, q.OnDutyOnly)
	if err != nil {
		return nil, fmt.Errorf("find providers in bounds: %w", err)
	}
	metrics.RankingCandidates.Observe(float64(len(candidates)))

	origin := domain.FlatLocation(q.Origin.Lat, q.Origin.Lon)
	result := make([]domain.RankedProvider, 0, q.Limit)
	for _, rp := range rankProviders(origin, candidates) {
		if rp.DistanceKm == nil || *rp.DistanceKm > q.RadiusKm {
			continue
		}
		result = append(result, rp)
		if len(result) == q.Limit {
			break
		}
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return result, nil
}

// RankForSeeker ranks providers of a category against a seeker's stored
// location. A seeker without a location gets every distance nil.
func (s *ProximityService) RankForSeeker(ctx context.Context, seekerID, category string, limit int) ([]domain.RankedProvider, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	seeker, err := s.seekers.GetByID(ctx, seekerID)
	if err != nil {
		return nil, fmt.Errorf("get seeker %s: %w", seekerID, err)
	}

	providers, err := s.providers.ListByCategory(ctx, category, seekerCandidateCap)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	metrics.RankingCandidates.Observe(float64(len(providers)))

	ranked := rankProviders(seeker.Location, providers)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// DistanceToProvider returns the distance between a seeker and a provider, or
// nil when either has no known location.
func (s *ProximityService) DistanceToProvider(ctx context.Context, seekerID, providerID string) (*float64, error) {
	seeker, err := s.seekers.GetByID(ctx, seekerID)
	if err != nil {
		return nil, fmt.Errorf("get seeker %s: %w", seekerID, err)
	}
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("get provider %s: %w", providerID, err)
	}
	return geospatial.DistanceBetween(seeker.Location, provider.Location), nil
}
