package ports

import (
	"context"

	"github.com/tenaworks/proximity/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	// PublishLocationUpdate enqueues a provider location report for ingestion.
	PublishLocationUpdate(ctx context.Context, u *domain.LocationUpdate) error
	// BroadcastLocation fans an applied update out to live subscribers.
	BroadcastLocation(ctx context.Context, u *domain.LocationUpdate) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeLocationUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.LocationUpdate) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
