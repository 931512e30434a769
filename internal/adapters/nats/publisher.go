package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tenaworks/proximity/internal/core/domain"
)

const (
	// LocationStream holds provider location reports awaiting ingestion.
	LocationStream = "PROVIDER_LOCATIONS"
	// LocationSubjectPrefix is followed by the provider ID.
	LocationSubjectPrefix = "provider.location."
	// BroadcastSubject carries applied updates to live subscribers.
	BroadcastSubject = "proximity.broadcast.location"
)

// LocationSubject returns the JetStream subject for a provider's reports.
func LocationSubject(providerID string) string {
	return LocationSubjectPrefix + providerID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and ensures the stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := &nats.StreamConfig{
		Name:      LocationStream,
		Subjects:  []string{LocationSubjectPrefix + ">"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// The stream may already exist, so fall back to an update.
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishLocationUpdate enqueues a report on the provider's JetStream subject.
func (p *Publisher) PublishLocationUpdate(ctx context.Context, u *domain.LocationUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(LocationSubject(u.ProviderID), data, nats.Context(ctx))
	return err
}

// BroadcastLocation publishes on core NATS; no persistence.
func (p *Publisher) BroadcastLocation(ctx context.Context, u *domain.LocationUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return p.conn.Publish(BroadcastSubject, data)
}

// Conn exposes the underlying connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn dials NATS with the reconnect options shared by publisher and subscriber.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
