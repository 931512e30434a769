package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/tenaworks/proximity/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

type disposition int

const (
	ack disposition = iota
	nak
	term
)

// dispatch decodes one queued report and runs handler on it. Malformed
// payloads and updates that can never apply are terminated; other handler
// errors are redelivered.
func dispatch(ctx context.Context, subject string, data []byte, handler func(ctx context.Context, u *domain.LocationUpdate) error) disposition {
	var u domain.LocationUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		slog.Warn("dropping malformed location update", "subject", subject, "error", err)
		return term
	}
	if err := handler(ctx, &u); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidCoordinates) {
			slog.Warn("dropping location update", "provider_id", u.ProviderID, "error", err)
			return term
		}
		slog.Warn("location update failed", "provider_id", u.ProviderID, "error", err)
		return nak
	}
	return ack
}

// SubscribeLocationUpdates delivers every queued report to handler. Transient
// handler errors are retried up to MaxDeliver.
func (s *Subscriber) SubscribeLocationUpdates(ctx context.Context, handler func(ctx context.Context, u *domain.LocationUpdate) error) error {
	sub, err := s.js.Subscribe(LocationSubjectPrefix+">", func(msg *nats.Msg) {
		switch dispatch(ctx, msg.Subject, msg.Data, handler) {
		case term:
			_ = msg.Term()
		case nak:
			_ = msg.Nak()
		default:
			_ = msg.Ack()
		}
	},
		nats.Durable("location-sync"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
