package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/tenaworks/proximity/internal/adapters/nats"
	"github.com/tenaworks/proximity/internal/adapters/postgres"
	"github.com/tenaworks/proximity/internal/core/domain"
	"github.com/tenaworks/proximity/internal/core/usecases"
	"github.com/tenaworks/proximity/internal/pkg/config"
	"github.com/tenaworks/proximity/internal/pkg/logging"
	"github.com/tenaworks/proximity/internal/pkg/telemetry"
)

// locationsync consumes queued provider location reports from JetStream,
// stores them and broadcasts each applied update to live subscribers.
func main() {
	cfg, err := config.Load("proximity-locationsync")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	providers := usecases.NewProviderService(postgres.NewProviderRepo(db), pub)

	err = sub.SubscribeLocationUpdates(ctx, func(ctx context.Context, u *domain.LocationUpdate) error {
		ctx, span := telemetry.StartSpan(ctx, "locationsync.apply")
		defer span.End()
		return providers.ApplyLocationUpdate(ctx, u)
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("locationsync started", "stream", natsadapter.LocationStream)
	<-ctx.Done()
	slog.Info("locationsync stopping")
}
