package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tenaworks/proximity/internal/adapters/http"
	natsadapter "github.com/tenaworks/proximity/internal/adapters/nats"
	"github.com/tenaworks/proximity/internal/adapters/postgres"
	"github.com/tenaworks/proximity/internal/adapters/valkey"
	"github.com/tenaworks/proximity/internal/core/ports"
	"github.com/tenaworks/proximity/internal/core/usecases"
	"github.com/tenaworks/proximity/internal/pkg/config"
	"github.com/tenaworks/proximity/internal/pkg/logging"
	"github.com/tenaworks/proximity/internal/pkg/metrics"
	"github.com/tenaworks/proximity/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("proximity-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
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

	deps := &http.Dependencies{
		DB:          db,
		MaxRadiusKm: cfg.Proximity.MaxRadiusKm,
	}

	// Cache and NATS are optional; interfaces stay nil when unavailable.
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, broadcasts and reports disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		// The publisher's connection also feeds the WebSocket relay.
		deps.NATS = pub.Conn()
	}

	providerRepo := postgres.NewProviderRepo(db)
	seekerRepo := postgres.NewSeekerRepo(db)

	deps.Providers = usecases.NewProviderService(providerRepo, publisher)
	deps.Proximity = usecases.NewProximityService(providerRepo, seekerRepo, cache, usecases.ProximityOptions{
		DefaultRadiusKm: cfg.Proximity.DefaultRadiusKm,
		MaxRadiusKm:     cfg.Proximity.MaxRadiusKm,
		CacheTTLSeconds: cfg.Proximity.CacheTTLSeconds,
	})

	// Pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Proximity API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
