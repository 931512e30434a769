package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/tenaworks/proximity/internal/pkg/metrics"
)

const requestTimeout = 10 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(TracingMiddleware())
	app.Use(AccessLogMiddleware())

	// 300 requests per minute per IP; location pings from on-duty providers are frequent
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/providers/nearby", timeout.NewWithContext(NearbyProvidersHandler(deps), requestTimeout))
	v1.Get("/providers/:id", timeout.NewWithContext(GetProviderHandler(deps), requestTimeout))
	v1.Put("/providers/:id/location", timeout.NewWithContext(UpdateProviderLocationHandler(deps), requestTimeout))
	v1.Post("/providers/:id/location/reports", timeout.NewWithContext(ReportProviderLocationHandler(deps), requestTimeout))
	v1.Get("/seekers/:id/providers", timeout.NewWithContext(SeekerProvidersHandler(deps), requestTimeout))
	v1.Get("/seekers/:id/providers/:providerID/distance", timeout.NewWithContext(SeekerProviderDistanceHandler(deps), requestTimeout))
	v1.Post("/distance", DistanceHandler(deps))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	SetupDocs(app)

	if deps.NATS == nil {
		app.Get("/ws", func(c *fiber.Ctx) error {
			return errUnavailable(c, "live updates are not available")
		})
		return
	}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
