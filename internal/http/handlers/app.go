package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"foodloop/internal/config"
	applog "foodloop/internal/log"
)

// NewApp builds the HTTP server with middleware and every /api route.
func NewApp(cfg config.Config, deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "foodloop",
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	app.Use(applog.Start)
	app.Use(logger.New(logger.Config{Output: log.Writer()}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	if cfg.RateLimitPerMin > 0 {
		app.Use(rateLimit("global", cfg.RateLimitPerMin, time.Minute))
	}

	auth := RequireUser(deps.Auth)
	api := app.Group("/api")

	// Identity sync is throttled harder than the rest.
	api.Post("/auth/sync", rateLimit("sync", 10, time.Minute), deps.AuthHandler.Sync)

	listings := api.Group("/listings")
	listings.Get("/", deps.ListingHandler.List)
	listings.Get("/:id", deps.ListingHandler.Get)
	listings.Post("/", auth, deps.ListingHandler.Create)
	listings.Put("/:id", auth, deps.ListingHandler.Update)
	listings.Delete("/:id", auth, deps.ListingHandler.Delete)

	claims := api.Group("/claims", auth)
	claims.Post("/", rateLimit("claim", 30, time.Minute), deps.ClaimHandler.Create)
	claims.Get("/my-claims", deps.ClaimHandler.Mine)
	claims.Put("/:id/complete", deps.ClaimHandler.Complete)
	claims.Put("/:id/cancel", deps.ClaimHandler.Cancel)

	notifications := api.Group("/notifications", auth)
	notifications.Get("/", deps.NotificationHandler.List)
	notifications.Put("/:id/read", deps.NotificationHandler.MarkRead)

	api.Get("/analytics", deps.AnalyticsHandler.Overview)
	api.Get("/analytics/daily", deps.AnalyticsHandler.Daily)
	api.Get("/health", deps.HealthHandler.Check)

	app.Use(func(c *fiber.Ctx) error {
		return abort(c, fiber.StatusNotFound, "not_found", "Route not found")
	})
	return app
}

func rateLimit(name string, limit int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+name+".hit", nil)
			return abort(c, fiber.StatusTooManyRequests, "rate_limited", "rate limit exceeded, retry soon")
		},
	})
}
