package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	applog "foodloop/internal/log"
	"foodloop/internal/services"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
}

func (h *AnalyticsHandler) Overview(c *fiber.Ctx) error {
	o, err := h.Analytics.Overview(c.UserContext())
	if err != nil {
		return fail(c, "analytics.overview", err)
	}
	return c.JSON(o)
}

func (h *AnalyticsHandler) Daily(c *fiber.Ctx) error {
	days, err := h.Analytics.Daily(c.UserContext(), services.DailyWindow)
	if err != nil {
		return fail(c, "analytics.daily", err)
	}
	return c.JSON(fiber.Map{"daily_analytics": days})
}

type HealthHandler struct {
	DB *sqlx.DB
}

// Check pings the store; 503 when it cannot be reached.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		applog.Error(c, "health.fail", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
	}
	return c.JSON(fiber.Map{"status": "healthy", "timestamp": time.Now().UTC()})
}
