package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "foodloop/internal/log"
	"foodloop/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type syncRequest struct {
	Token        string   `json:"token"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Role         string   `json:"role"`
	Organization *string  `json:"organization"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// Sync exchanges an identity token for the local user, registering it on
// first use. The token comes from the Authorization header, or the body.
func (h *AuthHandler) Sync(c *fiber.Ctx) error {
	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, "auth.sync")
		}
	}
	tok := bearerToken(c)
	if tok == "" {
		tok = strings.TrimSpace(req.Token)
	}
	if tok == "" {
		applog.Security(c, "auth.token.missing", nil)
		return abort(c, fiber.StatusUnauthorized, "auth_required", "Access token required")
	}

	u, created, err := h.Auth.Sync(c.UserContext(), tok, services.Profile{
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         req.Role,
		Organization: req.Organization,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		return fail(c, "auth.sync", err)
	}
	c.Locals("user", u)
	if created {
		applog.Audit(c, "user.register", map[string]any{"role": u.Role})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": u})
	}
	applog.Audit(c, "auth.sync", nil)
	return c.JSON(fiber.Map{"user": u})
}
