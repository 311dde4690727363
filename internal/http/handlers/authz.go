package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"foodloop/internal/domain"
	applog "foodloop/internal/log"
	"foodloop/internal/services"
)

// RequireUser resolves the bearer token to a registered user and stores it
// in Locals("user"). Missing, invalid and unregistered tokens are rejected
// with distinct codes.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearerToken(c)
		if tok == "" {
			applog.Security(c, "auth.token.missing", nil)
			return abort(c, fiber.StatusUnauthorized, "auth_required", "Access token required")
		}
		u, err := auth.Authenticate(c.UserContext(), tok)
		if err != nil {
			return fail(c, "auth", err)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// currentUser is only valid behind RequireUser.
func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
