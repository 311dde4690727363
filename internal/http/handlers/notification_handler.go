package handlers

import (
	"github.com/gofiber/fiber/v2"

	"foodloop/internal/services"
)

type NotificationHandler struct {
	Notifications *services.NotificationService
}

// List serves GET /api/notifications; ?unread=true keeps unread ones only.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	ns, err := h.Notifications.ForUser(c.UserContext(), currentUser(c).ID, c.QueryBool("unread", false))
	if err != nil {
		return fail(c, "notification.list", err)
	}
	return c.JSON(fiber.Map{"notifications": ns})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Notifications.MarkRead(c.UserContext(), currentUser(c).ID, id); err != nil {
		return fail(c, "notification.read", err)
	}
	return c.JSON(fiber.Map{"id": id, "read": true})
}
