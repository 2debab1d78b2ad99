package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/notify"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// NotificationsHandler exposes the dispatcher's registry over HTTP.
type NotificationsHandler struct {
	dispatcher *notify.Dispatcher
}

// NewNotificationsHandler returns a new handler instance.
func NewNotificationsHandler(dispatcher *notify.Dispatcher) *NotificationsHandler {
	return &NotificationsHandler{dispatcher: dispatcher}
}

// List returns dispatched notifications, newest first. Pass
// ?unacknowledged=true to filter to pending ones.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	unackedOnly := c.QueryBool("unacknowledged", false)
	notifications := h.dispatcher.Notifications(unackedOnly)

	out := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, dto.FromNotification(n))
	}
	return c.JSON(fiber.Map{"notifications": out})
}

// UnacknowledgedCount returns the number of notifications awaiting
// acknowledgement.
func (h *NotificationsHandler) UnacknowledgedCount(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"count": h.dispatcher.UnacknowledgedCount()})
}

// Acknowledge records the authenticated actor on a notification.
func (h *NotificationsHandler) Acknowledge(c *fiber.Ctx) error {
	id := c.Params("id")
	actor := auth.ActorFromCtx(c)
	if actor == "" {
		return apperrors.NewUnauthorized("no authenticated actor")
	}

	if !h.dispatcher.Acknowledge(id, actor) {
		return apperrors.NewNotFound("notification", fiber.Map{"id": id})
	}
	return c.JSON(fiber.Map{"acknowledged": true})
}
