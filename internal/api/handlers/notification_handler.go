package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postpilotapp/postpilot/internal/repository"
)

type NotificationHandler struct {
	nr repository.NotificationRepository
}

func NewNotificationHandler(nr repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{nr: nr}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID := GetUserID(c)

	notifications, err := h.nr.ListByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list notifications",
		})
	}

	return c.Status(fiber.StatusOK).JSON(notifications)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id := c.QueryInt("id", 0)

	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	if err := h.nr.MarkRead(c.Context(), userID, int64(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to mark notification read",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
