package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/scheduler"
	"github.com/postpilotapp/postpilot/internal/transfer"
)

type ScheduleHandler struct {
	s scheduler.ScheduleService
}

func NewScheduleHandler(service scheduler.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: service}
}

func (h *ScheduleHandler) Schedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var sc transfer.ScheduleCreation
	if err := c.BodyParser(&sc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	id, err := h.s.Schedule(c.Context(), userID, &sc)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":      id,
		"message": "Scheduled successfully",
	})
}

func (h *ScheduleHandler) Reschedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var r transfer.Reschedule
	if err := c.BodyParser(&r); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Reschedule(c.Context(), userID, &r); err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Rescheduled successfully",
	})
}

func (h *ScheduleHandler) ExecuteNow(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var en transfer.ExecuteNow
	if err := c.BodyParser(&en); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	result, err := h.s.ExecuteNow(c.Context(), userID, &en)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ScheduleHandler) Status(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID := c.QueryInt("post_id", 0)
	projectID := c.QueryInt("project_id", 0)

	var target models.Target
	switch {
	case postID != 0:
		target = models.PostTarget(int64(postID))
	case projectID != 0:
		target = models.ProjectTarget(int64(projectID))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post_id or project_id is required",
		})
	}

	status, err := h.s.Status(c.Context(), userID, target)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func scheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scheduler.ErrAlreadyScheduled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, scheduler.ErrNotFound), errors.Is(err, scheduler.ErrTargetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
