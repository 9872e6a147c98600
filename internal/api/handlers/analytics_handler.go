package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/postpilotapp/postpilot/internal/platform"
	"github.com/postpilotapp/postpilot/internal/queue"
	"github.com/postpilotapp/postpilot/internal/repository"
)

type AnalyticsHandler struct {
	ar          repository.AnalyticsRepository
	pr          repository.ProjectRepository
	AsynqClient *asynq.Client
}

func NewAnalyticsHandler(ar repository.AnalyticsRepository, pr repository.ProjectRepository, asynqClient *asynq.Client) *AnalyticsHandler {
	return &AnalyticsHandler{ar: ar, pr: pr, AsynqClient: asynqClient}
}

func (h *AnalyticsHandler) GetAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)
	projectID, ok := h.ownedProject(c, userID)
	if !ok {
		return nil
	}

	since := time.Now().AddDate(0, 0, -30)
	metrics, err := h.ar.ListMetricsSince(c.Context(), projectID, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load analytics",
		})
	}

	insights, err := h.ar.ListInsightsByProjectID(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load insights",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"metrics":  metrics,
		"insights": insights,
	})
}

// GetPlatformAnalytics returns the stored metrics row for one platform
// of a project. Platform aliases resolve the same way they do when
// publishing.
func (h *AnalyticsHandler) GetPlatformAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)
	projectID, ok := h.ownedProject(c, userID)
	if !ok {
		return nil
	}

	name := platform.CanonicalName(c.Query("platform"))
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "platform is required",
		})
	}

	record, err := h.ar.GetMetrics(c.Context(), projectID, name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load analytics",
		})
	}
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No analytics for this platform",
		})
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (h *AnalyticsHandler) SyncAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)
	projectID, ok := h.ownedProject(c, userID)
	if !ok {
		return nil
	}

	err := queue.EnqueueAnalyticsSync(h.AsynqClient, queue.AnalyticsSyncPayload{ProjectID: projectID})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling analytics sync",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Analytics sync scheduled",
	})
}

// ownedProject resolves and authorizes the project_id query param. On
// failure it writes the response itself and reports ok=false.
func (h *AnalyticsHandler) ownedProject(c *fiber.Ctx, userID int64) (int64, bool) {
	projectID := c.QueryInt("project_id", 0)
	if projectID == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "project_id is required",
		})
		return 0, false
	}

	project, err := h.pr.GetByID(c.Context(), int64(projectID))
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load project",
		})
		return 0, false
	}
	if project == nil || project.UserID != userID {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
		return 0, false
	}
	return project.ID, true
}
