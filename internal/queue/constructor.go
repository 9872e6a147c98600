package queue

import (
	"github.com/postpilotapp/postpilot/internal/analytics"
)

type Queue struct {
	sy *analytics.Syncer
}

func NewQueue(sy *analytics.Syncer) *Queue {
	return &Queue{
		sy: sy,
	}
}

const TaskTypeAnalyticsSync = "analytics:sync"

type AnalyticsSyncPayload struct {
	ProjectID int64 `json:"project_id"`
}
