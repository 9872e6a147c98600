package job

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/postpilotapp/postpilot/internal/queue"
	"github.com/postpilotapp/postpilot/internal/repository"
)

// AnalyticsSyncJob fans the periodic analytics refresh out through the
// task queue, one task per project, so slow platforms never delay the
// next cron tick.
type AnalyticsSyncJob struct {
	pr     repository.ProjectRepository
	client *asynq.Client
}

func NewAnalyticsSyncJob(pr repository.ProjectRepository, client *asynq.Client) *AnalyticsSyncJob {
	return &AnalyticsSyncJob{
		pr:     pr,
		client: client,
	}
}

func (j *AnalyticsSyncJob) EnqueueAll() {
	ctx := context.Background()

	projects, err := j.pr.List(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, p := range projects {
		err := queue.EnqueueAnalyticsSync(j.client, queue.AnalyticsSyncPayload{ProjectID: p.ID})
		if err != nil {
			slog.Info(err.Error())
		}
	}
}
