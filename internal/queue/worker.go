package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleAnalyticsSyncTask(ctx context.Context, task *asynq.Task) error {
	var payload AnalyticsSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if _, err := q.sy.SyncProject(ctx, payload.ProjectID); err != nil {
		return err
	}

	if err := q.sy.ComputeTrends(ctx, payload.ProjectID); err != nil {
		slog.Info(err.Error())
	}
	return nil
}
