package queue

import (
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func EnqueueAnalyticsSync(asynqClient *asynq.Client, payload AnalyticsSyncPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeAnalyticsSync, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	slog.Info("analytics sync enqueued", slog.Int64("project_id", payload.ProjectID))
	return nil
}
