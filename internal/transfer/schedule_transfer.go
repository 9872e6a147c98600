package transfer

import "github.com/postpilotapp/postpilot/internal/models"

// ScheduleCreation is the POST /api/schedule body. Exactly one of PostID
// and ProjectID must be set.
type ScheduleCreation struct {
	PostID        int64    `json:"post_id,omitempty"`
	ProjectID     int64    `json:"project_id,omitempty"`
	Platforms     []string `json:"platforms"`
	ScheduledTime string   `json:"scheduled_time"`
}

type Reschedule struct {
	ID            int64  `json:"id"`
	ScheduledTime string `json:"scheduled_time"`
}

type ExecuteNow struct {
	PostID    int64    `json:"post_id,omitempty"`
	ProjectID int64    `json:"project_id,omitempty"`
	Platforms []string `json:"platforms"`
}

// ExecutionResult is the POST /api/schedule/execute response: the
// finalized item plus the per-platform dispatch outcome.
type ExecutionResult struct {
	Item       *models.ScheduledItem `json:"item"`
	Successful []string              `json:"successful_platforms"`
	Failed     []PlatformFailure     `json:"failed_platforms"`
}

type PlatformFailure struct {
	Platform string `json:"platform"`
	Detail   string `json:"detail"`
}

type ScheduleStatus struct {
	HasScheduled  bool   `json:"has_scheduled"`
	Status        string `json:"status,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
}
