package models

import "time"

// TargetKind discriminates what a ScheduledItem publishes: a standalone
// social post or a project's generated content. Exactly one id is set.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetProject TargetKind = "project"
)

type Target struct {
	Kind      TargetKind `json:"kind"`
	PostID    int64      `json:"post_id,omitempty"`
	ProjectID int64      `json:"project_id,omitempty"`
}

func PostTarget(postID int64) Target {
	return Target{Kind: TargetPost, PostID: postID}
}

func ProjectTarget(projectID int64) Target {
	return Target{Kind: TargetProject, ProjectID: projectID}
}

type ScheduledItem struct {
	ID            int64      `db:"id" json:"id"`
	Target        Target     `json:"target"`
	Platforms     []string   `db:"platforms" json:"platforms"`
	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduled_time"`
	Status        string     `db:"status" json:"status"`
	ExecutedAt    *time.Time `db:"executed_at" json:"executed_at,omitempty"`
	ErrorMessage  string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ItemStatusScheduled = "scheduled"
	ItemStatusExecuting = "executing"
	ItemStatusCompleted = "completed"
	ItemStatusFailed    = "failed"
)

// Active reports whether the item still occupies its target's schedule slot.
func (i *ScheduledItem) Active() bool {
	return i.Status == ItemStatusScheduled || i.Status == ItemStatusExecuting
}
