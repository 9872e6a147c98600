package models

import "time"

type Project struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Topic     string    `db:"topic" json:"topic"`
	Platforms []string  `db:"platforms" json:"platforms"`
	ImagePath string    `db:"image_path" json:"image_path,omitempty"`
	Status    string    `db:"status" json:"status"` // Pending, Posted, Partial, Failed
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	ProjectStatusPending = "Pending"
	ProjectStatusPosted  = "Posted"
	ProjectStatusPartial = "Partial"
	ProjectStatusFailed  = "Failed"
)
