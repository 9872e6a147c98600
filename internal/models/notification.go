package models

import "time"

// Notification is created once per finalized scheduled item. Only the
// read flag ever changes after creation.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProjectID *int64    `db:"project_id" json:"project_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"notification_type" json:"notification_type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)
