package models

import "time"

// ContentGeneration is a project's publishable payload: platform-tailored
// texts plus an optional single media path. Produced upstream, consumed
// read-only by the dispatcher.
type ContentGeneration struct {
	ID        int64             `db:"id" json:"id"`
	ProjectID int64             `db:"project_id" json:"project_id"`
	Texts     map[string]string `db:"texts" json:"texts"`
	MediaPath string            `db:"media_path" json:"media_path,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// SocialPost records one live publication on one platform, including the
// platform-assigned post id used later by the analytics sync.
type SocialPost struct {
	ID             int64      `db:"id" json:"id"`
	ProjectID      int64      `db:"project_id" json:"project_id"`
	Platform       string     `db:"platform" json:"platform"`
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id,omitempty"`
	PostURL        string     `db:"post_url" json:"post_url,omitempty"`
	Text           string     `db:"text" json:"text"`
	MediaPath      string     `db:"media_path" json:"media_path,omitempty"`
	Status         string     `db:"status" json:"status"`
	ErrorMessage   string     `db:"error_message" json:"error_message,omitempty"`
	PostedAt       *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

const (
	SocialPostStatusPosted = "posted"
	SocialPostStatusFailed = "failed"
)
