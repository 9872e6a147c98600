package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postpilotapp/postpilot/internal/models"
)

type SocialPostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.SocialPost, error)
	GetByProjectPlatform(ctx context.Context, projectID int64, platform string) (*models.SocialPost, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.SocialPost) (int64, error)
}

type socialPostRepository struct {
	db *sql.DB
}

func NewSocialPostRepository(db *sql.DB) SocialPostRepository {
	return &socialPostRepository{db: db}
}

const socialPostColumns = `id, project_id, platform, platform_post_id, post_url, text, media_path, status, error_message, posted_at, created_at`

func scanSocialPost(row interface{ Scan(...any) error }) (*models.SocialPost, error) {
	var post models.SocialPost
	var platformPostID, postURL, mediaPath, errorMessage sql.NullString
	var postedAt sql.NullTime

	err := row.Scan(&post.ID, &post.ProjectID, &post.Platform, &platformPostID,
		&postURL, &post.Text, &mediaPath, &post.Status, &errorMessage,
		&postedAt, &post.CreatedAt)
	if err != nil {
		return nil, err
	}

	post.PlatformPostID = platformPostID.String
	post.PostURL = postURL.String
	post.MediaPath = mediaPath.String
	post.ErrorMessage = errorMessage.String
	if postedAt.Valid {
		post.PostedAt = &postedAt.Time
	}

	return &post, nil
}

func (r *socialPostRepository) GetByID(ctx context.Context, id int64) (*models.SocialPost, error) {
	query := `SELECT ` + socialPostColumns + ` FROM social_posts WHERE id = $1`

	post, err := scanSocialPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

// GetByProjectPlatform returns the most recent live post for the pair,
// which is what the analytics sync keys its fetches on.
func (r *socialPostRepository) GetByProjectPlatform(ctx context.Context, projectID int64, platform string) (*models.SocialPost, error) {
	query := `
		SELECT ` + socialPostColumns + `
		FROM social_posts
		WHERE project_id = $1 AND platform = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	post, err := scanSocialPost(r.db.QueryRowContext(ctx, query, projectID, platform, models.SocialPostStatusPosted))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *socialPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.SocialPost) (int64, error) {
	query := `
		INSERT INTO social_posts (project_id, platform, platform_post_id, post_url, text, media_path, status, error_message, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	var err error
	args := []any{post.ProjectID, post.Platform, nullable(post.PlatformPostID),
		nullable(post.PostURL), post.Text, nullable(post.MediaPath),
		post.Status, nullable(post.ErrorMessage), post.PostedAt}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}
