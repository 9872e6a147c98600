package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/postpilotapp/postpilot/internal/models"
)

type ContentRepository interface {
	GetActiveByProjectID(ctx context.Context, projectID int64) (*models.ContentGeneration, error)
	Create(ctx context.Context, content *models.ContentGeneration) (int64, error)
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

// GetActiveByProjectID returns the project's most recent payload, the one
// the poller publishes.
func (r *contentRepository) GetActiveByProjectID(ctx context.Context, projectID int64) (*models.ContentGeneration, error) {
	query := `
		SELECT id, project_id, texts, media_path, created_at
		FROM content_generations
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, projectID)

	var content models.ContentGeneration
	var texts []byte
	var mediaPath sql.NullString
	err := row.Scan(&content.ID, &content.ProjectID, &texts, &mediaPath, &content.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	if err := json.Unmarshal(texts, &content.Texts); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	content.MediaPath = mediaPath.String

	return &content, nil
}

func (r *contentRepository) Create(ctx context.Context, content *models.ContentGeneration) (int64, error) {
	texts, err := json.Marshal(content.Texts)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO content_generations (project_id, texts, media_path)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query, content.ProjectID, texts, nullable(content.MediaPath)).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}
