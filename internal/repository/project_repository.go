package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postpilotapp/postpilot/internal/models"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT id, user_id, name, topic, platforms, image_path, status, created_at, updated_at FROM projects WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var project models.Project
	var imagePath sql.NullString
	err := row.Scan(&project.ID, &project.UserID, &project.Name, &project.Topic,
		pq.Array(&project.Platforms), &imagePath, &project.Status,
		&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	project.ImagePath = imagePath.String

	return &project, nil
}

func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT id, user_id, name, topic, platforms, image_path, status, created_at, updated_at FROM projects`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var project models.Project
		var imagePath sql.NullString
		err := rows.Scan(&project.ID, &project.UserID, &project.Name, &project.Topic,
			pq.Array(&project.Platforms), &imagePath, &project.Status,
			&project.CreatedAt, &project.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		project.ImagePath = imagePath.String
		projects = append(projects, &project)
	}
	return projects, rows.Err()
}

func (r *projectRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error {
	query := `
		UPDATE projects
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, time.Now().UTC(), id)
	} else {
		_, err = r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
