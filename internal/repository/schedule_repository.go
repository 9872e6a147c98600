package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/postpilotapp/postpilot/internal/models"
)

type ScheduleRepository interface {
	Create(ctx context.Context, item *models.ScheduledItem) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledItem, error)
	GetActiveByTarget(ctx context.Context, target models.Target) (*models.ScheduledItem, error)
	GetDue(ctx context.Context, now time.Time) ([]*models.ScheduledItem, error)
	Claim(ctx context.Context, id int64) (bool, error)
	FinalizeSuccess(ctx context.Context, tx *sql.Tx, id int64, executedAt time.Time) (bool, error)
	FinalizeFailure(ctx context.Context, tx *sql.Tx, id int64, errorMessage string) (bool, error)
	Reschedule(ctx context.Context, id int64, scheduledTime time.Time) (bool, error)
}

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

const scheduledItemColumns = `id, post_id, project_id, platforms, scheduled_time, status, executed_at, error_message, created_at, updated_at`

func scanScheduledItem(row interface{ Scan(...any) error }) (*models.ScheduledItem, error) {
	var item models.ScheduledItem
	var postID, projectID sql.NullInt64
	var errorMessage sql.NullString
	var executedAt sql.NullTime

	err := row.Scan(&item.ID, &postID, &projectID, pq.Array(&item.Platforms),
		&item.ScheduledTime, &item.Status, &executedAt, &errorMessage,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	switch {
	case postID.Valid:
		item.Target = models.PostTarget(postID.Int64)
	case projectID.Valid:
		item.Target = models.ProjectTarget(projectID.Int64)
	}
	if executedAt.Valid {
		item.ExecutedAt = &executedAt.Time
	}
	item.ErrorMessage = errorMessage.String

	return &item, nil
}

func targetColumns(target models.Target) (postID, projectID sql.NullInt64) {
	switch target.Kind {
	case models.TargetPost:
		postID = sql.NullInt64{Int64: target.PostID, Valid: true}
	case models.TargetProject:
		projectID = sql.NullInt64{Int64: target.ProjectID, Valid: true}
	}
	return postID, projectID
}

func (r *scheduleRepository) Create(ctx context.Context, item *models.ScheduledItem) (int64, error) {
	query := `
		INSERT INTO scheduled_items (post_id, project_id, platforms, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	postID, projectID := targetColumns(item.Target)

	var id int64
	err := r.db.QueryRowContext(ctx, query, postID, projectID,
		pq.Array(item.Platforms), item.ScheduledTime, models.ItemStatusScheduled).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledItem, error) {
	query := `SELECT ` + scheduledItemColumns + ` FROM scheduled_items WHERE id = $1`

	item, err := scanScheduledItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return item, nil
}

func (r *scheduleRepository) GetActiveByTarget(ctx context.Context, target models.Target) (*models.ScheduledItem, error) {
	query := `
		SELECT ` + scheduledItemColumns + `
		FROM scheduled_items
		WHERE COALESCE(post_id, 0) = COALESCE($1, 0)
		  AND COALESCE(project_id, 0) = COALESCE($2, 0)
		  AND status IN ($3, $4)
		LIMIT 1
	`

	postID, projectID := targetColumns(target)

	item, err := scanScheduledItem(r.db.QueryRowContext(ctx, query, postID, projectID,
		models.ItemStatusScheduled, models.ItemStatusExecuting))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return item, nil
}

func (r *scheduleRepository) GetDue(ctx context.Context, now time.Time) ([]*models.ScheduledItem, error) {
	query := `
		SELECT ` + scheduledItemColumns + `
		FROM scheduled_items
		WHERE status = $1 AND scheduled_time <= $2
	`

	rows, err := r.db.QueryContext(ctx, query, models.ItemStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var items []*models.ScheduledItem
	for rows.Next() {
		item, err := scanScheduledItem(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Claim flips scheduled -> executing with a single conditional update so
// two pollers can never both win the same item. Returns false when the
// item was already claimed or is no longer scheduled.
func (r *scheduleRepository) Claim(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE scheduled_items
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, models.ItemStatusExecuting, time.Now().UTC(), id, models.ItemStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduleRepository) FinalizeSuccess(ctx context.Context, tx *sql.Tx, id int64, executedAt time.Time) (bool, error) {
	query := `
		UPDATE scheduled_items
		SET status = $1, executed_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, models.ItemStatusCompleted, executedAt, id, models.ItemStatusExecuting)
	} else {
		result, err = r.db.ExecContext(ctx, query, models.ItemStatusCompleted, executedAt, id, models.ItemStatusExecuting)
	}
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduleRepository) FinalizeFailure(ctx context.Context, tx *sql.Tx, id int64, errorMessage string) (bool, error) {
	query := `
		UPDATE scheduled_items
		SET status = $1, executed_at = $2, error_message = $3, updated_at = $2
		WHERE id = $4 AND status = $5
	`

	now := time.Now().UTC()

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, models.ItemStatusFailed, now, errorMessage, id, models.ItemStatusExecuting)
	} else {
		result, err = r.db.ExecContext(ctx, query, models.ItemStatusFailed, now, errorMessage, id, models.ItemStatusExecuting)
	}
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Reschedule moves an active item's run time. Terminal items are left alone.
func (r *scheduleRepository) Reschedule(ctx context.Context, id int64, scheduledTime time.Time) (bool, error) {
	query := `
		UPDATE scheduled_items
		SET scheduled_time = $1, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`

	result, err := r.db.ExecContext(ctx, query, scheduledTime, time.Now().UTC(), id,
		models.ItemStatusScheduled, models.ItemStatusExecuting)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
