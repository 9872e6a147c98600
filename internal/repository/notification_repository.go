package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postpilotapp/postpilot/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *sql.Tx, notification *models.Notification) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, tx *sql.Tx, notification *models.Notification) (int64, error) {
	query := `
		INSERT INTO notifications (user_id, project_id, title, message, notification_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var projectID sql.NullInt64
	if notification.ProjectID != nil {
		projectID = sql.NullInt64{Int64: *notification.ProjectID, Valid: true}
	}

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, notification.UserID, projectID,
			notification.Title, notification.Message, notification.Type).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, notification.UserID, projectID,
			notification.Title, notification.Message, notification.Type).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, project_id, title, message, notification_type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		var projectID sql.NullInt64
		err := rows.Scan(&n.ID, &n.UserID, &projectID, &n.Title, &n.Message,
			&n.Type, &n.IsRead, &n.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if projectID.Valid {
			n.ProjectID = &projectID.Int64
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
