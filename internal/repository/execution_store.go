package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/postpilotapp/postpilot/internal/models"
)

// ExecutionRecord is everything one scheduled-item execution needs to
// persist atomically: the publication rows, the derived project status,
// the user notification, and the item's terminal state.
type ExecutionRecord struct {
	ItemID        int64
	Succeeded     bool
	ErrorMessage  string
	ExecutedAt    time.Time
	ProjectID     int64
	ProjectStatus string
	Posts         []*models.SocialPost
	Notification  *models.Notification
}

// ExecutionStore commits an ExecutionRecord in a single transaction, so
// an item is never marked completed with its posts missing or vice versa.
type ExecutionStore interface {
	RecordExecution(ctx context.Context, rec *ExecutionRecord) error
}

type executionStore struct {
	db *sql.DB
	sr ScheduleRepository
	pr ProjectRepository
	sp SocialPostRepository
	nr NotificationRepository
}

func NewExecutionStore(db *sql.DB, sr ScheduleRepository, pr ProjectRepository, sp SocialPostRepository, nr NotificationRepository) ExecutionStore {
	return &executionStore{db: db, sr: sr, pr: pr, sp: sp, nr: nr}
}

func (s *executionStore) RecordExecution(ctx context.Context, rec *ExecutionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, post := range rec.Posts {
		if _, err := s.sp.Create(ctx, tx, post); err != nil {
			return err
		}
	}

	if rec.ProjectStatus != "" {
		if err := s.pr.UpdateStatus(ctx, tx, rec.ProjectID, rec.ProjectStatus); err != nil {
			return err
		}
	}

	if rec.Notification != nil {
		if _, err := s.nr.Create(ctx, tx, rec.Notification); err != nil {
			return err
		}
	}

	var finalized bool
	if rec.Succeeded {
		finalized, err = s.sr.FinalizeSuccess(ctx, tx, rec.ItemID, rec.ExecutedAt)
	} else {
		finalized, err = s.sr.FinalizeFailure(ctx, tx, rec.ItemID, rec.ErrorMessage)
	}
	if err != nil {
		return err
	}
	if !finalized {
		// The item left the executing state under someone else's hand.
		// Keep nothing from this attempt.
		return nil
	}

	return tx.Commit()
}
