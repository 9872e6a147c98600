package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postpilotapp/postpilot/internal/dispatch"
	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/repository"
	"github.com/postpilotapp/postpilot/internal/transfer"
)

var (
	// ErrAlreadyScheduled means the target already holds an active
	// scheduled item; it must complete, fail, or be rescheduled first.
	ErrAlreadyScheduled = errors.New("target already has an active schedule")

	// ErrNotFound means no scheduled item matched, or it is no longer
	// in a state that allows the requested change.
	ErrNotFound = errors.New("scheduled item not found")

	// ErrTargetNotFound means the post or project being scheduled does
	// not exist or belongs to another user.
	ErrTargetNotFound = errors.New("schedule target not found")
)

type ScheduleService interface {
	Schedule(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (int64, error)
	Reschedule(ctx context.Context, userID int64, r *transfer.Reschedule) error
	ExecuteNow(ctx context.Context, userID int64, en *transfer.ExecuteNow) (*transfer.ExecutionResult, error)
	Status(ctx context.Context, userID int64, target models.Target) (*transfer.ScheduleStatus, error)
}

type scheduleService struct {
	sr  repository.ScheduleRepository
	pr  repository.ProjectRepository
	sp  repository.SocialPostRepository
	ex  *Executor
	now func() time.Time
}

func NewScheduleService(
	sr repository.ScheduleRepository,
	pr repository.ProjectRepository,
	sp repository.SocialPostRepository,
	ex *Executor) ScheduleService {
	return &scheduleService{
		sr:  sr,
		pr:  pr,
		sp:  sp,
		ex:  ex,
		now: time.Now,
	}
}

func (s *scheduleService) Schedule(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (int64, error) {
	target, err := resolveTarget(sc.PostID, sc.ProjectID)
	if err != nil {
		return 0, err
	}
	if len(sc.Platforms) == 0 {
		return 0, fmt.Errorf("at least one platform is required")
	}

	scheduledTime, err := time.Parse(time.RFC3339, sc.ScheduledTime)
	if err != nil {
		return 0, fmt.Errorf("invalid scheduled_time: %w", err)
	}
	if !scheduledTime.After(s.now()) {
		return 0, fmt.Errorf("scheduled_time must be in the future")
	}

	if err := s.checkOwnership(ctx, userID, target); err != nil {
		return 0, err
	}

	existing, err := s.sr.GetActiveByTarget(ctx, target)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	if existing != nil {
		return 0, ErrAlreadyScheduled
	}

	item := &models.ScheduledItem{
		Target:        target,
		Platforms:     sc.Platforms,
		ScheduledTime: scheduledTime,
		Status:        models.ItemStatusScheduled,
	}
	id, err := s.sr.Create(ctx, item)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (s *scheduleService) Reschedule(ctx context.Context, userID int64, r *transfer.Reschedule) error {
	scheduledTime, err := time.Parse(time.RFC3339, r.ScheduledTime)
	if err != nil {
		return fmt.Errorf("invalid scheduled_time: %w", err)
	}
	if !scheduledTime.After(s.now()) {
		return fmt.Errorf("scheduled_time must be in the future")
	}

	item, err := s.sr.GetByID(ctx, r.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	if err := s.checkOwnership(ctx, userID, item.Target); err != nil {
		return err
	}

	moved, err := s.sr.Reschedule(ctx, r.ID, scheduledTime)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !moved {
		return ErrNotFound
	}
	return nil
}

// ExecuteNow schedules the target for the current instant and runs it
// synchronously, returning the finalized item together with the
// per-platform outcomes.
func (s *scheduleService) ExecuteNow(ctx context.Context, userID int64, en *transfer.ExecuteNow) (*transfer.ExecutionResult, error) {
	target, err := resolveTarget(en.PostID, en.ProjectID)
	if err != nil {
		return nil, err
	}
	if len(en.Platforms) == 0 {
		return nil, fmt.Errorf("at least one platform is required")
	}
	if err := s.checkOwnership(ctx, userID, target); err != nil {
		return nil, err
	}

	existing, err := s.sr.GetActiveByTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyScheduled
	}

	item := &models.ScheduledItem{
		Target:        target,
		Platforms:     en.Platforms,
		ScheduledTime: s.now(),
		Status:        models.ItemStatusScheduled,
	}
	id, err := s.sr.Create(ctx, item)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	item.ID = id

	claimed, err := s.sr.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrNotFound
	}

	summary, err := s.ex.Execute(ctx, item)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	final, err := s.sr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return executionResult(final, summary), nil
}

func executionResult(item *models.ScheduledItem, summary dispatch.Summary) *transfer.ExecutionResult {
	res := &transfer.ExecutionResult{
		Item:       item,
		Successful: make([]string, 0, len(summary.Successes)),
		Failed:     make([]transfer.PlatformFailure, 0, len(summary.Failures)),
	}
	for _, r := range summary.Successes {
		res.Successful = append(res.Successful, r.Platform)
	}
	for _, r := range summary.Failures {
		res.Failed = append(res.Failed, transfer.PlatformFailure{
			Platform: r.Platform,
			Detail:   r.Outcome.Detail,
		})
	}
	return res
}

func (s *scheduleService) Status(ctx context.Context, userID int64, target models.Target) (*transfer.ScheduleStatus, error) {
	if err := s.checkOwnership(ctx, userID, target); err != nil {
		return nil, err
	}
	item, err := s.sr.GetActiveByTarget(ctx, target)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if item == nil {
		return &transfer.ScheduleStatus{HasScheduled: false}, nil
	}
	return &transfer.ScheduleStatus{
		HasScheduled:  true,
		Status:        item.Status,
		ScheduledTime: item.ScheduledTime.Format(time.RFC3339),
	}, nil
}

// checkOwnership resolves the target back to its owning user. Targets
// that do not exist and targets owned by someone else are reported the
// same way.
func (s *scheduleService) checkOwnership(ctx context.Context, userID int64, target models.Target) error {
	projectID := target.ProjectID
	if target.Kind == models.TargetPost {
		post, err := s.sp.GetByID(ctx, target.PostID)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrTargetNotFound
		}
		projectID = post.ProjectID
	}

	project, err := s.pr.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil || project.UserID != userID {
		return ErrTargetNotFound
	}
	return nil
}

func resolveTarget(postID, projectID int64) (models.Target, error) {
	switch {
	case postID != 0 && projectID != 0:
		return models.Target{}, fmt.Errorf("post_id and project_id are mutually exclusive")
	case postID != 0:
		return models.PostTarget(postID), nil
	case projectID != 0:
		return models.ProjectTarget(projectID), nil
	default:
		return models.Target{}, fmt.Errorf("either post_id or project_id is required")
	}
}
