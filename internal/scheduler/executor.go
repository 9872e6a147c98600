package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/postpilotapp/postpilot/internal/dispatch"
	"github.com/postpilotapp/postpilot/internal/metrics"
	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/platform"
	"github.com/postpilotapp/postpilot/internal/repository"
)

// Dispatcher fans content out to platforms. Satisfied by dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string, texts map[string]string, media *platform.Media, platforms []string, creds map[string]*models.PlatformCredential) dispatch.Summary
}

// MediaFetcher loads stored media for publishing. Satisfied by platform.MediaStore.
type MediaFetcher interface {
	Fetch(ctx context.Context, mediaPath string) (*platform.Media, error)
}

// Executor runs one claimed scheduled item end to end: resolve the
// target, fan out, and persist the outcome atomically.
type Executor struct {
	pr    repository.ProjectRepository
	cr    repository.ContentRepository
	cred  repository.CredentialRepository
	sp    repository.SocialPostRepository
	es    repository.ExecutionStore
	d     Dispatcher
	media MediaFetcher
	now   func() time.Time
}

func NewExecutor(
	pr repository.ProjectRepository,
	cr repository.ContentRepository,
	cred repository.CredentialRepository,
	sp repository.SocialPostRepository,
	es repository.ExecutionStore,
	d Dispatcher,
	media MediaFetcher) *Executor {
	return &Executor{
		pr:    pr,
		cr:    cr,
		cred:  cred,
		sp:    sp,
		es:    es,
		d:     d,
		media: media,
		now:   time.Now,
	}
}

// Execute assumes the item is already claimed (status executing). It
// always records a terminal outcome and returns the dispatch summary;
// an error return means the outcome itself could not be persisted.
func (e *Executor) Execute(ctx context.Context, item *models.ScheduledItem) (dispatch.Summary, error) {
	switch item.Target.Kind {
	case models.TargetProject:
		return e.executeProject(ctx, item)
	case models.TargetPost:
		return e.executePost(ctx, item)
	default:
		return dispatch.Summary{}, e.fail(ctx, item, fmt.Sprintf("unknown target kind: %s", item.Target.Kind))
	}
}

func (e *Executor) executeProject(ctx context.Context, item *models.ScheduledItem) (dispatch.Summary, error) {
	var none dispatch.Summary

	project, err := e.pr.GetByID(ctx, item.Target.ProjectID)
	if err != nil {
		return none, err
	}
	if project == nil {
		return none, e.fail(ctx, item, fmt.Sprintf("project %d not found", item.Target.ProjectID))
	}

	content, err := e.cr.GetActiveByProjectID(ctx, project.ID)
	if err != nil {
		return none, err
	}
	if content == nil {
		return none, e.failProject(ctx, item, project, "no publishable content for project")
	}

	creds, err := e.cred.MapByProjectID(ctx, project.ID)
	if err != nil {
		return none, err
	}
	if len(creds) == 0 {
		return none, e.failProject(ctx, item, project, "no platform credentials configured")
	}

	media := e.fetchMedia(ctx, content.MediaPath)
	summary := e.d.Dispatch(ctx, content.Texts["default"], content.Texts, media, item.Platforms, creds)
	if len(summary.Successes)+len(summary.Failures) == 0 {
		return summary, e.failProject(ctx, item, project, "no credentials for the requested platforms")
	}

	executedAt := e.now()
	rec := &repository.ExecutionRecord{
		ItemID:        item.ID,
		Succeeded:     summary.AnySucceeded(),
		ExecutedAt:    executedAt,
		ProjectID:     project.ID,
		ProjectStatus: projectStatus(summary),
		Posts:         e.postRows(project.ID, content, summary, executedAt),
		Notification:  buildNotification(project, summary),
	}
	if !rec.Succeeded {
		rec.ErrorMessage = joinFailures(summary)
	}
	return summary, e.record(ctx, rec)
}

func (e *Executor) executePost(ctx context.Context, item *models.ScheduledItem) (dispatch.Summary, error) {
	var none dispatch.Summary

	post, err := e.sp.GetByID(ctx, item.Target.PostID)
	if err != nil {
		return none, err
	}
	if post == nil {
		return none, e.fail(ctx, item, fmt.Sprintf("post %d not found", item.Target.PostID))
	}

	project, err := e.pr.GetByID(ctx, post.ProjectID)
	if err != nil {
		return none, err
	}

	creds, err := e.cred.MapByProjectID(ctx, post.ProjectID)
	if err != nil {
		return none, err
	}
	if len(creds) == 0 {
		return none, e.failProject(ctx, item, project, "no platform credentials configured")
	}

	media := e.fetchMedia(ctx, post.MediaPath)
	summary := e.d.Dispatch(ctx, post.Text, nil, media, item.Platforms, creds)
	if len(summary.Successes)+len(summary.Failures) == 0 {
		return summary, e.failProject(ctx, item, project, "no credentials for the requested platforms")
	}

	executedAt := e.now()
	rec := &repository.ExecutionRecord{
		ItemID:     item.ID,
		Succeeded:  summary.AnySucceeded(),
		ExecutedAt: executedAt,
		Posts:      e.resultRows(post.ProjectID, post.Text, post.MediaPath, summary, executedAt),
	}
	if project != nil {
		rec.Notification = buildNotification(project, summary)
	}
	if !rec.Succeeded {
		rec.ErrorMessage = joinFailures(summary)
	}
	return summary, e.record(ctx, rec)
}

// fetchMedia degrades to a text-only publish when the stored media
// cannot be loaded.
func (e *Executor) fetchMedia(ctx context.Context, mediaPath string) *platform.Media {
	if mediaPath == "" || e.media == nil {
		return nil
	}
	media, err := e.media.Fetch(ctx, mediaPath)
	if err != nil {
		slog.Warn("media fetch failed, publishing text only",
			slog.String("media_path", mediaPath),
			slog.String("error", err.Error()))
		return nil
	}
	return media
}

func (e *Executor) postRows(projectID int64, content *models.ContentGeneration, summary dispatch.Summary, executedAt time.Time) []*models.SocialPost {
	textFor := func(p string) string {
		if t, ok := content.Texts[p]; ok && t != "" {
			return t
		}
		return content.Texts["default"]
	}
	rows := make([]*models.SocialPost, 0, len(summary.Successes)+len(summary.Failures))
	for _, r := range summary.Successes {
		rows = append(rows, &models.SocialPost{
			ProjectID:      projectID,
			Platform:       r.Platform,
			PlatformPostID: r.Outcome.ExternalID,
			PostURL:        r.Outcome.PostURL,
			Text:           textFor(r.Platform),
			MediaPath:      content.MediaPath,
			Status:         models.SocialPostStatusPosted,
			PostedAt:       &executedAt,
		})
	}
	for _, r := range summary.Failures {
		rows = append(rows, &models.SocialPost{
			ProjectID:    projectID,
			Platform:     r.Platform,
			Text:         textFor(r.Platform),
			MediaPath:    content.MediaPath,
			Status:       models.SocialPostStatusFailed,
			ErrorMessage: r.Outcome.Detail,
		})
	}
	return rows
}

func (e *Executor) resultRows(projectID int64, text, mediaPath string, summary dispatch.Summary, executedAt time.Time) []*models.SocialPost {
	rows := make([]*models.SocialPost, 0, len(summary.Successes)+len(summary.Failures))
	for _, r := range summary.Successes {
		rows = append(rows, &models.SocialPost{
			ProjectID:      projectID,
			Platform:       r.Platform,
			PlatformPostID: r.Outcome.ExternalID,
			PostURL:        r.Outcome.PostURL,
			Text:           text,
			MediaPath:      mediaPath,
			Status:         models.SocialPostStatusPosted,
			PostedAt:       &executedAt,
		})
	}
	for _, r := range summary.Failures {
		rows = append(rows, &models.SocialPost{
			ProjectID:    projectID,
			Platform:     r.Platform,
			Text:         text,
			MediaPath:    mediaPath,
			Status:       models.SocialPostStatusFailed,
			ErrorMessage: r.Outcome.Detail,
		})
	}
	return rows
}

func (e *Executor) fail(ctx context.Context, item *models.ScheduledItem, reason string) error {
	return e.record(ctx, &repository.ExecutionRecord{
		ItemID:       item.ID,
		Succeeded:    false,
		ErrorMessage: reason,
		ExecutedAt:   e.now(),
	})
}

func (e *Executor) failProject(ctx context.Context, item *models.ScheduledItem, project *models.Project, reason string) error {
	rec := &repository.ExecutionRecord{
		ItemID:       item.ID,
		Succeeded:    false,
		ErrorMessage: reason,
		ExecutedAt:   e.now(),
	}
	if project != nil {
		rec.ProjectID = project.ID
		rec.ProjectStatus = models.ProjectStatusFailed
		rec.Notification = &models.Notification{
			UserID:    project.UserID,
			ProjectID: &project.ID,
			Title:     "Post Failed",
			Message:   fmt.Sprintf("Could not publish %q: %s", project.Name, reason),
			Type:      models.NotificationError,
		}
	}
	return e.record(ctx, rec)
}

func (e *Executor) record(ctx context.Context, rec *repository.ExecutionRecord) error {
	if err := e.es.RecordExecution(ctx, rec); err != nil {
		return err
	}
	if rec.Succeeded {
		metrics.ItemsCompleted.WithLabelValues(models.ItemStatusCompleted).Inc()
	} else {
		metrics.ItemsCompleted.WithLabelValues(models.ItemStatusFailed).Inc()
	}
	return nil
}

func projectStatus(summary dispatch.Summary) string {
	switch {
	case summary.AllSucceeded():
		return models.ProjectStatusPosted
	case summary.AnySucceeded():
		return models.ProjectStatusPartial
	default:
		return models.ProjectStatusFailed
	}
}

func buildNotification(project *models.Project, summary dispatch.Summary) *models.Notification {
	n := &models.Notification{
		UserID:    project.UserID,
		ProjectID: &project.ID,
	}
	switch {
	case summary.AllSucceeded():
		n.Type = models.NotificationSuccess
		n.Title = "Post Published"
		n.Message = fmt.Sprintf("%q was posted to %s.", project.Name, platformList(summary.Successes))
	case summary.AnySucceeded():
		n.Type = models.NotificationWarning
		n.Title = "Post Partially Published"
		n.Message = fmt.Sprintf("%q was posted to %s but failed on %s.",
			project.Name, platformList(summary.Successes), platformList(summary.Failures))
	default:
		n.Type = models.NotificationError
		n.Title = "Post Failed"
		n.Message = fmt.Sprintf("Could not publish %q: %s", project.Name, joinFailures(summary))
	}
	return n
}

func platformList(results []dispatch.Result) string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Platform
	}
	return strings.Join(names, ", ")
}

func joinFailures(summary dispatch.Summary) string {
	parts := make([]string, len(summary.Failures))
	for i, r := range summary.Failures {
		parts[i] = fmt.Sprintf("%s: %s", r.Platform, r.Outcome.Detail)
	}
	return strings.Join(parts, "; ")
}
