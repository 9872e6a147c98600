package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/postpilotapp/postpilot/internal/metrics"
	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/platform"
	"github.com/postpilotapp/postpilot/internal/repository"
)

// Per-platform sync outcomes.
const (
	SyncSuccess    = "success"
	SyncLowQuality = "low_quality"
	SyncNoData     = "no_data"
	SyncError      = "error"
)

// PlatformSync is one platform's outcome within a project sync.
type PlatformSync struct {
	Platform     string  `json:"platform"`
	Status       string  `json:"status"`
	QualityScore float64 `json:"quality_score,omitempty"`
	Detail       string  `json:"detail,omitempty"`
}

// Syncer pulls post metrics from the platforms, validates them, and
// persists only what survives validation. Fetches retry with exponential
// backoff; a post whose platform never answers is reported as no_data
// rather than failing the whole project.
type Syncer struct {
	ar       repository.AnalyticsRepository
	sp       repository.SocialPostRepository
	cr       repository.ContentRepository
	cred     repository.CredentialRepository
	adapters map[string]platform.Adapter

	base        time.Duration
	maxAttempts int

	sleep  func(time.Duration)
	jitter func() float64
	now    func() time.Time
}

func NewSyncer(
	ar repository.AnalyticsRepository,
	sp repository.SocialPostRepository,
	cr repository.ContentRepository,
	cred repository.CredentialRepository,
	adapters map[string]platform.Adapter,
	base time.Duration,
	maxAttempts int) *Syncer {
	return &Syncer{
		ar:          ar,
		sp:          sp,
		cr:          cr,
		cred:        cred,
		adapters:    adapters,
		base:        base,
		maxAttempts: maxAttempts,
		sleep:       time.Sleep,
		jitter:      rand.Float64,
		now:         time.Now,
	}
}

// SyncProject refreshes analytics for every credentialed platform of a
// project and returns the per-platform outcomes.
func (s *Syncer) SyncProject(ctx context.Context, projectID int64) ([]PlatformSync, error) {
	runID := uuid.NewString()
	slog.Info("analytics sync started",
		slog.String("run_id", runID),
		slog.Int64("project_id", projectID))

	creds, err := s.cred.MapByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	platforms := make([]string, 0, len(creds))
	for p := range creds {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	results := make([]PlatformSync, 0, len(platforms))
	for _, p := range platforms {
		result := s.syncPlatform(ctx, projectID, p, creds[p])
		metrics.AnalyticsSyncs.WithLabelValues(p, result.Status).Inc()
		slog.Info("platform sync finished",
			slog.String("run_id", runID),
			slog.String("platform", p),
			slog.String("status", result.Status))
		results = append(results, result)
	}
	return results, nil
}

func (s *Syncer) syncPlatform(ctx context.Context, projectID int64, platformName string, cred *models.PlatformCredential) PlatformSync {
	result := PlatformSync{Platform: platformName}

	post, err := s.sp.GetByProjectPlatform(ctx, projectID, platformName)
	if err != nil {
		result.Status = SyncError
		result.Detail = err.Error()
		return result
	}

	// When the platform never handed back a post id, fall back to the
	// local content generation id so the fetch can still be attempted.
	postID := ""
	if post != nil {
		postID = post.PlatformPostID
	}
	if postID == "" {
		content, err := s.cr.GetActiveByProjectID(ctx, projectID)
		if err != nil {
			result.Status = SyncError
			result.Detail = err.Error()
			return result
		}
		if content == nil {
			result.Status = SyncNoData
			result.Detail = "no published post on this platform"
			return result
		}
		postID = fmt.Sprintf("content-%d", content.ID)
	}

	adapter, ok := s.adapters[platformName]
	if !ok {
		result.Status = SyncError
		result.Detail = "unsupported platform"
		return result
	}

	raw, err := s.fetchWithRetry(ctx, adapter, postID, cred)
	if err != nil {
		slog.Info(err.Error())
		result.Status = SyncNoData
		result.Detail = err.Error()
		return result
	}

	report := ScoreMetrics(raw)
	result.QualityScore = report.Score
	if !report.Valid {
		result.Status = SyncLowQuality
		if len(report.Issues) > 0 {
			result.Detail = report.Issues[0]
		}
		return result
	}

	lastSynced := s.now()
	record := &models.MetricsRecord{
		ProjectID:        projectID,
		Platform:         platformName,
		PostURL:          postURL(raw, post),
		Likes:            raw.Likes,
		Shares:           raw.Shares,
		Comments:         raw.Comments,
		Reach:            raw.Reach,
		Impressions:      raw.Impressions,
		Clicks:           raw.Clicks,
		EngagementRate:   raw.EngagementRate,
		ClickThroughRate: raw.ClickThroughRate,
		DataQualityScore: report.Score,
		IsAnomaly:        report.Anomaly,
		LastSynced:       &lastSynced,
	}
	if post != nil {
		record.PostID = &post.ID
	}
	if err := s.ar.UpsertMetrics(ctx, record); err != nil {
		result.Status = SyncError
		result.Detail = err.Error()
		return result
	}

	if report.Score > insightThreshold {
		if insight := buildInsight(projectID, platformName, raw); insight != nil {
			if _, err := s.ar.CreateInsight(ctx, insight); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	result.Status = SyncSuccess
	return result
}

// fetchWithRetry retries transient fetch failures, waiting
// base*2^attempt plus up to a second of jitter between attempts.
func (s *Syncer) fetchWithRetry(ctx context.Context, adapter platform.Adapter, postID string, cred *models.PlatformCredential) (*models.RawMetrics, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		raw, err := adapter.Analytics(ctx, postID, cred)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if attempt == s.maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.AnalyticsRetries.Inc()
		delay := time.Duration(float64(s.base)*math.Pow(2, float64(attempt))) +
			time.Duration(s.jitter()*float64(time.Second))
		s.sleep(delay)
	}
	return nil, fmt.Errorf("%w: %v", ErrNoData, lastErr)
}

func postURL(raw *models.RawMetrics, post *models.SocialPost) string {
	if raw.PostURL != "" {
		return raw.PostURL
	}
	if post != nil {
		return post.PostURL
	}
	return ""
}
