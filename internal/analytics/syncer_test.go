package analytics

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/platform"
)

type fakeAnalyticsRepo struct {
	upserts  []*models.MetricsRecord
	insights []*models.AnalyticsInsight
	trends   []*models.AnalyticsTrend
	metrics  []*models.MetricsRecord
}

func (f *fakeAnalyticsRepo) UpsertMetrics(ctx context.Context, record *models.MetricsRecord) error {
	f.upserts = append(f.upserts, record)
	return nil
}

func (f *fakeAnalyticsRepo) GetMetrics(ctx context.Context, projectID int64, platform string) (*models.MetricsRecord, error) {
	return nil, nil
}

func (f *fakeAnalyticsRepo) ListMetricsSince(ctx context.Context, projectID int64, since time.Time) ([]*models.MetricsRecord, error) {
	return f.metrics, nil
}

func (f *fakeAnalyticsRepo) CreateTrend(ctx context.Context, trend *models.AnalyticsTrend) (int64, error) {
	f.trends = append(f.trends, trend)
	return int64(len(f.trends)), nil
}

func (f *fakeAnalyticsRepo) CreateInsight(ctx context.Context, insight *models.AnalyticsInsight) (int64, error) {
	f.insights = append(f.insights, insight)
	return int64(len(f.insights)), nil
}

func (f *fakeAnalyticsRepo) ListInsightsByProjectID(ctx context.Context, projectID int64) ([]*models.AnalyticsInsight, error) {
	return f.insights, nil
}

type fakePostRepo struct {
	posts map[string]*models.SocialPost
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.SocialPost, error) {
	return nil, nil
}

func (f *fakePostRepo) GetByProjectPlatform(ctx context.Context, projectID int64, platform string) (*models.SocialPost, error) {
	return f.posts[platform], nil
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.SocialPost) (int64, error) {
	return 0, errors.New("not implemented")
}

type fakeContentRepo struct {
	content *models.ContentGeneration
}

func (f *fakeContentRepo) GetActiveByProjectID(ctx context.Context, projectID int64) (*models.ContentGeneration, error) {
	return f.content, nil
}

func (f *fakeContentRepo) Create(ctx context.Context, content *models.ContentGeneration) (int64, error) {
	return 0, errors.New("not implemented")
}

type fakeCredRepo struct {
	creds map[string]*models.PlatformCredential
}

func (f *fakeCredRepo) Create(ctx context.Context, cred *models.PlatformCredential) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeCredRepo) ListByProjectID(ctx context.Context, projectID int64) ([]*models.PlatformCredential, error) {
	return nil, nil
}

func (f *fakeCredRepo) MapByProjectID(ctx context.Context, projectID int64) (map[string]*models.PlatformCredential, error) {
	return f.creds, nil
}

func (f *fakeCredRepo) Remove(ctx context.Context, projectID int64, platform string) error {
	return nil
}

type fakeAnalyticsAdapter struct {
	name      string
	metrics   *models.RawMetrics
	errs      []error
	attempts  int
	gotPostID string
}

func (f *fakeAnalyticsAdapter) Name() string { return f.name }

func (f *fakeAnalyticsAdapter) Post(ctx context.Context, text string, media *platform.Media, creds *models.PlatformCredential) platform.Outcome {
	return platform.Outcome{}
}

func (f *fakeAnalyticsAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	f.attempts++
	f.gotPostID = postID
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.metrics, nil
}

func newTestSyncer(adapter platform.Adapter, posts map[string]*models.SocialPost) (*Syncer, *fakeAnalyticsRepo, *[]time.Duration) {
	ar := &fakeAnalyticsRepo{}
	var delays []time.Duration
	s := NewSyncer(
		ar,
		&fakePostRepo{posts: posts},
		&fakeContentRepo{},
		&fakeCredRepo{creds: map[string]*models.PlatformCredential{
			adapter.Name(): {Platform: adapter.Name()},
		}},
		map[string]platform.Adapter{adapter.Name(): adapter},
		2*time.Second,
		3,
	)
	s.sleep = func(d time.Duration) { delays = append(delays, d) }
	s.jitter = func() float64 { return 0 }
	return s, ar, &delays
}

func twitterPost() map[string]*models.SocialPost {
	return map[string]*models.SocialPost{
		"twitter": {ID: 7, ProjectID: 1, Platform: "twitter", PlatformPostID: "111", PostURL: "https://twitter.com/u/status/111"},
	}
}

func TestSyncProjectSuccess(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{
		name: "twitter",
		metrics: &models.RawMetrics{
			Likes: 40, Shares: 5, Comments: 3, Reach: 900, Impressions: 1200, EngagementRate: 5.3,
		},
	}
	s, ar, _ := newTestSyncer(adapter, twitterPost())

	results, err := s.SyncProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(results) != 1 || results[0].Status != SyncSuccess {
		t.Fatalf("expected success, got %+v", results)
	}
	if len(ar.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(ar.upserts))
	}
	rec := ar.upserts[0]
	if rec.Platform != "twitter" || rec.Likes != 40 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.DataQualityScore <= validThreshold {
		t.Errorf("persisted record should carry a passing score, got %v", rec.DataQualityScore)
	}
	if rec.LastSynced == nil {
		t.Error("upserted record should carry a sync time")
	}
}

func TestSyncRetriesWithBackoff(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{
		name: "twitter",
		errs: []error{errors.New("rate limited"), errors.New("rate limited"), errors.New("rate limited")},
	}
	s, ar, delays := newTestSyncer(adapter, twitterPost())

	results, err := s.SyncProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if results[0].Status != SyncNoData {
		t.Fatalf("exhausted retries should report no_data, got %s", results[0].Status)
	}
	if adapter.attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", adapter.attempts)
	}
	want := []time.Duration{4 * time.Second, 8 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %v", len(want), *delays)
	}
	for i, d := range *delays {
		if d != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], d)
		}
	}
	if len(ar.upserts) != 0 {
		t.Error("nothing should be persisted when every fetch fails")
	}
}

func TestSyncRecoversMidRetry(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{
		name:    "twitter",
		errs:    []error{errors.New("rate limited")},
		metrics: &models.RawMetrics{Likes: 10, Reach: 500, EngagementRate: 2},
	}
	s, ar, delays := newTestSyncer(adapter, twitterPost())

	results, err := s.SyncProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if results[0].Status != SyncSuccess {
		t.Fatalf("expected success after one retry, got %+v", results[0])
	}
	if adapter.attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", adapter.attempts)
	}
	if len(*delays) != 1 {
		t.Errorf("expected one backoff sleep, got %v", *delays)
	}
	if len(ar.upserts) != 1 {
		t.Errorf("expected one upsert, got %d", len(ar.upserts))
	}
}

func TestSyncLowQualitySkipsUpsert(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{
		name:    "twitter",
		metrics: &models.RawMetrics{},
	}
	s, ar, _ := newTestSyncer(adapter, twitterPost())

	results, err := s.SyncProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if results[0].Status != SyncLowQuality {
		t.Fatalf("all-zero metrics should be low_quality, got %+v", results[0])
	}
	if len(ar.upserts) != 0 {
		t.Error("low quality metrics must not be persisted")
	}
}

func TestSyncNoPublishedPost(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{name: "twitter"}
	s, ar, _ := newTestSyncer(adapter, map[string]*models.SocialPost{})

	results, err := s.SyncProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if results[0].Status != SyncNoData {
		t.Fatalf("missing post should report no_data, got %+v", results[0])
	}
	if adapter.attempts != 0 {
		t.Error("no fetch should happen without a published post")
	}
	if len(ar.upserts) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestSyncFallsBackToContentID(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{
		name:    "twitter",
		metrics: &models.RawMetrics{Likes: 12, Shares: 2, Comments: 1, Reach: 300, EngagementRate: 5},
	}
	s, ar, _ := newTestSyncer(adapter, map[string]*models.SocialPost{})
	s.cr = &fakeContentRepo{content: &models.ContentGeneration{ID: 42, ProjectID: 1}}

	results, err := s.SyncProject(context.Background(), 1)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if results[0].Status != SyncSuccess {
		t.Fatalf("expected success via content id fallback, got %+v", results[0])
	}
	if adapter.gotPostID != "content-42" {
		t.Errorf("expected fetch with local content id, got %q", adapter.gotPostID)
	}
	if len(ar.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(ar.upserts))
	}
	if ar.upserts[0].PostID != nil {
		t.Error("record without a real post must not reference one")
	}
}

func TestSyncGeneratesInsightAboveThreshold(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{
		name:    "twitter",
		metrics: &models.RawMetrics{Likes: 200, Shares: 20, Comments: 15, Reach: 1000, EngagementRate: 23.5},
	}
	s, ar, _ := newTestSyncer(adapter, twitterPost())

	if _, err := s.SyncProject(context.Background(), 1); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(ar.insights) != 1 {
		t.Fatalf("expected one insight, got %d", len(ar.insights))
	}
	insight := ar.insights[0]
	if insight.InsightType != "engagement" || insight.Severity != models.InsightSeverityInfo {
		t.Errorf("unexpected insight: %+v", insight)
	}
}

func TestSyncNoInsightAtModerateQuality(t *testing.T) {
	// Score 0.7 passes validation but stays under the insight gate.
	adapter := &fakeAnalyticsAdapter{
		name:    "twitter",
		metrics: &models.RawMetrics{Likes: 120, Reach: 100, EngagementRate: 12},
	}
	s, ar, _ := newTestSyncer(adapter, twitterPost())

	if _, err := s.SyncProject(context.Background(), 1); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(ar.upserts) != 1 {
		t.Fatalf("valid record should be persisted, got %d upserts", len(ar.upserts))
	}
	if !ar.upserts[0].IsAnomaly {
		t.Error("likes above reach should persist as anomalous")
	}
	if len(ar.insights) != 0 {
		t.Errorf("no insight should be generated at score 0.7, got %d", len(ar.insights))
	}
}

func TestComputeTrends(t *testing.T) {
	adapter := &fakeAnalyticsAdapter{name: "twitter"}
	s, ar, _ := newTestSyncer(adapter, twitterPost())
	ar.metrics = []*models.MetricsRecord{
		{Platform: "twitter", Likes: 10, Shares: 2, Comments: 1, Reach: 100, Impressions: 150, EngagementRate: 4, ClickThroughRate: 1},
		{Platform: "twitter", Likes: 30, Shares: 4, Comments: 3, Reach: 300, Impressions: 450, EngagementRate: 6, ClickThroughRate: 2},
		{Platform: "discord", Likes: 5, Reach: 50},
	}

	if err := s.ComputeTrends(context.Background(), 1); err != nil {
		t.Fatalf("trend computation failed: %v", err)
	}
	if len(ar.trends) != 2 {
		t.Fatalf("expected one trend per platform, got %d", len(ar.trends))
	}

	// Sorted by platform name, discord first.
	tw := ar.trends[1]
	if tw.Platform != "twitter" {
		t.Fatalf("expected twitter trend second, got %s", tw.Platform)
	}
	if tw.TotalPosts != 2 || tw.TotalEngagement != 50 || tw.TotalReach != 400 {
		t.Errorf("unexpected totals: %+v", tw)
	}
	if !almostEqual(tw.AvgEngagementRate, 5) {
		t.Errorf("expected avg engagement 5, got %v", tw.AvgEngagementRate)
	}
	if tw.Period != "30d" {
		t.Errorf("expected 30d period, got %s", tw.Period)
	}
}
