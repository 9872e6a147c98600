package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/postpilotapp/postpilot/internal/models"
)

const trendWindow = 30 * 24 * time.Hour

// ComputeTrends aggregates the last 30 days of metrics per platform and
// appends one snapshot row per platform. Runs after SyncProject so each
// sync leaves a datapoint for historical comparison.
func (s *Syncer) ComputeTrends(ctx context.Context, projectID int64) error {
	records, err := s.ar.ListMetricsSince(ctx, projectID, s.now().Add(-trendWindow))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	byPlatform := make(map[string][]*models.MetricsRecord)
	for _, r := range records {
		byPlatform[r.Platform] = append(byPlatform[r.Platform], r)
	}

	platforms := make([]string, 0, len(byPlatform))
	for p := range byPlatform {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	trendDate := s.now()
	for _, p := range platforms {
		group := byPlatform[p]
		trend := &models.AnalyticsTrend{
			ProjectID:  projectID,
			Platform:   p,
			TrendDate:  trendDate,
			Period:     "30d",
			TotalPosts: len(group),
		}
		for _, r := range group {
			trend.TotalEngagement += r.Likes + r.Shares + r.Comments
			trend.TotalReach += r.Reach
			trend.TotalImpressions += r.Impressions
			trend.AvgEngagementRate += r.EngagementRate
			trend.AvgClickRate += r.ClickThroughRate
		}
		trend.AvgEngagementRate /= float64(len(group))
		trend.AvgClickRate /= float64(len(group))

		if _, err := s.ar.CreateTrend(ctx, trend); err != nil {
			return err
		}
	}
	return nil
}
