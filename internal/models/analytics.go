package models

import "time"

// RawMetrics is one platform's answer to an analytics fetch, before
// validation. Rates are percentages.
type RawMetrics struct {
	Likes            int     `json:"likes"`
	Shares           int     `json:"shares"`
	Comments         int     `json:"comments"`
	Reach            int     `json:"reach"`
	Impressions      int     `json:"impressions"`
	Clicks           int     `json:"clicks"`
	EngagementRate   float64 `json:"engagement_rate"`
	ClickThroughRate float64 `json:"click_through_rate"`
	PostURL          string  `json:"post_url,omitempty"`
}

// MetricsRecord is the persisted analytics row, one per (project, platform).
type MetricsRecord struct {
	ID               int64      `db:"id" json:"id"`
	ProjectID        int64      `db:"project_id" json:"project_id"`
	PostID           *int64     `db:"post_id" json:"post_id,omitempty"`
	Platform         string     `db:"platform" json:"platform"`
	PostURL          string     `db:"post_url" json:"post_url,omitempty"`
	Likes            int        `db:"likes" json:"likes"`
	Shares           int        `db:"shares" json:"shares"`
	Comments         int        `db:"comments" json:"comments"`
	Reach            int        `db:"reach" json:"reach"`
	Impressions      int        `db:"impressions" json:"impressions"`
	Clicks           int        `db:"clicks" json:"clicks"`
	EngagementRate   float64    `db:"engagement_rate" json:"engagement_rate"`
	ClickThroughRate float64    `db:"click_through_rate" json:"click_through_rate"`
	DataQualityScore float64    `db:"data_quality_score" json:"data_quality_score"`
	IsAnomaly        bool       `db:"is_anomaly" json:"is_anomaly"`
	LastSynced       *time.Time `db:"last_synced" json:"last_synced,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// AnalyticsTrend is an append-only aggregate snapshot over a rolling window.
type AnalyticsTrend struct {
	ID                int64     `db:"id" json:"id"`
	ProjectID         int64     `db:"project_id" json:"project_id"`
	Platform          string    `db:"platform" json:"platform"`
	TrendDate         time.Time `db:"trend_date" json:"trend_date"`
	Period            string    `db:"period" json:"period"`
	TotalPosts        int       `db:"total_posts" json:"total_posts"`
	TotalEngagement   int       `db:"total_engagement" json:"total_engagement"`
	TotalReach        int       `db:"total_reach" json:"total_reach"`
	TotalImpressions  int       `db:"total_impressions" json:"total_impressions"`
	AvgEngagementRate float64   `db:"avg_engagement_rate" json:"avg_engagement_rate"`
	AvgClickRate      float64   `db:"avg_click_rate" json:"avg_click_rate"`
	// Growth fields stay zero until historical baselines exist.
	EngagementGrowth float64   `db:"engagement_growth" json:"engagement_growth"`
	ReachGrowth      float64   `db:"reach_growth" json:"reach_growth"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type AnalyticsInsight struct {
	ID              int64             `db:"id" json:"id"`
	ProjectID       int64             `db:"project_id" json:"project_id"`
	Platform        string            `db:"platform" json:"platform"`
	InsightType     string            `db:"insight_type" json:"insight_type"`
	Title           string            `db:"title" json:"title"`
	Description     string            `db:"description" json:"description"`
	Severity        string            `db:"severity" json:"severity"` // info, warning
	Confidence      float64           `db:"confidence" json:"confidence"`
	DataPoints      RawMetrics        `db:"data_points" json:"data_points"`
	Recommendations map[string]string `db:"recommendations" json:"recommendations"`
	IsRead          bool              `db:"is_read" json:"is_read"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
}

const (
	InsightSeverityInfo    = "info"
	InsightSeverityWarning = "warning"
)
