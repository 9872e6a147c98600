package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/postpilotapp/postpilot/internal/models"
)

type AnalyticsRepository interface {
	UpsertMetrics(ctx context.Context, record *models.MetricsRecord) error
	GetMetrics(ctx context.Context, projectID int64, platform string) (*models.MetricsRecord, error)
	ListMetricsSince(ctx context.Context, projectID int64, since time.Time) ([]*models.MetricsRecord, error)
	CreateTrend(ctx context.Context, trend *models.AnalyticsTrend) (int64, error)
	CreateInsight(ctx context.Context, insight *models.AnalyticsInsight) (int64, error)
	ListInsightsByProjectID(ctx context.Context, projectID int64) ([]*models.AnalyticsInsight, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// UpsertMetrics writes one row per (project, platform): an existing row is
// updated in place, never duplicated.
func (r *analyticsRepository) UpsertMetrics(ctx context.Context, record *models.MetricsRecord) error {
	query := `
		INSERT INTO post_analytics (project_id, post_id, platform, post_url,
			likes, shares, comments, reach, impressions, clicks,
			engagement_rate, click_through_rate, data_quality_score, is_anomaly, last_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (project_id, platform) DO UPDATE SET
			post_id = EXCLUDED.post_id,
			post_url = EXCLUDED.post_url,
			likes = EXCLUDED.likes,
			shares = EXCLUDED.shares,
			comments = EXCLUDED.comments,
			reach = EXCLUDED.reach,
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			engagement_rate = EXCLUDED.engagement_rate,
			click_through_rate = EXCLUDED.click_through_rate,
			data_quality_score = EXCLUDED.data_quality_score,
			is_anomaly = EXCLUDED.is_anomaly,
			last_synced = EXCLUDED.last_synced,
			updated_at = now()
	`

	var postID sql.NullInt64
	if record.PostID != nil {
		postID = sql.NullInt64{Int64: *record.PostID, Valid: true}
	}

	lastSynced := time.Now().UTC()
	if record.LastSynced != nil {
		lastSynced = *record.LastSynced
	}

	_, err := r.db.ExecContext(ctx, query, record.ProjectID, postID, record.Platform,
		nullable(record.PostURL), record.Likes, record.Shares, record.Comments,
		record.Reach, record.Impressions, record.Clicks, record.EngagementRate,
		record.ClickThroughRate, record.DataQualityScore, record.IsAnomaly, lastSynced)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

const metricsColumns = `id, project_id, post_id, platform, post_url,
	likes, shares, comments, reach, impressions, clicks,
	engagement_rate, click_through_rate, data_quality_score, is_anomaly,
	last_synced, created_at, updated_at`

func scanMetrics(row interface{ Scan(...any) error }) (*models.MetricsRecord, error) {
	var record models.MetricsRecord
	var postID sql.NullInt64
	var postURL sql.NullString
	var lastSynced sql.NullTime

	err := row.Scan(&record.ID, &record.ProjectID, &postID, &record.Platform,
		&postURL, &record.Likes, &record.Shares, &record.Comments, &record.Reach,
		&record.Impressions, &record.Clicks, &record.EngagementRate,
		&record.ClickThroughRate, &record.DataQualityScore, &record.IsAnomaly,
		&lastSynced, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if postID.Valid {
		record.PostID = &postID.Int64
	}
	record.PostURL = postURL.String
	if lastSynced.Valid {
		record.LastSynced = &lastSynced.Time
	}

	return &record, nil
}

func (r *analyticsRepository) GetMetrics(ctx context.Context, projectID int64, platform string) (*models.MetricsRecord, error) {
	query := `SELECT ` + metricsColumns + ` FROM post_analytics WHERE project_id = $1 AND platform = $2`

	record, err := scanMetrics(r.db.QueryRowContext(ctx, query, projectID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return record, nil
}

func (r *analyticsRepository) ListMetricsSince(ctx context.Context, projectID int64, since time.Time) ([]*models.MetricsRecord, error) {
	query := `SELECT ` + metricsColumns + ` FROM post_analytics WHERE project_id = $1 AND created_at >= $2`

	rows, err := r.db.QueryContext(ctx, query, projectID, since)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.MetricsRecord
	for rows.Next() {
		record, err := scanMetrics(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *analyticsRepository) CreateTrend(ctx context.Context, trend *models.AnalyticsTrend) (int64, error) {
	query := `
		INSERT INTO analytics_trends (project_id, platform, trend_date, period,
			total_posts, total_engagement, total_reach, total_impressions,
			avg_engagement_rate, avg_click_rate, engagement_growth, reach_growth)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, trend.ProjectID, trend.Platform,
		trend.TrendDate, trend.Period, trend.TotalPosts, trend.TotalEngagement,
		trend.TotalReach, trend.TotalImpressions, trend.AvgEngagementRate,
		trend.AvgClickRate, trend.EngagementGrowth, trend.ReachGrowth).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *analyticsRepository) CreateInsight(ctx context.Context, insight *models.AnalyticsInsight) (int64, error) {
	dataPoints, err := json.Marshal(insight.DataPoints)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	recommendations, err := json.Marshal(insight.Recommendations)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO analytics_insights (project_id, platform, insight_type, title,
			description, severity, confidence, data_points, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query, insight.ProjectID, insight.Platform,
		insight.InsightType, insight.Title, insight.Description, insight.Severity,
		insight.Confidence, dataPoints, recommendations).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *analyticsRepository) ListInsightsByProjectID(ctx context.Context, projectID int64) ([]*models.AnalyticsInsight, error) {
	query := `
		SELECT id, project_id, platform, insight_type, title, description,
			severity, confidence, data_points, recommendations, is_read, created_at
		FROM analytics_insights
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var insights []*models.AnalyticsInsight
	for rows.Next() {
		var insight models.AnalyticsInsight
		var dataPoints, recommendations []byte
		err := rows.Scan(&insight.ID, &insight.ProjectID, &insight.Platform,
			&insight.InsightType, &insight.Title, &insight.Description,
			&insight.Severity, &insight.Confidence, &dataPoints,
			&recommendations, &insight.IsRead, &insight.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if len(dataPoints) > 0 {
			if err := json.Unmarshal(dataPoints, &insight.DataPoints); err != nil {
				slog.Info(err.Error())
				return nil, err
			}
		}
		if len(recommendations) > 0 {
			if err := json.Unmarshal(recommendations, &insight.Recommendations); err != nil {
				slog.Info(err.Error())
				return nil, err
			}
		}
		insights = append(insights, &insight)
	}
	return insights, rows.Err()
}
