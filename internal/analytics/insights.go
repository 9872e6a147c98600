package analytics

import (
	"fmt"

	"github.com/postpilotapp/postpilot/internal/models"
)

// buildInsight derives at most one insight from a validated sample. The
// rules fire in priority order; most samples produce nothing.
func buildInsight(projectID int64, platformName string, m *models.RawMetrics) *models.AnalyticsInsight {
	switch {
	case m.EngagementRate > 10:
		return &models.AnalyticsInsight{
			ProjectID:   projectID,
			Platform:    platformName,
			InsightType: "engagement",
			Title:       "High Engagement",
			Description: fmt.Sprintf("This post is engaging %.1f%% of its audience, well above typical rates.", m.EngagementRate),
			Severity:    models.InsightSeverityInfo,
			Confidence:  0.9,
			DataPoints:  *m,
			Recommendations: map[string]string{
				"repeat": "Post similar content at the same time of day.",
			},
		}
	case m.Likes > 0 && float64(m.Shares) > float64(m.Likes)*0.5:
		return &models.AnalyticsInsight{
			ProjectID:   projectID,
			Platform:    platformName,
			InsightType: "virality",
			Title:       "Strong Share Ratio",
			Description: fmt.Sprintf("Shares (%d) are unusually high relative to likes (%d); the content is being actively passed on.", m.Shares, m.Likes),
			Severity:    models.InsightSeverityInfo,
			Confidence:  0.85,
			DataPoints:  *m,
			Recommendations: map[string]string{
				"amplify": "Consider boosting this post while it is spreading.",
			},
		}
	case m.Reach > 0 && m.EngagementRate < 1:
		return &models.AnalyticsInsight{
			ProjectID:   projectID,
			Platform:    platformName,
			InsightType: "engagement",
			Title:       "Low Engagement",
			Description: fmt.Sprintf("Engagement is at %.1f%% despite reaching %d accounts.", m.EngagementRate, m.Reach),
			Severity:    models.InsightSeverityWarning,
			Confidence:  0.8,
			DataPoints:  *m,
			Recommendations: map[string]string{
				"content": "Try a stronger hook or a question in the opening line.",
				"timing":  "Experiment with different posting times.",
			},
		}
	default:
		return nil
	}
}
