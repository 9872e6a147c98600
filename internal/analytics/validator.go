package analytics

import (
	"errors"
	"fmt"

	"github.com/postpilotapp/postpilot/internal/models"
)

// ErrNoData means a platform returned nothing usable for the post.
var ErrNoData = errors.New("no analytics data available")

const (
	// validThreshold gates persistence: records scoring at or below it
	// are discarded as untrustworthy.
	validThreshold = 0.5

	// insightThreshold gates insight generation: only high-confidence
	// data is worth interpreting.
	insightThreshold = 0.8
)

// QualityReport is the outcome of scoring one RawMetrics sample. The
// score starts at 1.0 and loses a fixed penalty per detected problem.
type QualityReport struct {
	Score   float64
	Valid   bool
	Anomaly bool
	Issues  []string
}

// ScoreMetrics applies the data-quality rules to a raw sample. Counts
// below zero, counts that contradict reach, and impossible engagement
// rates each cost a penalty; an all-zero sample is treated as a platform
// reporting gap rather than a real measurement.
func ScoreMetrics(m *models.RawMetrics) QualityReport {
	report := QualityReport{Score: 1.0}

	counts := []struct {
		name  string
		value int
	}{
		{"likes", m.Likes},
		{"shares", m.Shares},
		{"comments", m.Comments},
		{"reach", m.Reach},
		{"impressions", m.Impressions},
		{"clicks", m.Clicks},
	}
	for _, c := range counts {
		if c.value < 0 {
			report.Score -= 0.2
			report.Issues = append(report.Issues, fmt.Sprintf("negative %s", c.name))
		}
	}

	if m.Reach > 0 {
		if m.Likes > m.Reach {
			report.Score -= 0.3
			report.Anomaly = true
			report.Issues = append(report.Issues, "likes exceed reach")
		}
		if m.Comments > m.Reach {
			report.Score -= 0.2
			report.Anomaly = true
			report.Issues = append(report.Issues, "comments exceed reach")
		}
	}

	switch {
	case m.EngagementRate > 100:
		report.Score -= 0.4
		report.Anomaly = true
		report.Issues = append(report.Issues, "engagement rate above 100%")
	case m.EngagementRate > 50:
		report.Score -= 0.1
		report.Issues = append(report.Issues, "engagement rate suspiciously high")
	}

	if m.Likes == 0 && m.Shares == 0 && m.Comments == 0 && m.Reach == 0 && m.Impressions == 0 {
		report.Score -= 0.5
		report.Issues = append(report.Issues, "all core metrics are zero")
	}

	if report.Score < 0 {
		report.Score = 0
	}
	if report.Score > 1 {
		report.Score = 1
	}
	report.Valid = report.Score > validThreshold
	return report
}
