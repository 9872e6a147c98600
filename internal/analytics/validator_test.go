package analytics

import (
	"math"
	"testing"

	"github.com/postpilotapp/postpilot/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreCleanMetrics(t *testing.T) {
	report := ScoreMetrics(&models.RawMetrics{
		Likes:          50,
		Shares:         10,
		Comments:       5,
		Reach:          1000,
		Impressions:    1500,
		Clicks:         30,
		EngagementRate: 6.5,
	})
	if !almostEqual(report.Score, 1.0) {
		t.Errorf("clean metrics should score 1.0, got %v", report.Score)
	}
	if !report.Valid {
		t.Error("clean metrics should be valid")
	}
	if report.Anomaly {
		t.Error("clean metrics should not be anomalous")
	}
}

func TestScoreLikesExceedReach(t *testing.T) {
	report := ScoreMetrics(&models.RawMetrics{
		Likes: 120,
		Reach: 100,
	})
	if !almostEqual(report.Score, 0.7) {
		t.Errorf("expected score 0.7, got %v", report.Score)
	}
	if !report.Valid {
		t.Error("score 0.7 should still be valid")
	}
	if !report.Anomaly {
		t.Error("likes above reach should flag an anomaly")
	}
}

func TestScoreAllZero(t *testing.T) {
	report := ScoreMetrics(&models.RawMetrics{})
	if !almostEqual(report.Score, 0.5) {
		t.Errorf("expected score 0.5, got %v", report.Score)
	}
	if report.Valid {
		t.Error("score 0.5 must not be valid; the threshold is exclusive")
	}
}

func TestScoreImpressionsOnlyIsClean(t *testing.T) {
	// Impressions count toward the reporting gap check: a sample with
	// views but no interactions yet is a real measurement.
	report := ScoreMetrics(&models.RawMetrics{Impressions: 1000, Clicks: 10})
	if !almostEqual(report.Score, 1.0) {
		t.Errorf("impressions-only sample should score 1.0, got %v", report.Score)
	}
	if !report.Valid {
		t.Error("impressions-only sample should be valid")
	}
}

func TestScoreNegativeCounts(t *testing.T) {
	report := ScoreMetrics(&models.RawMetrics{
		Likes: -1,
		Reach: 100,
	})
	if !almostEqual(report.Score, 0.8) {
		t.Errorf("expected one negative-count penalty, got %v", report.Score)
	}

	report = ScoreMetrics(&models.RawMetrics{
		Likes:  -1,
		Shares: -1,
		Clicks: -1,
		Reach:  100,
	})
	if !almostEqual(report.Score, 0.4) {
		t.Errorf("penalties should stack per metric, got %v", report.Score)
	}
	if report.Valid {
		t.Error("0.4 should not be valid")
	}
}

func TestScoreImpossibleEngagement(t *testing.T) {
	report := ScoreMetrics(&models.RawMetrics{
		Likes:          10,
		Reach:          100,
		EngagementRate: 120,
	})
	if !almostEqual(report.Score, 0.6) {
		t.Errorf("expected 0.6 for engagement above 100%%, got %v", report.Score)
	}
	if !report.Anomaly {
		t.Error("engagement above 100% should flag an anomaly")
	}

	report = ScoreMetrics(&models.RawMetrics{
		Likes:          10,
		Reach:          100,
		EngagementRate: 60,
	})
	if !almostEqual(report.Score, 0.9) {
		t.Errorf("expected 0.9 for engagement above 50%%, got %v", report.Score)
	}
}

func TestScoreClampsAtZero(t *testing.T) {
	report := ScoreMetrics(&models.RawMetrics{
		Likes:          -1,
		Shares:         -1,
		Comments:       -1,
		Impressions:    -1,
		Clicks:         -1,
		EngagementRate: 500,
	})
	if report.Score < 0 {
		t.Errorf("score must never go below zero, got %v", report.Score)
	}
	if report.Valid {
		t.Error("a fully broken sample must not be valid")
	}
}

func TestScoreIssuesListed(t *testing.T) {
	report := ScoreMetrics(&models.RawMetrics{
		Likes: 120,
		Reach: 100,
	})
	if len(report.Issues) != 1 {
		t.Fatalf("expected exactly one issue, got %v", report.Issues)
	}
}
