package service

import (
	"context"
	"math"
	"time"

	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize aggregates the caller's stored history
func (s *analysisService) Summarize(ctx context.Context, identity Identity) (*models.HistorySummary, error) {
	history, err := s.history(ctx, identity, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	return summarizeHistory(identity.UserID, history), nil
}

// summarizeHistory expects results newest first, as returned by ListByUser
func summarizeHistory(userID string, history []*models.AnalysisResult) *models.HistorySummary {
	summary := &models.HistorySummary{
		UserID:     userID,
		Count:      len(history),
		TierCounts: make(map[models.RiskTier]int, len(models.AllTiers())),
	}
	for _, tier := range models.AllTiers() {
		summary.TierCounts[tier] = 0
	}
	if len(history) == 0 {
		return summary
	}

	latest := history[0]
	summary.LatestTier = latest.Assessment.Tier
	summary.LatestAt = latest.Timestamp.Format(time.RFC3339)

	scores := make([]float64, 0, len(history))
	hemoglobin := make([]float64, 0, len(history))
	days := make([]float64, 0, len(history))
	origin := history[len(history)-1].Timestamp

	for _, result := range history {
		summary.TierCounts[result.Assessment.Tier]++
		scores = append(scores, result.Assessment.RiskScore)

		// Fallback results carry no metrics
		if result.SkinPixels == 0 {
			continue
		}
		hemoglobin = append(hemoglobin, result.Metrics.HemoglobinEstimate)
		days = append(days, result.Timestamp.Sub(origin).Hours()/24)
	}

	summary.RiskScore = describe(scores)
	summary.Hemoglobin = describe(hemoglobin)
	summary.HemoglobinTrendPerDay = trend(days, hemoglobin)
	return summary
}

func describe(values []float64) models.Statistic {
	if len(values) == 0 {
		return models.Statistic{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 || math.IsNaN(std) {
		std = 0
	}
	return models.Statistic{
		Mean:   models.RoundTo(mean, 2),
		StdDev: models.RoundTo(std, 2),
		Min:    models.RoundTo(floats.Min(values), 2),
		Max:    models.RoundTo(floats.Max(values), 2),
	}
}

// trend is the least squares slope of y over x
func trend(x, y []float64) float64 {
	if len(x) < 2 || floats.Max(x) == floats.Min(x) {
		return 0
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return models.RoundTo(beta, 3)
}
