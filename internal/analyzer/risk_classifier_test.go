package analyzer

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsWith(pallor, hb float64) models.ColorMetrics {
	return models.ColorMetrics{AvgR: 180, AvgG: 140, AvgB: 120, AvgBrightness: 146.7, PallorIndex: pallor, HemoglobinEstimate: hb}
}

func TestClassify_TierTable(t *testing.T) {
	classifier := NewRiskClassifier()

	tests := []struct {
		name           string
		pallor, hb     float64
		wantTier       models.RiskTier
		wantScore      float64
		wantConfidence float64 // with jitter fixed at 0.5
		wantFocus      int
	}{
		{"normal", 0.1, 15, models.TierNormal, 5, 95, 0},
		{"normal needs hemoglobin floor", 0.1, 11.9, models.TierMildRisk, 29, 91, 4},
		{"pallor boundary moves to mild", 0.2, 12.0, models.TierMildRisk, 33, 91, 4},
		{"high", 0.5, 9, models.TierHighRisk, 70, 92, 6},
		{"mild pallor but low hemoglobin", 0.3, 9.5, models.TierHighRisk, 64, 92, 6},
		{"severe by pallor", 0.7, 10, models.TierSevereRisk, 92.5, 96, 8},
		{"severe by hemoglobin", 0.3, 7.9, models.TierSevereRisk, 82.5, 96, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := classifier.Classify(metricsWith(tt.pallor, tt.hb), FixedRandom(0.5))

			assert.Equal(t, tt.wantTier, a.Tier)
			assert.InDelta(t, tt.wantScore, a.RiskScore, 1e-9)
			assert.InDelta(t, tt.wantConfidence, a.Confidence, 1e-9)
			assert.Len(t, a.FocusAreas, tt.wantFocus)
			assert.NotEmpty(t, a.Explanation)
			assert.NotEmpty(t, a.Recommendations)
			assert.NotEmpty(t, a.DetailedFindings)
		})
	}
}

func TestClassify_ConfidenceJitterBands(t *testing.T) {
	classifier := NewRiskClassifier()
	bands := map[models.RiskTier][2]float64{
		models.TierNormal:     {92, 98},
		models.TierMildRisk:   {87, 95},
		models.TierHighRisk:   {89, 95},
		models.TierSevereRisk: {94, 98},
	}
	rnd := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		pallor := float64(i) / 200
		a := classifier.Classify(metricsWith(pallor, 12), rnd)
		band := bands[a.Tier]
		if a.Confidence < band[0] || a.Confidence >= band[1] {
			t.Fatalf("Confidence %f outside [%f, %f) for %s", a.Confidence, band[0], band[1], a.Tier)
		}
	}
}

func TestClassify_MonotonicInPallor(t *testing.T) {
	classifier := NewRiskClassifier()

	for _, hb := range []float64{8, 10, 12, 15, 18} {
		prev := -1
		prevScore := math.Inf(-1)
		for i := 0; i <= 100; i++ {
			a := classifier.Classify(metricsWith(float64(i)/100, hb), FixedRandom(0))
			sev := a.Tier.Severity()
			require.GreaterOrEqual(t, sev, prev, "tier severity decreased at pallor %.2f hb %.1f", float64(i)/100, hb)
			require.GreaterOrEqual(t, a.RiskScore, prevScore, "risk score decreased at pallor %.2f hb %.1f", float64(i)/100, hb)
			prev = sev
			prevScore = a.RiskScore
		}
	}
}

func TestClassify_BoundaryScoresIncreaseAcrossTiers(t *testing.T) {
	classifier := NewRiskClassifier()

	maxNormal := 0.2 * 50
	mild := classifier.Classify(metricsWith(0.2, 12), FixedRandom(0))
	assert.Equal(t, models.TierMildRisk, mild.Tier)
	assert.InDelta(t, 33.0, mild.RiskScore, 1e-9)
	assert.Greater(t, mild.RiskScore, maxNormal)

	high := classifier.Classify(metricsWith(0.4, 12), FixedRandom(0))
	assert.Equal(t, models.TierHighRisk, high.Tier)
	assert.Greater(t, high.RiskScore, 25+0.4*40)

	severe := classifier.Classify(metricsWith(0.6, 12), FixedRandom(0))
	assert.Equal(t, models.TierSevereRisk, severe.Tier)
	assert.Greater(t, severe.RiskScore, 55+0.6*30)
}

func TestClassify_ReturnsIndependentSlices(t *testing.T) {
	classifier := NewRiskClassifier()

	first := classifier.Classify(metricsWith(0.5, 9), FixedRandom(0))
	first.FocusAreas[0] = 999
	first.Recommendations[0] = "changed"

	second := classifier.Classify(metricsWith(0.5, 9), FixedRandom(0))
	assert.Equal(t, 20.0, second.FocusAreas[0])
	assert.NotEqual(t, "changed", second.Recommendations[0])
}

func TestClassify_FindingsInterpolateMetrics(t *testing.T) {
	classifier := NewRiskClassifier()
	m := models.ColorMetrics{AvgR: 231.6, AvgG: 150, PallorIndex: 0.123, HemoglobinEstimate: 16.04}

	a := classifier.Classify(m, FixedRandom(0))

	require.Equal(t, models.TierNormal, a.Tier)
	assert.Contains(t, a.Explanation, "232")
	assert.Contains(t, a.Explanation, "16.0 g/dL")
	assert.Contains(t, a.DetailedFindings[1], "0.12")
}

func TestClassify_NilRandomUsesSharedSource(t *testing.T) {
	classifier := NewRiskClassifier()

	a := classifier.Classify(metricsWith(0.1, 15), nil)

	assert.Equal(t, models.TierNormal, a.Tier)
	assert.GreaterOrEqual(t, a.Confidence, 92.0)
	assert.Less(t, a.Confidence, 98.0)
}

func TestFallbackAssessment(t *testing.T) {
	a := FallbackAssessment()

	assert.Equal(t, models.TierMildRisk, a.Tier)
	assert.Equal(t, 85.0, a.Confidence)
	assert.Equal(t, 25.0, a.RiskScore)
	assert.NotEmpty(t, a.Explanation)
	assert.Len(t, a.Recommendations, 3)
	assert.Len(t, a.DetailedFindings, 1)
	assert.Empty(t, a.FocusAreas)
}

func TestRiskTierSeverityOrdering(t *testing.T) {
	tiers := models.AllTiers()
	for i := 1; i < len(tiers); i++ {
		assert.Greater(t, tiers[i].Severity(), tiers[i-1].Severity())
	}
	assert.Equal(t, -1, models.RiskTier("Unknown").Severity())
}
