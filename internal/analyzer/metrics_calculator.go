package analyzer

import (
	"math"

	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

// Pallor blend weights for red deficiency, overall paleness and color balance
const (
	pallorWeightRed        = 0.5
	pallorWeightBrightness = 0.3
	pallorWeightBalance    = 0.2
)

// Hemoglobin proxy constants in g/dL
const (
	hemoglobinBase       = 14.0
	hemoglobinRedGain    = 4.0
	hemoglobinPallorLoss = 6.0
	HemoglobinMin        = 4.0
	HemoglobinMax        = 18.0
)

// metricsCalculator implements MetricsCalculator
type metricsCalculator struct{}

// NewMetricsCalculator creates a new color metrics calculator
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{}
}

// Calculate averages the accumulator and derives pallor and hemoglobin.
// Callers must not pass an empty accumulator.
func (mc *metricsCalculator) Calculate(acc skinAccumulator) models.ColorMetrics {
	n := float64(acc.skinCount)
	avgR := acc.sumR / n
	avgG := acc.sumG / n
	avgB := acc.sumB / n
	avgBrightness := acc.sumBrightness / n

	pallor := CalculatePallorIndex(avgR, avgG, avgBrightness)

	return models.ColorMetrics{
		AvgR:               avgR,
		AvgG:               avgG,
		AvgB:               avgB,
		AvgBrightness:      avgBrightness,
		PallorIndex:        pallor,
		HemoglobinEstimate: EstimateHemoglobin(avgR, pallor),
	}
}

// CalculatePallorIndex blends red deficiency, paleness and red/green balance
func CalculatePallorIndex(avgR, avgG, avgBrightness float64) float64 {
	redDeficiency := math.Max(0, (200-avgR)/200)
	paleness := math.Max(0, (220-avgBrightness)/220)
	balance := 1 - math.Abs(avgR-avgG)/255

	return pallorWeightRed*redDeficiency +
		pallorWeightBrightness*paleness +
		pallorWeightBalance*balance
}

// EstimateHemoglobin returns the clamped g/dL proxy
func EstimateHemoglobin(avgR, pallorIndex float64) float64 {
	estimate := hemoglobinBase + (avgR/255)*hemoglobinRedGain - pallorIndex*hemoglobinPallorLoss
	if math.IsNaN(estimate) {
		return HemoglobinMin
	}
	return math.Min(HemoglobinMax, math.Max(HemoglobinMin, estimate))
}
