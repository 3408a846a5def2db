package analyzer

import (
	"image"

	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

// ImageAnalyzer defines the main interface for skin pallor analysis
type ImageAnalyzer interface {
	// Analyze always returns a populated result; internal failures degrade
	// to the fallback assessment.
	Analyze(img image.Image, options AnalysisOptions) AnalysisResult
}

// SkinSampler scans a raster and accumulates skin-classified pixels
type SkinSampler interface {
	Sample(img image.Image, stride int) skinAccumulator
}

// MetricsCalculator derives color metrics from a non-empty accumulator
type MetricsCalculator interface {
	Calculate(acc skinAccumulator) models.ColorMetrics
}

// RiskClassifier maps color metrics to a risk tier
type RiskClassifier interface {
	Classify(metrics models.ColorMetrics, rnd RandomSource) models.RiskAssessment
}

// HeatmapRenderer draws the focus-area overlay for display
type HeatmapRenderer interface {
	Render(img image.Image, focusAreas []float64) (*image.NRGBA, error)
}

// RandomSource supplies the confidence jitter in [0, 1)
type RandomSource interface {
	Float64() float64
}
