package analyzer

import (
	"fmt"
	"image"
	"time"

	"github.com/anime-shed/anemia-screen-go/internal/logger"
	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// coreAnalyzer implements ImageAnalyzer and orchestrates all components.
// It holds no per-call state, so one instance serves concurrent callers.
type coreAnalyzer struct {
	sampler    SkinSampler
	calculator MetricsCalculator
	classifier RiskClassifier
	renderer   HeatmapRenderer
}

// Option customises the analyzer components
type Option func(*coreAnalyzer)

// WithHeatmapRenderer swaps the overlay renderer; nil disables overlays entirely
func WithHeatmapRenderer(r HeatmapRenderer) Option {
	return func(ca *coreAnalyzer) {
		ca.renderer = r
	}
}

// WithRiskClassifier swaps the tier classifier
func WithRiskClassifier(c RiskClassifier) Option {
	return func(ca *coreAnalyzer) {
		ca.classifier = c
	}
}

// NewImageAnalyzer creates a new image analyzer with all components
func NewImageAnalyzer(opts ...Option) ImageAnalyzer {
	ca := &coreAnalyzer{
		sampler:    NewSkinSampler(),
		calculator: NewMetricsCalculator(),
		classifier: NewRiskClassifier(),
		renderer:   NewHeatmapRenderer(),
	}
	for _, opt := range opts {
		opt(ca)
	}
	return ca
}

// Analyze runs sampler, metrics, classifier and optionally the heatmap.
// It never fails: a missing raster, zero skin samples or a panic anywhere in
// the pipeline all yield the fallback assessment.
func (ca *coreAnalyzer) Analyze(img image.Image, options AnalysisOptions) (result AnalysisResult) {
	start := time.Now()
	result.Timestamp = start

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
			}).Error("Analysis pipeline panicked, returning fallback assessment")
			result = fallbackResult(start)
		}
		result.ProcessingTimeSec = time.Since(start).Seconds()
	}()

	if img == nil {
		return fallbackResult(start)
	}

	acc := ca.sampler.Sample(img, options.stride())
	result.SampledPixels = acc.sampled
	result.SkinPixels = acc.skinCount

	if acc.empty() {
		result.Assessment = FallbackAssessment()
		return result
	}

	result.Metrics = ca.calculator.Calculate(acc)
	result.Assessment = ca.classifier.Classify(result.Metrics, options.random())

	if options.RenderHeatmap && ca.renderer != nil && len(result.Assessment.FocusAreas) > 0 {
		result.Heatmap = ca.renderHeatmap(img, result.Assessment.FocusAreas)
	}

	return result
}

// renderHeatmap is best effort; a failed overlay leaves the assessment intact
func (ca *coreAnalyzer) renderHeatmap(img image.Image, focusAreas []float64) []byte {
	overlay, err := ca.renderer.Render(img, focusAreas)
	if err != nil {
		logger.WithError(err).Warn("Heatmap rendering failed")
		return nil
	}
	encoded, err := EncodePNG(overlay)
	if err != nil {
		logger.WithError(err).Warn("Heatmap encoding failed")
		return nil
	}
	return encoded
}

func fallbackResult(start time.Time) AnalysisResult {
	return AnalysisResult{
		Timestamp:  start,
		Metrics:    models.ColorMetrics{},
		Assessment: FallbackAssessment(),
	}
}
