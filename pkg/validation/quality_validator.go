package validation

import (
	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

// QualityThresholds defines configurable thresholds for capture validation
type QualityThresholds struct {
	// Resolution thresholds
	MinWidth  int
	MinHeight int

	// Share of sampled pixels that must be classified as skin
	MinSkinCoverage float64

	// Average skin brightness band, 0-255
	MinBrightness float64
	MaxBrightness float64

	// Red must lead green by at least this much for natural skin light
	MinRedGreenSpread float64
}

// DefaultQualityThresholds returns the default capture thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinWidth:          64,
		MinHeight:         64,
		MinSkinCoverage:   0.10,
		MinBrightness:     70.0,
		MaxBrightness:     235.0,
		MinRedGreenSpread: 10.0,
	}
}

// QualityValidator reviews an upload after analysis and explains why the
// result may be less reliable. It never changes the assessment itself.
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// CaptureMetrics are the inputs the quality review needs
type CaptureMetrics struct {
	Width         int
	Height        int
	SampledPixels int
	SkinPixels    int
	Metrics       models.ColorMetrics
}

// CaptureMetricsFrom collects capture metrics from a finished analysis
func CaptureMetricsFrom(result *models.AnalysisResult, width, height int) CaptureMetrics {
	return CaptureMetrics{
		Width:         width,
		Height:        height,
		SampledPixels: result.SampledPixels,
		SkinPixels:    result.SkinPixels,
		Metrics:       result.Metrics,
	}
}

// ValidateCapture lists capture problems. A capture without any skin
// samples got the fallback assessment and reports only "analysis_degraded",
// which is also what undecodable uploads report.
func (qv *QualityValidator) ValidateCapture(m CaptureMetrics) []models.QualityIssue {
	if m.SkinPixels == 0 {
		return []models.QualityIssue{DegradedIssue()}
	}

	var issues []models.QualityIssue

	// 1. Resolution
	if m.Width < qv.thresholds.MinWidth || m.Height < qv.thresholds.MinHeight {
		issues = append(issues, models.QualityIssue{
			Type:        "low_resolution",
			Message:     "Image is very small. Take the photo closer to the skin.",
			Severity:    "warning",
			ActualValue: float64(m.Width * m.Height),
			Threshold:   float64(qv.thresholds.MinWidth * qv.thresholds.MinHeight),
		})
	}

	// 2. Skin coverage
	if m.SampledPixels > 0 {
		coverage := float64(m.SkinPixels) / float64(m.SampledPixels)
		if coverage < qv.thresholds.MinSkinCoverage {
			issues = append(issues, models.QualityIssue{
				Type:        "low_skin_coverage",
				Message:     "Only a small part of the photo shows skin. Move closer or crop the image.",
				Severity:    "warning",
				ActualValue: coverage,
				Threshold:   qv.thresholds.MinSkinCoverage,
			})
		}
	}

	// 3. Brightness
	if m.Metrics.AvgBrightness < qv.thresholds.MinBrightness {
		issues = append(issues, models.QualityIssue{
			Type:        "too_dark",
			Message:     "Skin area is too dark. Use more natural light.",
			Severity:    "warning",
			ActualValue: m.Metrics.AvgBrightness,
			Threshold:   qv.thresholds.MinBrightness,
		})
	} else if m.Metrics.AvgBrightness > qv.thresholds.MaxBrightness {
		issues = append(issues, models.QualityIssue{
			Type:        "too_bright",
			Message:     "Skin area is too bright. Avoid flash and direct sunlight.",
			Severity:    "warning",
			ActualValue: m.Metrics.AvgBrightness,
			Threshold:   qv.thresholds.MaxBrightness,
		})
	}

	// 4. Color balance
	if spread := m.Metrics.AvgR - m.Metrics.AvgG; spread < qv.thresholds.MinRedGreenSpread {
		issues = append(issues, models.QualityIssue{
			Type:        "color_cast",
			Message:     "Colors in the photo don't look natural. Don't use filters or colored lights.",
			Severity:    "warning",
			ActualValue: spread,
			Threshold:   qv.thresholds.MinRedGreenSpread,
		})
	}

	return issues
}

// DegradedIssue is the single issue attached to fallback assessments
func DegradedIssue() models.QualityIssue {
	return models.QualityIssue{
		Type:     "analysis_degraded",
		Message:  "The photo could not be analysed. Retake it in even light with the skin filling most of the frame.",
		Severity: "error",
	}
}

// ConvertIssuesToMessages converts quality issues to plain messages
func (qv *QualityValidator) ConvertIssuesToMessages(issues []models.QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []models.QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
