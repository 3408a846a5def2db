package models

import "time"

// RiskTier is the ordered anemia risk category assigned to an analysis
type RiskTier string

const (
	TierNormal     RiskTier = "Normal"
	TierMildRisk   RiskTier = "Mild Risk"
	TierHighRisk   RiskTier = "High Risk"
	TierSevereRisk RiskTier = "Severe Risk"
)

// Severity returns the position of the tier in the Normal < Mild < High < Severe ordering.
// Unknown tiers report -1.
func (t RiskTier) Severity() int {
	switch t {
	case TierNormal:
		return 0
	case TierMildRisk:
		return 1
	case TierHighRisk:
		return 2
	case TierSevereRisk:
		return 3
	default:
		return -1
	}
}

// AllTiers lists the tiers in severity order
func AllTiers() []RiskTier {
	return []RiskTier{TierNormal, TierMildRisk, TierHighRisk, TierSevereRisk}
}

// ColorMetrics holds the averaged skin color and the values derived from it.
// Values keep full floating precision; rounding happens in AnalysisResponse.
type ColorMetrics struct {
	AvgR               float64 `json:"avg_r"`
	AvgG               float64 `json:"avg_g"`
	AvgB               float64 `json:"avg_b"`
	AvgBrightness      float64 `json:"avg_brightness"`
	PallorIndex        float64 `json:"pallor_index"`
	HemoglobinEstimate float64 `json:"hemoglobin_estimate"`
}

// RiskAssessment is the classifier output for one analysis
type RiskAssessment struct {
	Tier             RiskTier  `json:"tier"`
	Confidence       float64   `json:"confidence"`
	RiskScore        float64   `json:"risk_score"`
	Explanation      string    `json:"explanation"`
	Recommendations  []string  `json:"recommendations"`
	DetailedFindings []string  `json:"detailed_findings"`
	FocusAreas       []float64 `json:"focus_areas"`
}

// AnalysisResult is the unit produced by the analyzer and handed to the service layer
type AnalysisResult struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id,omitempty"`
	ImageSource       string    `json:"image_source,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`

	// Sampling counters
	SampledPixels int `json:"sampled_pixels"`
	SkinPixels    int `json:"skin_pixels"`

	Metrics    ColorMetrics   `json:"metrics"`
	Assessment RiskAssessment `json:"assessment"`

	// Filled by the service layer from the decoded upload
	Image         *ImageMetadata `json:"image,omitempty"`
	QualityIssues []QualityIssue `json:"quality_issues,omitempty"`

	// PNG encoded overlay, nil when not rendered
	Heatmap []byte `json:"heatmap,omitempty"`
}

// ImageMetadata contains metadata about an analysed image
type ImageMetadata struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
}

// QualityIssue flags a capture problem that may make the assessment less reliable
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning" or "info"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}
