package models

import (
	"math"
	"time"
)

// URLAnalysisRequest requests analysis of an image reachable by URL
type URLAnalysisRequest struct {
	URL string `json:"url" binding:"required"`
}

// BatchAnalysisRequest requests analysis of several images at once
type BatchAnalysisRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DisplayMetrics is ColorMetrics rounded for presentation
type DisplayMetrics struct {
	AvgR               int     `json:"avg_r"`
	AvgG               int     `json:"avg_g"`
	AvgB               int     `json:"avg_b"`
	AvgBrightness      int     `json:"avg_brightness"`
	PallorIndex        float64 `json:"pallor_index"`
	HemoglobinEstimate float64 `json:"hemoglobin_estimate"`
}

// AnalysisResponse is the API representation of an AnalysisResult
type AnalysisResponse struct {
	ID                string         `json:"id"`
	ImageSource       string         `json:"image_source,omitempty"`
	Timestamp         string         `json:"timestamp"`
	ProcessingTimeSec float64        `json:"processing_time_sec"`
	SkinPixels        int            `json:"skin_pixels"`
	SampledPixels     int            `json:"sampled_pixels"`
	Persisted         bool           `json:"persisted"`
	Metrics           DisplayMetrics `json:"metrics"`
	RiskLevel         RiskTier       `json:"risk_level"`
	Confidence        float64        `json:"confidence"`
	RiskScore         int            `json:"risk_score"`
	Explanation       string         `json:"explanation"`
	Recommendations   []string       `json:"recommendations"`
	DetailedFindings  []string       `json:"detailed_findings"`
	FocusAreas        []float64      `json:"focus_areas"`
	Image             *ImageMetadata `json:"image,omitempty"`
	QualityIssues     []QualityIssue `json:"quality_issues,omitempty"`
	Heatmap           []byte         `json:"heatmap_png,omitempty"`
}

// NewAnalysisResponse rounds a result at the presentation boundary
func NewAnalysisResponse(result *AnalysisResult) *AnalysisResponse {
	a := result.Assessment
	return &AnalysisResponse{
		ID:                result.ID,
		ImageSource:       result.ImageSource,
		Timestamp:         result.Timestamp.Format(time.RFC3339),
		ProcessingTimeSec: result.ProcessingTimeSec,
		SkinPixels:        result.SkinPixels,
		SampledPixels:     result.SampledPixels,
		Metrics: DisplayMetrics{
			AvgR:               int(math.Round(result.Metrics.AvgR)),
			AvgG:               int(math.Round(result.Metrics.AvgG)),
			AvgB:               int(math.Round(result.Metrics.AvgB)),
			AvgBrightness:      int(math.Round(result.Metrics.AvgBrightness)),
			PallorIndex:        RoundTo(result.Metrics.PallorIndex, 2),
			HemoglobinEstimate: RoundTo(result.Metrics.HemoglobinEstimate, 1),
		},
		RiskLevel:        a.Tier,
		Confidence:       RoundTo(a.Confidence, 1),
		RiskScore:        int(math.Round(a.RiskScore)),
		Explanation:      a.Explanation,
		Recommendations:  a.Recommendations,
		DetailedFindings: a.DetailedFindings,
		FocusAreas:       a.FocusAreas,
		Image:            result.Image,
		QualityIssues:    result.QualityIssues,
		Heatmap:          result.Heatmap,
	}
}

// RoundTo rounds v to the given number of decimals
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// BatchItem is the per-image outcome of a batch request
type BatchItem struct {
	URL    string            `json:"url"`
	Result *AnalysisResponse `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// BatchAnalysisResponse wraps batch outcomes in request order
type BatchAnalysisResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// HistorySummary aggregates a user's stored analyses for dashboards
type HistorySummary struct {
	UserID     string           `json:"user_id"`
	Count      int              `json:"count"`
	TierCounts map[RiskTier]int `json:"tier_counts"`
	LatestTier RiskTier         `json:"latest_tier,omitempty"`
	LatestAt   string           `json:"latest_at,omitempty"`
	RiskScore  Statistic        `json:"risk_score"`
	Hemoglobin Statistic        `json:"hemoglobin"`
	// Hemoglobin change per day from a least squares fit over the history.
	// Zero when fewer than two analyses exist or they share a timestamp.
	HemoglobinTrendPerDay float64 `json:"hemoglobin_trend_per_day"`
}

// Statistic is a mean/stddev/min/max tuple
type Statistic struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}
