package validation

import (
	"testing"

	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

func goodCapture() CaptureMetrics {
	return CaptureMetrics{
		Width:         640,
		Height:        480,
		SampledPixels: 1000,
		SkinPixels:    800,
		Metrics: models.ColorMetrics{
			AvgR:          210,
			AvgG:          160,
			AvgB:          130,
			AvgBrightness: 166.7,
		},
	}
}

func issueTypes(issues []models.QualityIssue) map[string]models.QualityIssue {
	byType := make(map[string]models.QualityIssue, len(issues))
	for _, issue := range issues {
		byType[issue.Type] = issue
	}
	return byType
}

func TestNewQualityValidator(t *testing.T) {
	validator := NewQualityValidator()
	if validator == nil {
		t.Fatal("Expected non-nil quality validator")
	}

	expected := DefaultQualityThresholds().MinSkinCoverage
	if validator.thresholds.MinSkinCoverage != expected {
		t.Errorf("Expected MinSkinCoverage to be %f, got %f", expected, validator.thresholds.MinSkinCoverage)
	}
}

func TestNewQualityValidatorWithThresholds(t *testing.T) {
	validator := NewQualityValidatorWithThresholds(QualityThresholds{MinWidth: 1000, MinHeight: 1000})

	issues := validator.ValidateCapture(goodCapture())
	if _, ok := issueTypes(issues)["low_resolution"]; !ok {
		t.Error("Expected custom resolution threshold to flag a 640x480 capture")
	}
}

func TestValidateCapture_GoodCapture(t *testing.T) {
	validator := NewQualityValidator()

	issues := validator.ValidateCapture(goodCapture())

	if len(issues) > 0 {
		t.Errorf("Expected no quality issues for a good capture, got: %v", issues)
	}
}

func TestValidateCapture_Issues(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(m *CaptureMetrics)
		wantType string
		severity string
	}{
		{"Tiny image", func(m *CaptureMetrics) { m.Width, m.Height = 32, 32 }, "low_resolution", "warning"},
		{"Low coverage", func(m *CaptureMetrics) { m.SkinPixels = 50 }, "low_skin_coverage", "warning"},
		{"Too dark", func(m *CaptureMetrics) { m.Metrics.AvgBrightness = 40 }, "too_dark", "warning"},
		{"Too bright", func(m *CaptureMetrics) { m.Metrics.AvgBrightness = 240 }, "too_bright", "warning"},
		{"Green cast", func(m *CaptureMetrics) { m.Metrics.AvgG = 205 }, "color_cast", "warning"},
		{"No skin", func(m *CaptureMetrics) { m.SkinPixels = 0 }, "analysis_degraded", "error"},
	}

	validator := NewQualityValidator()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := goodCapture()
			tc.mutate(&m)

			issue, ok := issueTypes(validator.ValidateCapture(m))[tc.wantType]
			if !ok {
				t.Fatalf("Expected %s issue", tc.wantType)
			}
			if issue.Severity != tc.severity {
				t.Errorf("Expected severity %s, got %s", tc.severity, issue.Severity)
			}
			if issue.Message == "" {
				t.Error("Expected a user-facing message")
			}
		})
	}
}

func TestValidateCapture_NoSkinReportsOnlyDegraded(t *testing.T) {
	validator := NewQualityValidator()
	// tiny and skinless: the resolution warning is suppressed too
	m := CaptureMetrics{Width: 8, Height: 8, SampledPixels: 16}

	issues := validator.ValidateCapture(m)

	if len(issues) != 1 || issues[0] != DegradedIssue() {
		t.Errorf("Expected only analysis_degraded, got %v", issues)
	}
	if !validator.HasCriticalIssues(issues) {
		t.Error("Expected no-skin capture to be critical")
	}
}

func TestCaptureMetricsFrom(t *testing.T) {
	result := &models.AnalysisResult{
		SampledPixels: 100,
		SkinPixels:    40,
		Metrics:       models.ColorMetrics{AvgR: 200},
	}

	m := CaptureMetricsFrom(result, 20, 30)

	if m.Width != 20 || m.Height != 30 || m.SampledPixels != 100 || m.SkinPixels != 40 || m.Metrics.AvgR != 200 {
		t.Errorf("Unexpected capture metrics: %+v", m)
	}
}

func TestConvertIssuesToMessages(t *testing.T) {
	validator := NewQualityValidator()
	issues := []models.QualityIssue{
		{Type: "too_dark", Message: "dark", Severity: "warning"},
		{Type: "color_cast", Message: "cast", Severity: "warning"},
	}

	messages := validator.ConvertIssuesToMessages(issues)

	if len(messages) != 2 || messages[0] != "dark" || messages[1] != "cast" {
		t.Errorf("Unexpected messages: %v", messages)
	}
	if validator.HasCriticalIssues(issues) {
		t.Error("Expected warnings not to be critical")
	}
}
