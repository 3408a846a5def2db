package service

import (
	"github.com/anime-shed/anemia-screen-go/internal/analyzer"
	"github.com/anime-shed/anemia-screen-go/internal/storage"
	"github.com/anime-shed/anemia-screen-go/pkg/models"
	"github.com/anime-shed/anemia-screen-go/pkg/validation"
)

// AnalyzeCapture decodes raw and analyses it, attaching image metadata and
// capture quality issues. Undecodable data still yields the fallback
// assessment with an "analysis_degraded" issue; the decode error is returned
// alongside so callers can log it.
func AnalyzeCapture(a analyzer.ImageAnalyzer, quality *validation.QualityValidator, raw *storage.RawImage, opts analyzer.AnalysisOptions) (models.AnalysisResult, error) {
	img, format, decodeErr := storage.DecodeImage(raw.Data)

	result := a.Analyze(img, opts)
	if decodeErr != nil {
		result.QualityIssues = []models.QualityIssue{validation.DegradedIssue()}
		return result, decodeErr
	}

	bounds := img.Bounds()
	result.Image = &models.ImageMetadata{
		ContentType:   raw.ContentType,
		ContentLength: int64(len(raw.Data)),
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
	}
	result.QualityIssues = quality.ValidateCapture(validation.CaptureMetricsFrom(&result, bounds.Dx(), bounds.Dy()))
	return result, nil
}
