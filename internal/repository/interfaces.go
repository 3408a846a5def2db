package repository

import (
	"context"

	"github.com/anime-shed/anemia-screen-go/internal/storage"
	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves raw image bytes for a validated reference
	FetchImage(ctx context.Context, ref string) (*storage.RawImage, error)

	// ValidateImageRef validates if the provided reference is acceptable
	ValidateImageRef(ref string) error
}

// ResultRepository stores analysis results and per-user history
type ResultRepository interface {
	// Save stores a result; results without a user are not indexed in history
	Save(ctx context.Context, result *models.AnalysisResult) error

	// Get retrieves a stored result, ErrResultNotFound when absent
	Get(ctx context.Context, id string) (*models.AnalysisResult, error)

	// ListByUser returns the newest results first; limit <= 0 means no limit
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error)

	// Close releases backend connections
	Close() error
}
