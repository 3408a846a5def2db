package repository

import (
	"context"
	"fmt"

	"github.com/anime-shed/anemia-screen-go/internal/storage"
	"github.com/anime-shed/anemia-screen-go/pkg/validation"
)

// sourceImageRepository implements ImageRepository on top of the storage router
type sourceImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewImageRepository creates an image repository over a storage fetcher
func NewImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) ImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &sourceImageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage validates the reference and retrieves the payload
func (r *sourceImageRepository) FetchImage(ctx context.Context, ref string) (*storage.RawImage, error) {
	if err := r.ValidateImageRef(ref); err != nil {
		return nil, err
	}
	raw, err := r.fetcher.FetchImage(ctx, ref)
	if err != nil {
		return nil, err
	}
	if raw == nil || len(raw.Data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImageRef)
	}
	return raw, nil
}

// ValidateImageRef returns the validator's AppError so callers get a 400
func (r *sourceImageRepository) ValidateImageRef(ref string) error {
	return r.validator.ValidateImageURL(ref)
}
