package repository

import "errors"

var (
	// ErrInvalidImageRef indicates an image reference that cannot be fetched
	ErrInvalidImageRef = errors.New("invalid image reference")

	// ErrResultNotFound indicates the analysis result was not found
	ErrResultNotFound = errors.New("analysis result not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrInvalidResult indicates a result that cannot be stored
	ErrInvalidResult = errors.New("result must have an ID")
)
