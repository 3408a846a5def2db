package service

import (
	"context"
	"errors"
	"time"

	"github.com/anime-shed/anemia-screen-go/internal/analyzer"
	apperrors "github.com/anime-shed/anemia-screen-go/internal/errors"
	"github.com/anime-shed/anemia-screen-go/internal/logger"
	"github.com/anime-shed/anemia-screen-go/internal/observer"
	"github.com/anime-shed/anemia-screen-go/internal/repository"
	"github.com/anime-shed/anemia-screen-go/internal/storage"
	"github.com/anime-shed/anemia-screen-go/internal/strategy"
	"github.com/anime-shed/anemia-screen-go/internal/validator"
	"github.com/anime-shed/anemia-screen-go/pkg/models"
	"github.com/anime-shed/anemia-screen-go/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalysisService runs uploads and remote images through validation,
// analysis and persistence, and serves the stored history
type AnalysisService interface {
	AnalyzeUpload(ctx context.Context, identity Identity, upload Upload, params AnalysisParams) (*models.AnalysisResponse, error)
	AnalyzeURL(ctx context.Context, identity Identity, ref string, params AnalysisParams) (*models.AnalysisResponse, error)
	AnalyzeBatch(ctx context.Context, identity Identity, refs []string, params AnalysisParams) (*models.BatchAnalysisResponse, error)

	GetResult(ctx context.Context, identity Identity, id string) (*models.AnalysisResponse, error)
	ListResults(ctx context.Context, identity Identity, limit int) ([]*models.AnalysisResponse, error)
	Summarize(ctx context.Context, identity Identity) (*models.HistorySummary, error)

	ValidateImageRef(ref string) error
}

// Upload is an image received directly from the caller
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AnalysisParams are per-request overrides on top of the configured defaults
type AnalysisParams struct {
	// Mode selects a strategy: standard, fast or precise
	Mode string
	// Stride overrides the sampling stride when positive
	Stride int
	// Heatmap overrides overlay rendering when set
	Heatmap *bool
	// Random replaces the confidence jitter source, mainly for tests and the CLI
	Random analyzer.RandomSource
}

// Config holds service level settings
type Config struct {
	Defaults          analyzer.AnalysisOptions
	FetchTimeout      time.Duration
	ValidationTimeout time.Duration
	ValidatorFailOpen bool
	BatchWorkers      int
	MaxBatchSize      int
	HistoryLimit      int
}

// DefaultConfig mirrors the configuration defaults
func DefaultConfig() Config {
	return Config{
		Defaults:          analyzer.DefaultOptions(),
		FetchTimeout:      30 * time.Second,
		ValidationTimeout: 15 * time.Second,
		BatchWorkers:      4,
		MaxBatchSize:      10,
		HistoryLimit:      100,
	}
}

const defaultListLimit = 20

// analysisService implements AnalysisService
type analysisService struct {
	imageRepo repository.ImageRepository
	analyzer  analyzer.ImageAnalyzer
	validator validator.ContentValidator
	results   repository.ResultRepository
	events    observer.Subject
	quality   *validation.QualityValidator
	cfg       Config
}

// NewAnalysisService creates a new analysis service. validator and events
// may be nil; a nil validator approves everything.
func NewAnalysisService(
	imageRepository repository.ImageRepository,
	imageAnalyzer analyzer.ImageAnalyzer,
	contentValidator validator.ContentValidator,
	results repository.ResultRepository,
	events observer.Subject,
	cfg Config,
) AnalysisService {
	if contentValidator == nil {
		contentValidator = validator.NewAcceptAll()
	}
	if cfg.BatchWorkers < 1 {
		cfg.BatchWorkers = 1
	}
	if cfg.MaxBatchSize < 1 {
		cfg.MaxBatchSize = 1
	}
	defaults := DefaultConfig()
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	if cfg.ValidationTimeout <= 0 {
		cfg.ValidationTimeout = defaults.ValidationTimeout
	}
	return &analysisService{
		imageRepo: imageRepository,
		analyzer:  imageAnalyzer,
		validator: contentValidator,
		results:   results,
		events:    events,
		quality:   validation.NewQualityValidator(),
		cfg:       cfg,
	}
}

// AnalyzeUpload analyses an image received in the request body
func (s *analysisService) AnalyzeUpload(ctx context.Context, identity Identity, upload Upload, params AnalysisParams) (*models.AnalysisResponse, error) {
	if len(upload.Data) == 0 {
		return nil, apperrors.NewValidationError("image file is empty", nil)
	}
	opts, err := s.resolveOptions(params)
	if err != nil {
		return nil, err
	}

	raw := &storage.RawImage{
		Data:        upload.Data,
		ContentType: storage.DetectContentType(upload.ContentType, upload.Data),
	}
	source := "upload"
	if upload.Filename != "" {
		source = "upload:" + upload.Filename
	}
	return s.analyzeRaw(ctx, identity, source, raw, opts)
}

// AnalyzeURL fetches a remote image (http, https or azblob) and analyses it
func (s *analysisService) AnalyzeURL(ctx context.Context, identity Identity, ref string, params AnalysisParams) (*models.AnalysisResponse, error) {
	if err := s.ValidateImageRef(ref); err != nil {
		return nil, err
	}
	opts, err := s.resolveOptions(params)
	if err != nil {
		return nil, err
	}

	raw, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.analyzeRaw(ctx, identity, ref, raw, opts)
}

// ValidateImageRef validates the image reference
func (s *analysisService) ValidateImageRef(ref string) error {
	return s.imageRepo.ValidateImageRef(ref)
}

func (s *analysisService) resolveOptions(params AnalysisParams) (analyzer.AnalysisOptions, error) {
	strat, err := strategy.ForMode(params.Mode)
	if err != nil {
		return analyzer.AnalysisOptions{}, apperrors.NewValidationError("unknown analysis mode", err)
	}

	opts := strat.Options(s.cfg.Defaults)
	if params.Stride > 0 {
		opts = opts.WithStride(params.Stride)
	}
	if params.Heatmap != nil {
		opts.RenderHeatmap = *params.Heatmap
	}
	if params.Random != nil {
		opts = opts.WithRandom(params.Random)
	}
	return opts, nil
}

func (s *analysisService) fetch(ctx context.Context, ref string) (*storage.RawImage, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.imageRepo.FetchImage(fetchCtx, ref)
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			ImageSource:    ref,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})

		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case errors.Is(err, context.DeadlineExceeded):
			return nil, apperrors.NewTimeoutError("timed out fetching image", err)
		default:
			return nil, apperrors.NewNetworkError("failed to fetch image", err)
		}
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		ImageSource:    ref,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": len(raw.Data), "content_type": raw.ContentType},
	})
	return raw, nil
}

// analyzeRaw validates content, decodes, analyses and persists one image
func (s *analysisService) analyzeRaw(ctx context.Context, identity Identity, source string, raw *storage.RawImage, opts analyzer.AnalysisOptions) (*models.AnalysisResponse, error) {
	if err := s.validateContent(ctx, source, raw); err != nil {
		return nil, err
	}

	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, ImageSource: source})
	start := time.Now()

	result, decodeErr := AnalyzeCapture(s.analyzer, s.quality, raw, opts)
	if decodeErr != nil {
		// Decoding failures degrade to the fallback assessment like a skinless photo
		logger.WithFields(logrus.Fields{
			"image_source": source,
			"content_type": raw.ContentType,
			"bytes":        len(raw.Data),
		}).WithError(decodeErr).Warn("Image could not be decoded, returning fallback assessment")
	}
	result.ID = uuid.NewString()
	result.UserID = identity.UserID
	result.ImageSource = source

	fallback := result.SkinPixels == 0
	if fallback && decodeErr == nil {
		logger.WithFields(logrus.Fields{
			"result_id":      result.ID,
			"image_source":   source,
			"sampled_pixels": result.SampledPixels,
		}).Warn("No skin pixels detected, returning fallback assessment")
	}

	logger.WithFields(logrus.Fields{
		"result_id":   result.ID,
		"tier":        result.Assessment.Tier,
		"risk_score":  result.Assessment.RiskScore,
		"skin_pixels": result.SkinPixels,
		"duration":    result.ProcessingTimeSec,
		"fallback":    fallback,
	}).Info("Skin analysis finished")

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		ResultID:       result.ID,
		ImageSource:    source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Tier:           result.Assessment.Tier,
		Fallback:       fallback,
		Metadata: map[string]interface{}{
			"skin_pixels":    result.SkinPixels,
			"sampled_pixels": result.SampledPixels,
		},
	})

	response := models.NewAnalysisResponse(&result)
	response.Persisted = s.persist(ctx, identity, &result)
	return response, nil
}

// validateContent asks the external validator about the raw upload
func (s *analysisService) validateContent(ctx context.Context, source string, raw *storage.RawImage) error {
	vctx, cancel := context.WithTimeout(ctx, s.cfg.ValidationTimeout)
	defer cancel()

	verdict, err := s.validator.Validate(vctx, raw.Data, raw.ContentType)
	if err != nil {
		if s.cfg.ValidatorFailOpen {
			logger.WithField("image_source", source).WithError(err).Warn("Content validation unavailable, continuing without it")
			return nil
		}
		s.publish(ctx, observer.AnalysisEvent{
			EventType:    observer.AnalysisFailed,
			ImageSource:  source,
			ErrorMessage: err.Error(),
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeoutError("content validation timed out", err)
		}
		return apperrors.NewNetworkError("content validation unavailable", err)
	}

	if !verdict.Approved {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:    observer.ImageRejected,
			ImageSource:  source,
			ErrorMessage: verdict.Reason,
		})
		return apperrors.NewRejectedError(verdict.Reason, nil)
	}
	return nil
}

// persist stores results of identified callers; failures never fail the request
func (s *analysisService) persist(ctx context.Context, identity Identity, result *models.AnalysisResult) bool {
	if identity.Anonymous() || s.results == nil {
		return false
	}
	if err := s.results.Save(ctx, result); err != nil {
		logger.WithFields(logrus.Fields{
			"result_id": result.ID,
			"user_id":   identity.UserID,
		}).WithError(err).Error("Failed to persist analysis result")
		s.publish(ctx, observer.AnalysisEvent{
			EventType:    observer.ResultPersistFailed,
			ResultID:     result.ID,
			ErrorMessage: err.Error(),
		})
		return false
	}
	return true
}

// GetResult returns a stored result. Results owned by another user are
// reported as missing.
func (s *analysisService) GetResult(ctx context.Context, identity Identity, id string) (*models.AnalysisResponse, error) {
	if s.results == nil {
		return nil, apperrors.NewNotFoundError("analysis result not found", nil)
	}
	result, err := s.results.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrResultNotFound) {
			return nil, apperrors.NewNotFoundError("analysis result not found", err)
		}
		return nil, apperrors.NewInternalError("failed to load analysis result", err)
	}
	if result.UserID != "" && result.UserID != identity.UserID {
		return nil, apperrors.NewNotFoundError("analysis result not found", nil)
	}

	response := models.NewAnalysisResponse(result)
	response.Persisted = true
	return response, nil
}

// ListResults returns the caller's history, newest first, without heatmaps
func (s *analysisService) ListResults(ctx context.Context, identity Identity, limit int) ([]*models.AnalysisResponse, error) {
	history, err := s.history(ctx, identity, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.AnalysisResponse, 0, len(history))
	for _, result := range history {
		response := models.NewAnalysisResponse(result)
		response.Persisted = true
		response.Heatmap = nil
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *analysisService) history(ctx context.Context, identity Identity, limit int) ([]*models.AnalysisResult, error) {
	if identity.Anonymous() {
		return nil, apperrors.NewUnauthorizedError("user identity required", nil)
	}
	if s.results == nil {
		return []*models.AnalysisResult{}, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}

	history, err := s.results.ListByUser(ctx, identity.UserID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load analysis history", err)
	}
	return history, nil
}

func (s *analysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, event)
}
