package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/anime-shed/anemia-screen-go/internal/config"
	"github.com/anime-shed/anemia-screen-go/internal/logger"
	"github.com/anime-shed/anemia-screen-go/internal/repository"
	"github.com/anime-shed/anemia-screen-go/internal/storage"
	"github.com/anime-shed/anemia-screen-go/internal/validator"

	"github.com/sirupsen/logrus"
)

// StorageFactory creates image sources
type StorageFactory interface {
	CreateImageSource(cfg *config.Config) (storage.ImageFetcher, error)
}

// RepositoryFactory creates result stores
type RepositoryFactory interface {
	CreateResultRepository(cfg *config.Config) (repository.ResultRepository, error)
}

// ValidatorFactory creates content validators
type ValidatorFactory interface {
	CreateValidator(ctx context.Context, cfg *config.Config) (validator.ContentValidator, error)
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateImageSource builds the scheme router. Blob references are only
// routable when Azure credentials are configured.
func (f *storageFactory) CreateImageSource(cfg *config.Config) (storage.ImageFetcher, error) {
	httpFetcher := storage.NewHTTPImageFetcher(cfg.FetchTimeout)

	var blob storage.BlobStorage
	if cfg.AzureEnabled() {
		var err error
		blob, err = storage.NewAzureStorage(cfg.AzureStorageAccount, cfg.AzureStorageKey)
		if err != nil {
			return nil, fmt.Errorf("azure storage: %w", err)
		}
		logger.WithField("account", cfg.AzureStorageAccount).Info("Azure blob image source enabled")
	}
	return storage.NewImageSource(httpFetcher, blob), nil
}

// repositoryFactory implements RepositoryFactory
type repositoryFactory struct{}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory() RepositoryFactory {
	return &repositoryFactory{}
}

// CreateResultRepository creates a store for the configured backend
func (f *repositoryFactory) CreateResultRepository(cfg *config.Config) (repository.ResultRepository, error) {
	var (
		repo repository.ResultRepository
		err  error
	)
	switch cfg.StoreBackend {
	case config.StoreMemory, "":
		repo = repository.NewMemoryResultRepository()
	case config.StoreRedis:
		repo, err = repository.NewRedisResultRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisHistoryLimit)
	case config.StoreMySQL:
		repo, err = repository.NewMySQLResultRepository(cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	logger.WithField("backend", cfg.StoreBackend).Info("Result store ready")
	return repo, nil
}

// validatorFactory implements ValidatorFactory
type validatorFactory struct{}

// NewValidatorFactory creates a new validator factory
func NewValidatorFactory() ValidatorFactory {
	return &validatorFactory{}
}

// CreateValidator returns the Gemini validator when an API key is configured
// and a permissive validator otherwise
func (f *validatorFactory) CreateValidator(ctx context.Context, cfg *config.Config) (validator.ContentValidator, error) {
	if !cfg.ValidatorEnabled() {
		logger.Logger.Warn("GEMINI_API_KEY not set, content validation disabled")
		return validator.NewAcceptAll(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	v, err := validator.NewGeminiValidator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("content validator: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"model":     cfg.GeminiModel,
		"fail_open": cfg.ValidatorFailOpen,
	}).Info("Content validator enabled")
	return v, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory    StorageFactory
	RepositoryFactory RepositoryFactory
	ValidatorFactory  ValidatorFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		StorageFactory:    NewStorageFactory(),
		RepositoryFactory: NewRepositoryFactory(),
		ValidatorFactory:  NewValidatorFactory(),
	}
}
