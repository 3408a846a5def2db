package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/anemia-screen-go/internal/analyzer"
	"github.com/anime-shed/anemia-screen-go/internal/config"
	"github.com/anime-shed/anemia-screen-go/internal/factory"
	"github.com/anime-shed/anemia-screen-go/internal/logger"
	"github.com/anime-shed/anemia-screen-go/internal/observer"
	"github.com/anime-shed/anemia-screen-go/internal/repository"
	"github.com/anime-shed/anemia-screen-go/internal/service"
	"github.com/anime-shed/anemia-screen-go/internal/transport"
	"github.com/anime-shed/anemia-screen-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	imageAnalyzer   analyzer.ImageAnalyzer
	imageRepository repository.ImageRepository
	results         repository.ResultRepository
	events          observer.Subject
	metrics         *observer.MetricsObserver
	analysisService service.AnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory()

	imageSource, err := components.StorageFactory.CreateImageSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create image source: %w", err)
	}

	contentValidator, err := components.ValidatorFactory.CreateValidator(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create content validator: %w", err)
	}

	results, err := components.RepositoryFactory.CreateResultRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create result store: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	imageAnalyzer := analyzer.NewImageAnalyzer()
	imageRepository := repository.NewImageRepository(imageSource, validation.NewURLValidator())

	defaults := analyzer.DefaultOptions().WithStride(cfg.SampleStride)
	if !cfg.RenderHeatmap {
		defaults = defaults.WithoutHeatmap()
	}
	analysisService := service.NewAnalysisService(
		imageRepository,
		imageAnalyzer,
		contentValidator,
		results,
		events,
		service.Config{
			Defaults:          defaults,
			FetchTimeout:      cfg.FetchTimeout,
			ValidationTimeout: cfg.ValidationTimeout,
			ValidatorFailOpen: cfg.ValidatorFailOpen,
			BatchWorkers:      cfg.BatchWorkers,
			MaxBatchSize:      cfg.MaxBatchSize,
			HistoryLimit:      cfg.RedisHistoryLimit,
		},
	)
	handler := transport.NewHandler(analysisService, metrics, cfg)

	return &Container{
		config:          cfg,
		imageAnalyzer:   imageAnalyzer,
		imageRepository: imageRepository,
		results:         results,
		events:          events,
		metrics:         metrics,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis service
func (c *Container) Service() service.AnalysisService {
	return c.analysisService
}

// Close releases backend connections
func (c *Container) Close() error {
	return c.results.Close()
}
