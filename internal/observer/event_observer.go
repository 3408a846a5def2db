package observer

import (
	"context"
	"sync"
	"time"

	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ResultID       string                 `json:"result_id,omitempty"`
	ImageSource    string                 `json:"image_source,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	Tier           models.RiskTier        `json:"tier,omitempty"`
	Fallback       bool                   `json:"fallback,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when analysis begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when an assessment was produced, fallback included
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when no assessment could be produced
	AnalysisFailed EventType = "analysis_failed"
	// ImageFetched when image is successfully fetched
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when image fetch fails
	ImageFetchFailed EventType = "image_fetch_failed"
	// ImageRejected when the content validator refuses the image
	ImageRejected EventType = "image_rejected"
	// ResultPersistFailed when a finished result could not be stored
	ResultPersistFailed EventType = "result_persist_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"result_id":       event.ResultID,
		"image_source":    event.ImageSource,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.Tier != "" {
		fields["tier"] = event.Tier
		fields["fallback"] = event.Fallback
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Skin analysis started")
	case AnalysisCompleted:
		entry.Info("Skin analysis completed")
	case AnalysisFailed:
		entry.Error("Skin analysis failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case ImageRejected:
		entry.Warn("Image rejected by content validator")
	case ResultPersistFailed:
		entry.Error("Analysis result could not be stored")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Stats is a snapshot of the metrics observer counters
type Stats struct {
	TotalAnalyses       int64                     `json:"total_analyses"`
	CompletedAnalyses   int64                     `json:"completed_analyses"`
	FailedAnalyses      int64                     `json:"failed_analyses"`
	FallbackAssessments int64                     `json:"fallback_assessments"`
	RejectedImages      int64                     `json:"rejected_images"`
	FetchFailures       int64                     `json:"fetch_failures"`
	PersistFailures     int64                     `json:"persist_failures"`
	TierCounts          map[models.RiskTier]int64 `json:"tier_counts"`
	AvgProcessingTimeMs float64                   `json:"avg_processing_time_ms"`
}

// MetricsObserver collects metrics from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	completedAnalyses   int64
	failedAnalyses      int64
	fallbacks           int64
	rejected            int64
	fetchFailures       int64
	persistFailures     int64
	tierCounts          map[models.RiskTier]int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		tierCounts: make(map[models.RiskTier]int64),
	}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.completedAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		if event.Tier != "" {
			o.tierCounts[event.Tier]++
		}
		if event.Fallback {
			o.fallbacks++
		}
	case AnalysisFailed:
		o.failedAnalyses++
	case ImageFetchFailed:
		o.fetchFailures++
	case ImageRejected:
		o.rejected++
	case ResultPersistFailed:
		o.persistFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var avgMs float64
	if o.completedAnalyses > 0 {
		avgMs = float64(o.totalProcessingTime.Milliseconds()) / float64(o.completedAnalyses)
	}

	tiers := make(map[models.RiskTier]int64, len(models.AllTiers()))
	for _, tier := range models.AllTiers() {
		tiers[tier] = o.tierCounts[tier]
	}

	return Stats{
		TotalAnalyses:       o.totalAnalyses,
		CompletedAnalyses:   o.completedAnalyses,
		FailedAnalyses:      o.failedAnalyses,
		FallbackAssessments: o.fallbacks,
		RejectedImages:      o.rejected,
		FetchFailures:       o.fetchFailures,
		PersistFailures:     o.persistFailures,
		TierCounts:          tiers,
		AvgProcessingTimeMs: avgMs,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Observers run detached from the request lifetime
	ctx = context.WithoutCancel(ctx)
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
