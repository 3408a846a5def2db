package strategy

import (
	"fmt"
	"strings"

	"github.com/anime-shed/anemia-screen-go/internal/analyzer"
)

// Mode names accepted by the API and CLI
const (
	ModeStandard = "standard"
	ModeFast     = "fast"
	ModePrecise  = "precise"
)

// AnalysisStrategy derives per-call analyzer options from the configured defaults
type AnalysisStrategy interface {
	Options(defaults analyzer.AnalysisOptions) analyzer.AnalysisOptions
	GetStrategyName() string
}

// StandardAnalysisStrategy uses the configured stride and heatmap setting
type StandardAnalysisStrategy struct{}

// NewStandardAnalysisStrategy creates a new standard analysis strategy
func NewStandardAnalysisStrategy() AnalysisStrategy {
	return &StandardAnalysisStrategy{}
}

// Options returns the defaults unchanged
func (s *StandardAnalysisStrategy) Options(defaults analyzer.AnalysisOptions) analyzer.AnalysisOptions {
	return defaults
}

// GetStrategyName returns the strategy name
func (s *StandardAnalysisStrategy) GetStrategyName() string {
	return ModeStandard
}

// FastAnalysisStrategy samples sparsely and skips the overlay
type FastAnalysisStrategy struct{}

// NewFastAnalysisStrategy creates a new fast analysis strategy
func NewFastAnalysisStrategy() AnalysisStrategy {
	return &FastAnalysisStrategy{}
}

// Options doubles the stride and drops the heatmap
func (s *FastAnalysisStrategy) Options(defaults analyzer.AnalysisOptions) analyzer.AnalysisOptions {
	fast := analyzer.FastOptions()
	if stride := defaults.SampleStride * 2; stride > fast.SampleStride {
		fast.SampleStride = stride
	}
	fast.Random = defaults.Random
	return fast
}

// GetStrategyName returns the strategy name
func (s *FastAnalysisStrategy) GetStrategyName() string {
	return ModeFast
}

// PreciseAnalysisStrategy visits every pixel
type PreciseAnalysisStrategy struct{}

// NewPreciseAnalysisStrategy creates a new precise analysis strategy
func NewPreciseAnalysisStrategy() AnalysisStrategy {
	return &PreciseAnalysisStrategy{}
}

// Options sets stride 1 and keeps the heatmap setting
func (s *PreciseAnalysisStrategy) Options(defaults analyzer.AnalysisOptions) analyzer.AnalysisOptions {
	return defaults.WithStride(1)
}

// GetStrategyName returns the strategy name
func (s *PreciseAnalysisStrategy) GetStrategyName() string {
	return ModePrecise
}

// ForMode resolves a mode name; empty selects the standard strategy
func ForMode(mode string) (AnalysisStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeStandard:
		return NewStandardAnalysisStrategy(), nil
	case ModeFast:
		return NewFastAnalysisStrategy(), nil
	case ModePrecise:
		return NewPreciseAnalysisStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown analysis mode %q", mode)
	}
}
