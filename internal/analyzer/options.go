package analyzer

import "math/rand/v2"

// DefaultSampleStride visits every 4th pixel of the raster
const DefaultSampleStride = 4

// AnalysisOptions provides per-call configuration for the analysis pipeline
type AnalysisOptions struct {
	// SampleStride is the step between visited pixels in row-major order
	SampleStride int

	// RenderHeatmap toggles the cosmetic overlay
	RenderHeatmap bool

	// Random supplies confidence jitter; nil uses the shared generator
	Random RandomSource
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		SampleStride:  DefaultSampleStride,
		RenderHeatmap: true,
	}
}

// FastOptions samples more sparsely and skips the overlay
func FastOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.SampleStride = 8
	opts.RenderHeatmap = false
	return opts
}

// WithStride sets the sampling stride; values below 1 fall back to the default
func (opts AnalysisOptions) WithStride(stride int) AnalysisOptions {
	if stride < 1 {
		stride = DefaultSampleStride
	}
	opts.SampleStride = stride
	return opts
}

// WithoutHeatmap disables overlay rendering
func (opts AnalysisOptions) WithoutHeatmap() AnalysisOptions {
	opts.RenderHeatmap = false
	return opts
}

// WithRandom injects the jitter source, typically a seeded generator in tests
func (opts AnalysisOptions) WithRandom(rnd RandomSource) AnalysisOptions {
	opts.Random = rnd
	return opts
}

// WithSeed uses a deterministic PCG generator for jitter.
// The generator is not safe for concurrent use; do not share the options value across goroutines.
func (opts AnalysisOptions) WithSeed(seed uint64) AnalysisOptions {
	opts.Random = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return opts
}

func (opts AnalysisOptions) stride() int {
	if opts.SampleStride < 1 {
		return DefaultSampleStride
	}
	return opts.SampleStride
}

func (opts AnalysisOptions) random() RandomSource {
	if opts.Random == nil {
		return sharedRandom{}
	}
	return opts.Random
}

// sharedRandom draws from the goroutine-safe top-level generator
type sharedRandom struct{}

func (sharedRandom) Float64() float64 {
	return rand.Float64()
}

// FixedRandom always yields the same jitter value
type FixedRandom float64

func (f FixedRandom) Float64() float64 {
	return float64(f)
}
