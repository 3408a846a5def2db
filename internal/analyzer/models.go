package analyzer

import (
	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

// AnalysisResult is an alias to the shared models.AnalysisResult
type AnalysisResult = models.AnalysisResult

// skinAccumulator holds running sums over skin-classified samples.
// It is created per analysis and never shared.
type skinAccumulator struct {
	sumR, sumG, sumB, sumBrightness float64
	skinCount                       int
	sampled                         int
}

func (a *skinAccumulator) add(r, g, b float64) {
	a.sumR += r
	a.sumG += g
	a.sumB += b
	a.sumBrightness += (r + g + b) / 3
	a.skinCount++
}

func (a skinAccumulator) empty() bool {
	return a.skinCount == 0
}
