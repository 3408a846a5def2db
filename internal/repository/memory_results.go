package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

// memoryResultRepository keeps results in process; used in development and tests
type memoryResultRepository struct {
	mu      sync.RWMutex
	results map[string]*models.AnalysisResult
	byUser  map[string][]string
}

// NewMemoryResultRepository creates an empty in-memory result store
func NewMemoryResultRepository() ResultRepository {
	return &memoryResultRepository{
		results: make(map[string]*models.AnalysisResult),
		byUser:  make(map[string][]string),
	}
}

func (r *memoryResultRepository) Save(ctx context.Context, result *models.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return ErrInvalidResult
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := cloneResult(result)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.results[stored.ID]; !exists && stored.UserID != "" {
		r.byUser[stored.UserID] = append(r.byUser[stored.UserID], stored.ID)
	}
	r.results[stored.ID] = stored
	return nil
}

func (r *memoryResultRepository) Get(ctx context.Context, id string) (*models.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[id]
	if !ok {
		return nil, ErrResultNotFound
	}
	return cloneResult(result), nil
}

func (r *memoryResultRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error) {
	r.mu.RLock()
	ids := r.byUser[userID]
	list := make([]*models.AnalysisResult, 0, len(ids))
	for _, id := range ids {
		list = append(list, cloneResult(r.results[id]))
	}
	r.mu.RUnlock()

	sortNewestFirst(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *memoryResultRepository) Close() error {
	return nil
}

func sortNewestFirst(list []*models.AnalysisResult) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}

// cloneResult copies the slices so callers cannot mutate stored records
func cloneResult(src *models.AnalysisResult) *models.AnalysisResult {
	dst := *src
	dst.Assessment.Recommendations = append([]string(nil), src.Assessment.Recommendations...)
	dst.Assessment.DetailedFindings = append([]string(nil), src.Assessment.DetailedFindings...)
	dst.Assessment.FocusAreas = append([]float64{}, src.Assessment.FocusAreas...)
	dst.QualityIssues = append([]models.QualityIssue(nil), src.QualityIssues...)
	dst.Heatmap = append([]byte(nil), src.Heatmap...)
	if src.Image != nil {
		img := *src.Image
		dst.Image = &img
	}
	return &dst
}
