package service

import (
	"context"
	"fmt"

	apperrors "github.com/anime-shed/anemia-screen-go/internal/errors"
	"github.com/anime-shed/anemia-screen-go/internal/logger"
	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AnalyzeBatch analyses several remote images with bounded concurrency.
// A failing item is reported in its slot and never cancels the others;
// items come back in request order.
func (s *analysisService) AnalyzeBatch(ctx context.Context, identity Identity, refs []string, params AnalysisParams) (*models.BatchAnalysisResponse, error) {
	if len(refs) == 0 {
		return nil, apperrors.NewValidationError("at least one image URL is required", nil)
	}
	if len(refs) > s.cfg.MaxBatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch size %d exceeds the limit of %d", len(refs), s.cfg.MaxBatchSize), nil)
	}
	if _, err := s.resolveOptions(params); err != nil {
		return nil, err
	}

	items := make([]models.BatchItem, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchWorkers)
	for i, ref := range refs {
		g.Go(func() error {
			items[i].URL = ref
			if err := gctx.Err(); err != nil {
				items[i].Error = err.Error()
				return nil
			}

			response, err := s.AnalyzeURL(gctx, identity, ref, params)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = response
			return nil
		})
	}
	// Workers never return errors, so Wait only joins them
	_ = g.Wait()

	response := &models.BatchAnalysisResponse{Items: items}
	for _, item := range items {
		if item.Error != "" {
			response.Failed++
		} else {
			response.Succeeded++
		}
	}

	logger.WithFields(logrus.Fields{
		"user_id":   identity.UserID,
		"items":     len(refs),
		"succeeded": response.Succeeded,
		"failed":    response.Failed,
	}).Info("Batch analysis finished")

	return response, nil
}
