package app

import (
	"context"
	"fmt"

	"riskfusion/domain/frame"
	"riskfusion/ports"

	"golang.org/x/sync/errgroup"
)

// BatchRunner enriches independent batches concurrently. Each batch is
// scored against its own rows only; the shared model is read-only.
type BatchRunner struct {
	service       *FusionService
	maxConcurrent int
}

// NewBatchRunner creates a runner; maxConcurrent below 1 means one at a time.
func NewBatchRunner(service *FusionService, maxConcurrent int) *BatchRunner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &BatchRunner{service: service, maxConcurrent: maxConcurrent}
}

// Run enriches every batch with the same model and options. Results are in
// batch order. The first failure cancels the remaining batches and no
// results are returned.
func (r *BatchRunner) Run(ctx context.Context, batches []*frame.Frame, model ports.RiskModel, opts Options) ([]*FusionResult, error) {
	results := make([]*FusionResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			batchOpts := opts
			if batchOpts.PlaceholderSeed != 0 {
				batchOpts.PlaceholderSeed += int64(i)
			}
			result, err := r.service.EnrichAndTrain(gctx, batch, model, batchOpts)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.service.logger.Info("Enriched %d batches (max %d concurrent)", len(batches), r.maxConcurrent)
	return results, nil
}
