package features

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/steveyegge/scrub/internal/types"
)

// ExtractAll computes feature sets for every record using up to workers
// concurrent goroutines. Results land in per-index slots, so the output
// order always matches the input order no matter how the extraction
// goroutines are scheduled. Extraction is pure, which is the only
// reason this stage may run unordered; the filter stage that follows
// must not.
func ExtractAll(ctx context.Context, records []types.Record, workers int) ([]types.FeatureSet, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("workers must be positive (got %d)", workers)
	}

	out := make([]types.FeatureSet, len(records))
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	for i := range records {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			defer sem.Release(1)
			out[i] = Extract(records[i].Text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
