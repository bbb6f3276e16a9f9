package sim

import (
	"context"
	"sync"

	"github.com/san-kum/fluidsim/internal/metrics"
)

// Ensemble runs independent engines that differ only in seed. Each engine
// lives on its own goroutine, so no world is shared.
type Ensemble struct {
	base      Config
	numRuns   int
	seedStart int64
	metrics   func() []metrics.Metric
}

// NewEnsemble prepares numRuns copies of cfg seeded seedStart,
// seedStart+1, and so on. newMetrics, if set, supplies fresh metrics for
// each run.
func NewEnsemble(cfg Config, numRuns int, seedStart int64, newMetrics func() []metrics.Metric) *Ensemble {
	return &Ensemble{base: cfg, numRuns: numRuns, seedStart: seedStart, metrics: newMetrics}
}

func (e *Ensemble) Run(ctx context.Context, frames int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.base
			cfg.Seed = e.seedStart + int64(idx)
			eng := New(cfg)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					eng.AddMetric(m)
				}
			}
			results[idx], errs[idx] = eng.Run(ctx, frames, nil)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
