package sim

import (
	"context"
	"sync"
)

// Ensemble runs independent drivers concurrently, one per variant.
// Each call to build must return a fully wired driver with its own state;
// drivers share nothing, so no locking is needed.
type Ensemble struct {
	build func(idx int) *Driver
	runs  int
}

func NewEnsemble(runs int, build func(idx int) *Driver) *Ensemble {
	return &Ensemble{build: build, runs: runs}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.runs)
	errs := make([]error, e.runs)

	var wg sync.WaitGroup
	for i := 0; i < e.runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = e.build(idx).Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
