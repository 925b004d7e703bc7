package workers

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Workers runs a set of workers in parallel. A failing worker does not
// cancel the others; Run reports every failure.
type Workers struct {
	workers []Worker
	limit   int
}

// NewWorkers returns a Workers aggregate running at most limit workers at a
// time. A limit of zero or less means no limit.
func NewWorkers(limit int, workers ...Worker) *Workers {
	return &Workers{workers: workers, limit: limit}
}

// Add appends worker to the set.
func (w *Workers) Add(worker Worker) {
	w.workers = append(w.workers, worker)
}

// Len returns the number of workers in the set.
func (w *Workers) Len() int {
	return len(w.workers)
}

// Run starts every worker and blocks until all of them returned. The result
// joins all worker errors in worker order.
func (w *Workers) Run(ctx context.Context) error {
	var g errgroup.Group
	if w.limit > 0 {
		g.SetLimit(w.limit)
	}

	var mu sync.Mutex
	errs := make([]error, len(w.workers))

	for i, worker := range w.workers {
		g.Go(func() error {
			err := worker.Run(ctx)

			mu.Lock()
			errs[i] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
