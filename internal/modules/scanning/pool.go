package scanning

import (
	"context"
	"sync"
)

// DefaultWorkers is used when a non-positive worker count is requested
const DefaultWorkers = 4

// ProgressFunc is called once per finished item, from a single goroutine
type ProgressFunc func(done, total int, last Outcome)

// WorkerPool runs item jobs on a fixed number of goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Workers returns the configured worker count
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

type jobItem struct {
	index int
	path  string
}

type resultItem struct {
	index   int
	outcome Outcome
}

// ProcessBatch applies process to every path and returns the outcomes in input order
func (wp *WorkerPool) ProcessBatch(
	ctx context.Context,
	paths []string,
	process func(ctx context.Context, index int, path string) Outcome,
	progress ProgressFunc,
) []Outcome {
	total := len(paths)
	if total == 0 {
		return []Outcome{}
	}

	jobs := make(chan jobItem, total)
	results := make(chan resultItem, total)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if total < numActualWorkers {
		numActualWorkers = total // Don't spawn more workers than items
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- resultItem{
					index:   job.index,
					outcome: process(ctx, job.index, job.path),
				}
			}
		}()
	}

	for idx, path := range paths {
		jobs <- jobItem{index: idx, path: path}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]Outcome, total)
	done := 0
	for result := range results {
		outcomes[result.index] = result.outcome
		done++
		if progress != nil {
			progress(done, total, result.outcome)
		}
	}

	return outcomes
}
