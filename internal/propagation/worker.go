package propagation

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/metrics"
	"github.com/mcvalenti/BEOMAT/internal/tle"
)

// Result is the outcome for one element set in a batch. Exactly one of
// State or Err is meaningful.
type Result struct {
	NORADID int
	State   StateVector
	Err     error
}

// propagateJob is a unit of work for the worker pool.
type propagateJob struct {
	index int
	es    tle.ElementSet
}

// WorkerPool manages a fixed number of goroutines for parallel propagation.
type WorkerPool struct {
	workers int
	opts    []Option
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
// A non-positive count uses runtime.NumCPU().
func NewWorkerPool(workers int, logger *slog.Logger, opts ...Option) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers: workers,
		opts:    opts,
		logger:  logger,
	}
}

// PropagateBatch propagates every element set to t. The result slice is
// index-aligned with sets. Failures stay in their slot; when ctx is cancelled
// the unprocessed slots carry ctx.Err().
func (wp *WorkerPool) PropagateBatch(ctx context.Context, sets []tle.ElementSet, t time.Time) []Result {
	if len(sets) == 0 {
		return nil
	}

	start := time.Now()
	results := make([]Result, len(sets))
	done := make([]bool, len(sets))
	jobs := make(chan propagateJob, wp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Slots are disjoint per job, so no lock is needed.
				results[job.index] = wp.propagateSingle(job.es, t)
				done[job.index] = true
			}
		}()
	}

feed:
	for i, es := range sets {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- propagateJob{index: i, es: es}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	var ok, failed int
	for i := range results {
		if !done[i] {
			results[i] = Result{NORADID: sets[i].NORADID, Err: ctx.Err()}
		}
		if results[i].Err != nil {
			failed++
			wp.logger.Warn("propagation failed",
				"component", "propagation",
				"norad_id", results[i].NORADID,
				"error", results[i].Err,
			)
			continue
		}
		ok++
	}

	duration := time.Since(start)
	metrics.RecordPropagation(duration, ok, failed)
	wp.logger.Debug("batch propagation complete",
		"component", "propagation",
		"success", ok,
		"errors", failed,
		"duration_ms", duration.Milliseconds(),
	)
	return results
}

func (wp *WorkerPool) propagateSingle(es tle.ElementSet, t time.Time) Result {
	sv, err := Propagate(es, t, wp.opts...)
	return Result{NORADID: es.NORADID, State: sv, Err: err}
}
