package access

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
)

// Job pairs one trajectory with one site.
type Job struct {
	Trajectory *propagation.Trajectory
	Start      time.Time
	Site       Site
}

// JobResult holds the passes of one Job, or the reason it did not run.
type JobResult struct {
	NORADID int
	Site    string
	Passes  []Pass
	Err     error
}

// Batch evaluates independent (trajectory, site) jobs concurrently, at most
// workers at a time (runtime.NumCPU() when workers ≤ 0). Results are
// index-aligned with jobs. Jobs not started before ctx is done carry ctx.Err().
func Batch(ctx context.Context, jobs []Job, workers int, opts ...Option) []JobResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]JobResult, len(jobs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		results[i] = JobResult{NORADID: job.Trajectory.NORADID, Site: job.Site.Name}
		if ctx.Err() != nil {
			results[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(idx int, j Job) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx].Err = ctx.Err()
				return
			}

			results[idx].Passes = ComputeAccess(j.Trajectory, j.Start, j.Site, opts...)
		}(i, job)
	}

	wg.Wait()
	return results
}
