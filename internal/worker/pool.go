// Package worker provides a bounded worker pool for network-bound batch work.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Pool runs tasks with bounded concurrency. Metadata fetches and liveness
// probes go through a pool so a hung remote host cannot stall a whole batch.
type Pool struct {
	size int
	sem  chan struct{} // Semaphore for bounded concurrency

	totalTasks  atomic.Int64
	totalFailed atomic.Int64
}

// NewPool creates a pool with the given concurrency limit.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be positive")
	}
	return &Pool{
		size: size,
		sem:  make(chan struct{}, size),
	}, nil
}

// Size returns the concurrency limit.
func (p *Pool) Size() int {
	return p.size
}

// Run executes fn for each index in [0,n) with at most Size tasks in flight,
// and blocks until all scheduled tasks finish. Cancellation stops scheduling
// new tasks between items; tasks already running complete normally, so no
// item is left half-processed. Returns ctx.Err() if cancelled.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case p.sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-p.sem }()

			p.totalTasks.Add(1)
			if err := fn(ctx, i); err != nil {
				p.totalFailed.Add(1)
			}
		}(i)
	}

	wg.Wait()
	return nil
}

// Stats returns the total and failed task counts since the pool was created.
func (p *Pool) Stats() (total, failed int64) {
	return p.totalTasks.Load(), p.totalFailed.Load()
}
