// Package concurrent bounds how many delegation runs execute at once.
package concurrent

import (
	"context"
	"sync/atomic"
)

// WorkerPool admits at most maxWorkers concurrent calls to Do.
type WorkerPool struct {
	maxWorkers int
	sem        chan struct{}
	inFlight   atomic.Int64
}

// NewWorkerPool creates a pool; non-positive sizes fall back to 10.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		sem:        make(chan struct{}, maxWorkers),
	}
}

// Do waits for a free slot, then runs fn. It returns ctx.Err() if the context
// ends before a slot frees up.
func (wp *WorkerPool) Do(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.sem <- struct{}{}:
		wp.inFlight.Add(1)
		defer func() {
			wp.inFlight.Add(-1)
			<-wp.sem
		}()
		return fn()
	}
}

// InFlight reports how many calls are currently running.
func (wp *WorkerPool) InFlight() int64 { return wp.inFlight.Load() }

// Size returns the configured concurrency limit.
func (wp *WorkerPool) Size() int { return wp.maxWorkers }
