// Package limiter provides the bounded-parallelism primitive used by the
// parallel container strategy: a shared work queue drained by at most a
// fixed number of workers.
package limiter

import (
	"context"
	"sync"
)

// Limiter runs work items under a fixed concurrency bound.
type Limiter struct {
	max int
}

// New creates a limiter with the given worker bound. A bound below one is
// treated as one.
func New(maxConcurrency int) *Limiter {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return &Limiter{max: maxConcurrency}
}

// Max returns the worker bound.
func (l *Limiter) Max() int {
	return l.max
}

// Run drains the items through min(max, len(items)) workers. Each item is
// claimed exactly once: the queue is a channel, so the dequeue is atomic and
// no two workers can take the same item. A worker claims its next item
// immediately after finishing the previous one, keeping the pool saturated
// until the queue is empty. Run blocks until every started worker has
// returned.
//
// When the context is cancelled, workers stop claiming new items; items that
// were already claimed run to completion. The work function is responsible
// for recording its own results and errors.
func (l *Limiter) Run(ctx context.Context, items []string, work func(ctx context.Context, item string)) {
	if len(items) == 0 {
		return
	}

	queue := make(chan string, len(items))
	for _, item := range items {
		queue <- item
	}

	close(queue)

	workers := l.max
	if len(items) < workers {
		workers = len(items)
	}

	var wg sync.WaitGroup

	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()

			for item := range queue {
				if ctx.Err() != nil {
					return
				}

				work(ctx, item)
			}
		}()
	}

	wg.Wait()
}
