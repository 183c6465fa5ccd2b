package workers

import (
	"context"
	"sync"
	"sync/atomic"
)

// LanePool runs indexed tasks on a bounded number of goroutines
type LanePool struct {
	lanes     int
	processed atomic.Int64
}

// NewLanePool creates a pool with at least one lane
func NewLanePool(lanes int) *LanePool {
	if lanes < 1 {
		lanes = 1
	}
	return &LanePool{lanes: lanes}
}

// Lanes returns the configured concurrency
func (p *LanePool) Lanes() int {
	return p.lanes
}

// Processed returns the number of tasks run since creation
func (p *LanePool) Processed() int64 {
	return p.processed.Load()
}

// Run calls task(ctx, i) for every i in [0, n) and returns once all started
// tasks finished. Indices not yet started when ctx ends are skipped; tasks
// must write only to their own slot of any shared result slice.
func (p *LanePool) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	lanes := p.lanes
	if lanes > n {
		lanes = n
	}
	for w := 0; w < lanes; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				task(ctx, i)
				p.processed.Add(1)
			}
		}()
	}

dispatch:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
}
