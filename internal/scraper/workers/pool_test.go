package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLanePoolRunsEveryTask(t *testing.T) {
	pool := NewLanePool(3)
	results := make([]int, 10)

	pool.Run(context.Background(), len(results), func(_ context.Context, i int) {
		results[i] = i * i
	})

	for i, v := range results {
		if v != i*i {
			t.Errorf("results[%d] = %d, want %d", i, v, i*i)
		}
	}
	if pool.Processed() != 10 {
		t.Errorf("Processed = %d, want 10", pool.Processed())
	}
}

func TestLanePoolBoundsConcurrency(t *testing.T) {
	pool := NewLanePool(2)
	var active, peak atomic.Int32

	pool.Run(context.Background(), 8, func(_ context.Context, _ int) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
	})

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestLanePoolStopsDispatchOnCancel(t *testing.T) {
	pool := NewLanePool(1)
	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32

	pool.Run(ctx, 100, func(_ context.Context, i int) {
		ran.Add(1)
		if i == 0 {
			cancel()
		}
	})

	if ran.Load() >= 100 {
		t.Errorf("all tasks ran after cancellation")
	}
}

func TestNewLanePoolMinimum(t *testing.T) {
	if NewLanePool(0).Lanes() != 1 {
		t.Error("zero lanes should become one")
	}
}
