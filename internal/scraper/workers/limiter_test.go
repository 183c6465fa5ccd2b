package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"letraz-jobboard/pkg/utils"
)

func TestWaitSpacesRequestsPerPlatform(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()
	interval := 60 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx, "indeed", interval); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	// first request is immediate, the next two wait a full interval each
	if elapsed := time.Since(start); elapsed < 2*interval-10*time.Millisecond {
		t.Errorf("three requests took %s, want at least ~%s", elapsed, 2*interval)
	}
}

func TestWaitPlatformsAreIndependent(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	if err := rl.Wait(ctx, "linkedin", time.Hour); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		// linkedin is now cooling down for an hour; indeed must not be affected
		_ = rl.Wait(ctx, "indeed", time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("indeed blocked behind linkedin's cooldown")
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	rl := NewRateLimiter()
	if err := rl.Wait(context.Background(), "glassdoor", time.Hour); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx, "glassdoor", time.Hour)
	if utils.KindOf(err) != utils.KindCancelled {
		t.Errorf("KindOf = %v, want Cancelled", utils.KindOf(err))
	}
}

func TestStats(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, p := range []string{"indeed", "Dice", "indeed"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_ = rl.Wait(ctx, p, time.Millisecond)
		}(p)
	}
	wg.Wait()
	rl.RecordFailure("dice")
	rl.RecordFailure("unknown")

	stats := rl.Stats()
	if len(stats) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(stats), stats)
	}
	if stats[0].Platform != "dice" || stats[0].Failures != 1 || stats[0].Requests != 1 {
		t.Errorf("dice stats = %+v", stats[0])
	}
	if stats[1].Platform != "indeed" || stats[1].Requests != 2 {
		t.Errorf("indeed stats = %+v", stats[1])
	}
	if stats[1].LastRequest.IsZero() {
		t.Error("LastRequest not recorded")
	}
}
