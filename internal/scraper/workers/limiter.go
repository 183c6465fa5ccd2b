package workers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

// PlatformLimiter spaces requests to one platform by a fixed interval
type PlatformLimiter struct {
	limiter     *rate.Limiter
	interval    time.Duration
	lastRequest time.Time
	requests    int64
	failures    int64
	mu          sync.RWMutex
}

// RateLimiter owns one PlatformLimiter per key. The map lock is held only for
// lookup, so a wait on one platform never blocks another.
type RateLimiter struct {
	limiters map[string]*PlatformLimiter
	mu       sync.Mutex
	logger   logging.Logger
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*PlatformLimiter),
		logger:   logging.GetGlobalLogger().WithField("component", "rate_limiter"),
	}
}

// Wait blocks until key may issue its next request: the first request is
// immediate, later ones wait until interval has elapsed since the previous one.
func (rl *RateLimiter) Wait(ctx context.Context, key string, interval time.Duration) error {
	pl := rl.getPlatformLimiter(key, interval)

	start := time.Now()
	if err := pl.limiter.Wait(ctx); err != nil {
		return utils.NewExtractionError(utils.KindCancelled, key, "rate limit wait aborted", err)
	}

	now := time.Now()
	pl.mu.Lock()
	pl.requests++
	pl.lastRequest = now
	pl.mu.Unlock()

	if waited := now.Sub(start); waited > time.Millisecond {
		rl.logger.Debug("Waited for platform cooldown", map[string]interface{}{
			"platform": key,
			"waited":   utils.FormatDuration(waited),
		})
	}
	return nil
}

// RecordFailure counts a failed request against key
func (rl *RateLimiter) RecordFailure(key string) {
	rl.mu.Lock()
	pl, exists := rl.limiters[normalizeKey(key)]
	rl.mu.Unlock()
	if !exists {
		return
	}
	pl.mu.Lock()
	pl.failures++
	pl.mu.Unlock()
}

// Stats returns a snapshot for every key seen so far, sorted by key
func (rl *RateLimiter) Stats() []models.PlatformStats {
	rl.mu.Lock()
	keys := make([]string, 0, len(rl.limiters))
	for k := range rl.limiters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	limiters := make([]*PlatformLimiter, len(keys))
	for i, k := range keys {
		limiters[i] = rl.limiters[k]
	}
	rl.mu.Unlock()

	stats := make([]models.PlatformStats, len(keys))
	for i, pl := range limiters {
		pl.mu.RLock()
		stats[i] = models.PlatformStats{
			Platform:    keys[i],
			Requests:    pl.requests,
			Failures:    pl.failures,
			LastRequest: pl.lastRequest,
			Interval:    pl.interval.String(),
		}
		pl.mu.RUnlock()
	}
	return stats
}

// getPlatformLimiter gets or creates the limiter for key. A changed interval
// is applied to the existing limiter.
func (rl *RateLimiter) getPlatformLimiter(key string, interval time.Duration) *PlatformLimiter {
	key = normalizeKey(key)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if pl, exists := rl.limiters[key]; exists {
		if pl.interval != interval {
			pl.mu.Lock()
			pl.interval = interval
			pl.mu.Unlock()
			pl.limiter.SetLimit(limitFor(interval))
		}
		return pl
	}

	pl := &PlatformLimiter{
		limiter:  rate.NewLimiter(limitFor(interval), 1),
		interval: interval,
	}
	rl.limiters[key] = pl

	rl.logger.Info("Created platform rate limiter", map[string]interface{}{
		"platform": key,
		"interval": interval.String(),
	})
	return pl
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
