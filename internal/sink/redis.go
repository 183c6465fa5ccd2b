package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
)

// streamClient is the subset of *redis.Client the sink uses
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisSink appends one stream entry per job with XADD
type RedisSink struct {
	client streamClient
	stream string
	maxLen int64
	logger logging.Logger
}

// NewRedisSink creates a Redis stream sink from configuration
func NewRedisSink(cfg *config.Config, logger logging.Logger) *RedisSink {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Warn("Invalid redis url, using localhost", map[string]interface{}{"error": err.Error()})
		opts = &redis.Options{Addr: "localhost:6379"}
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout

	return newRedisSink(redis.NewClient(opts), cfg.Sink.RedisStream, cfg.Sink.StreamMaxLen, logger)
}

func newRedisSink(client streamClient, stream string, maxLen int64, logger logging.Logger) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

func (s *RedisSink) Name() string { return config.SinkRedis }

// Deliver stops at the first failed XADD; earlier entries stay in the stream.
func (s *RedisSink) Deliver(ctx context.Context, batch Batch) error {
	for i, job := range batch.Jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to encode job %d: %w", i, err)
		}

		args := &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{
				"run_id":   batch.RunID,
				"source":   batch.Source,
				"platform": job.SourcePlatform,
				"key":      job.Key(),
				"job":      string(payload),
			},
		}
		if s.maxLen > 0 {
			args.MaxLen = s.maxLen
			args.Approx = true
		}

		if err := s.client.XAdd(ctx, args).Err(); err != nil {
			return fmt.Errorf("xadd to %s failed after %d of %d jobs: %w", s.stream, i, len(batch.Jobs), err)
		}
	}

	s.logger.WithContext(ctx).Info("Batch appended to stream", map[string]interface{}{
		"run_id": batch.RunID,
		"stream": s.stream,
		"jobs":   len(batch.Jobs),
	})
	return nil
}

func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
