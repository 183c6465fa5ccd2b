// Package sink hands extracted jobs to the downstream ingestion service.
package sink

import (
	"context"
	"fmt"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/models"
)

// Batch sources
const (
	SourceBoardSearch = "board_search"
	SourceCareerPage  = "career_page"
)

// Batch is one run's worth of jobs
type Batch struct {
	RunID    string             `json:"runId"`
	Source   string             `json:"source"`
	Metadata models.RunMetadata `json:"metadata"`
	Jobs     []models.JobRecord `json:"jobs"`
}

// Sink receives post-deduplication job batches. A nil error from Deliver is
// the collaborator's acknowledgement.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, batch Batch) error
	Ping(ctx context.Context) error
	Close() error
}

// New builds the sink selected by cfg.Sink.Type
func New(cfg *config.Config, logger logging.Logger) (Sink, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithField("component", "sink")

	switch cfg.Sink.Type {
	case config.SinkNone, "":
		return Noop{}, nil
	case config.SinkLog:
		return NewLogSink(logger), nil
	case config.SinkRedis:
		return NewRedisSink(cfg, logger), nil
	case config.SinkNATS:
		return DialNATS(cfg, logger)
	case config.SinkGRPC:
		return DialCallback(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Sink.Type)
	}
}

// Noop discards every batch
type Noop struct{}

func (Noop) Name() string                         { return config.SinkNone }
func (Noop) Deliver(context.Context, Batch) error { return nil }
func (Noop) Ping(context.Context) error           { return nil }
func (Noop) Close() error                         { return nil }

// LogSink writes a summary line per batch and a debug line per job
type LogSink struct {
	logger logging.Logger
}

// NewLogSink creates a sink that only logs
func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return config.SinkLog }

func (s *LogSink) Deliver(ctx context.Context, batch Batch) error {
	logger := s.logger.WithContext(ctx)
	logger.Info("Batch delivered", map[string]interface{}{
		"run_id": batch.RunID,
		"source": batch.Source,
		"jobs":   len(batch.Jobs),
	})
	for _, job := range batch.Jobs {
		logger.Debug("Job", map[string]interface{}{
			"run_id":   batch.RunID,
			"platform": job.SourcePlatform,
			"title":    job.Title,
			"company":  job.Company,
			"url":      job.URL,
		})
	}
	return nil
}

func (s *LogSink) Ping(context.Context) error { return nil }
func (s *LogSink) Close() error               { return nil }
