// Package scheduler runs saved searches on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

// Extractor runs one search; *extraction.Engine satisfies it
type Extractor interface {
	Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResult, error)
}

// Scheduler wraps robfig/cron and runs every saved search on each tick
type Scheduler struct {
	cron      *cron.Cron
	extractor Extractor
	searches  []models.ExtractRequest
	spec      string
	logger    logging.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a scheduler; spec uses cron syntax or descriptors such as "@every 6h"
func New(extractor Extractor, spec string, searches []models.ExtractRequest, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithField("component", "scheduler")

	cronLogger := cronLogAdapter{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		extractor: extractor,
		searches:  searches,
		spec:      spec,
		logger:    logger,
	}
}

// Start registers the job, starts cron and runs one cycle immediately
// without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	id, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) })
	if err != nil {
		s.cancel()
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.cron.Start()

	s.logger.Info("Scheduler started", map[string]interface{}{
		"spec":     s.spec,
		"searches": len(s.searches),
	})

	// through the wrapped job so the first tick skips while this cycle runs
	job := s.cron.Entry(id).WrappedJob
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.Run()
	}()
	return nil
}

// Stop cancels in-flight runs and waits for them to return
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// RunOnce runs every saved search in order. A failed search is logged and
// does not stop the cycle.
func (s *Scheduler) RunOnce(ctx context.Context) {
	cycleID := utils.GenerateRequestID()
	logger := s.logger.WithField("cycle_id", cycleID)
	logger.Info("Scheduled cycle started", map[string]interface{}{"searches": len(s.searches)})

	found := 0
	for _, search := range s.searches {
		if ctx.Err() != nil {
			logger.Warn("Scheduled cycle cancelled")
			return
		}

		result, err := s.extractor.Extract(ctx, search)
		if err != nil {
			logger.Error("Scheduled search rejected", map[string]interface{}{
				"job_title": search.JobTitle,
				"kind":      string(utils.KindOf(err)),
				"error":     err.Error(),
			})
			continue
		}
		found += len(result.Jobs)
		logger.Info("Scheduled search finished", map[string]interface{}{
			"job_title": search.JobTitle,
			"run_id":    result.Metadata.RunID,
			"jobs":      len(result.Jobs),
			"errors":    len(result.Errors),
		})
	}

	logger.Info("Scheduled cycle complete", map[string]interface{}{"jobs": found})
}

// cronLogAdapter routes cron's own logging into the service logger
type cronLogAdapter struct {
	logger logging.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = err.Error()
	a.logger.Error("cron: "+msg, fields)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
