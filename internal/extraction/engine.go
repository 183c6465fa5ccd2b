// Package extraction runs searches across job boards and company career pages.
package extraction

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/internal/platforms"
	"letraz-jobboard/internal/scraper"
	"letraz-jobboard/internal/scraper/workers"
	"letraz-jobboard/internal/sink"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

const sinkTimeout = 15 * time.Second

// Engine aggregates per-platform extraction into one result
type Engine struct {
	registry  *platforms.Registry
	fetcher   scraper.PageFetcher
	extractor scraper.CardExtractor
	limiter   *workers.RateLimiter
	lanes     *workers.LanePool
	sink      sink.Sink
	validate  *validator.Validate
	logger    logging.Logger
	tracer    trace.Tracer
	now       func() time.Time

	defaultBoards      []string
	careerPageInterval time.Duration
	runTimeout         time.Duration
}

// Option configures an Engine
type Option func(*Engine)

// WithLanes processes platforms concurrently on n lanes. n <= 1 keeps the
// sequential loop.
func WithLanes(n int) Option {
	return func(e *Engine) {
		if n > 1 {
			e.lanes = workers.NewLanePool(n)
		} else {
			e.lanes = nil
		}
	}
}

// WithSink hands every result to s
func WithSink(s sink.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l.WithField("component", "extraction") }
}

func WithDefaultBoards(boards []string) Option {
	return func(e *Engine) { e.defaultBoards = boards }
}

func WithCareerPageInterval(d time.Duration) Option {
	return func(e *Engine) { e.careerPageInterval = d }
}

// WithRunTimeout bounds each Extract call; zero disables the bound
func WithRunTimeout(d time.Duration) Option {
	return func(e *Engine) { e.runTimeout = d }
}

func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine from its collaborators
func New(registry *platforms.Registry, fetcher scraper.PageFetcher, extractor scraper.CardExtractor, limiter *workers.RateLimiter, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		fetcher:   fetcher,
		extractor: extractor,
		limiter:   limiter,
		sink:      sink.Noop{},
		validate:  NewValidator(),
		logger:    logging.GetGlobalLogger().WithField("component", "extraction"),
		tracer:    otel.Tracer("letraz-jobboard/extraction"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.limiter == nil {
		e.limiter = workers.NewRateLimiter()
	}
	return e
}

// NewFromConfig wires the HTTP fetcher, selector extractor and limiter from cfg
func NewFromConfig(cfg *config.Config, registry *platforms.Registry, s sink.Sink, logger logging.Logger) *Engine {
	return New(
		registry,
		scraper.NewHTTPFetcher(scraper.FetcherConfigFrom(cfg)),
		scraper.NewSelectorExtractor(),
		workers.NewRateLimiter(),
		WithLogger(logger),
		WithSink(s),
		WithLanes(cfg.Extraction.ParallelLanes),
		WithDefaultBoards(cfg.Extraction.DefaultBoards),
		WithCareerPageInterval(cfg.Extraction.CareerPageInterval),
		WithRunTimeout(cfg.Extraction.RunTimeout),
	)
}

// platformOutcome is written by exactly one lane
type platformOutcome struct {
	done   bool
	jobs   []models.JobRecord
	stat   models.BoardStat
	runErr *models.RunError
}

// Extract runs the search on every requested board. Invalid criteria and
// unknown boards fail the call; every other failure is scoped to its
// platform and reported inside the result.
func (e *Engine) Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResult, error) {
	req.Boards = normalizeBoards(req.Boards)
	req = req.WithDefaults(e.defaultBoards)
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	runID := utils.GenerateRunID()
	started := e.now()

	ctx, span := e.tracer.Start(ctx, "extraction.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.StringSlice("run.boards", req.Boards),
	))
	defer span.End()

	logger := e.logger.WithContext(ctx).WithField("run_id", runID)
	logger.Info("Extraction run started", map[string]interface{}{
		"job_title": req.JobTitle,
		"location":  req.Location,
		"boards":    req.Boards,
		"max_jobs":  req.MaxJobs,
	})

	outcomes := make([]platformOutcome, len(req.Boards))
	task := func(ctx context.Context, i int) {
		outcomes[i] = e.extractPlatform(ctx, logger, req.Boards[i], req)
	}

	if e.lanes != nil {
		e.lanes.Run(ctx, len(req.Boards), task)
	} else {
		for i := range req.Boards {
			if ctx.Err() != nil {
				break
			}
			task(ctx, i)
		}
	}

	result := &models.ExtractResult{
		BoardStats: make(map[string]models.BoardStat, len(req.Boards)),
		Errors:     []models.RunError{},
		Metadata: models.RunMetadata{
			RunID:          runID,
			ExtractedAt:    started,
			SearchCriteria: req,
			Boards:         req.Boards,
		},
	}

	// merged in request order so the first occurrence is the same in both modes
	var all []models.JobRecord
	for i, board := range req.Boards {
		out := outcomes[i]
		if !out.done {
			out = e.cancelledOutcome(board, ctx.Err())
		}
		if out.runErr != nil {
			result.Errors = append(result.Errors, *out.runErr)
			if out.runErr.Kind == string(utils.KindCancelled) {
				result.Metadata.Partial = true
			}
		}
		result.BoardStats[board] = out.stat
		all = append(all, out.jobs...)
	}

	unique := Dedup(all)
	result.TotalFound = len(unique)
	result.Jobs = Cap(unique, req.MaxJobs)
	result.Metadata.Duration = utils.FormatDuration(e.now().Sub(started))

	span.SetAttributes(
		attribute.Int("run.total_found", result.TotalFound),
		attribute.Int("run.errors", len(result.Errors)),
	)
	logger.Info("Extraction run finished", map[string]interface{}{
		"total_found": result.TotalFound,
		"returned":    len(result.Jobs),
		"duplicates":  len(all) - len(unique),
		"errors":      len(result.Errors),
		"partial":     result.Metadata.Partial,
		"duration":    result.Metadata.Duration,
	})

	e.deliver(ctx, sink.Batch{
		RunID:    runID,
		Source:   sink.SourceBoardSearch,
		Metadata: result.Metadata,
		Jobs:     result.Jobs,
	})

	return result, nil
}

func (e *Engine) extractPlatform(ctx context.Context, logger logging.Logger, board string, req models.ExtractRequest) platformOutcome {
	ctx, span := e.tracer.Start(ctx, "extraction.platform", trace.WithAttributes(attribute.String("platform", board)))
	defer span.End()

	logger = logger.WithField("platform", board)

	fail := func(err error) platformOutcome {
		kind := utils.KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		logger.Warn("Platform extraction failed", map[string]interface{}{
			"kind":  string(kind),
			"error": err.Error(),
		})
		return platformOutcome{
			done: true,
			stat: models.BoardStat{
				Success:   false,
				Error:     err.Error(),
				ErrorKind: string(kind),
				Method:    models.MethodHTTPSelectors,
			},
			runErr: &models.RunError{
				Platform:  board,
				Kind:      string(kind),
				Error:     err.Error(),
				Timestamp: e.now(),
			},
		}
	}

	platform, err := e.registry.Get(board)
	if err != nil {
		return fail(err)
	}

	if err := e.limiter.Wait(ctx, board, platform.RateLimitInterval); err != nil {
		return fail(err)
	}

	searchURL := platform.SearchURL(req.JobTitle, req.Location)
	page, err := e.fetcher.Fetch(ctx, board, searchURL)
	if err != nil {
		e.limiter.RecordFailure(board)
		return fail(err)
	}

	extraction, err := e.extractor.Extract(page.Body, platform.Selectors, scraper.ExtractOptions{BaseURL: platform.BaseURL})
	if err != nil {
		return fail(err)
	}

	extractedAt := e.now()
	jobs := make([]models.JobRecord, 0, len(extraction.Cards))
	for _, card := range extraction.Cards {
		jobs = append(jobs, models.NewJobRecord(card, board, req.JobTitle, models.MethodHTTPSelectors, extractedAt))
	}

	span.SetAttributes(attribute.Int("jobs_found", len(jobs)), attribute.Int("skipped", extraction.Skipped))
	if extraction.Skipped > 0 {
		logger.Debug("Cards skipped for missing title or company", map[string]interface{}{"skipped": extraction.Skipped})
	}
	logger.Info("Platform extraction succeeded", map[string]interface{}{
		"jobs_found":    len(jobs),
		"skipped":       extraction.Skipped,
		"card_selector": extraction.CardSelector,
		"attempts":      page.Attempts,
	})

	return platformOutcome{
		done: true,
		jobs: jobs,
		stat: models.BoardStat{
			JobsFound: len(jobs),
			Skipped:   extraction.Skipped,
			Success:   true,
			Method:    models.MethodHTTPSelectors,
		},
	}
}

// cancelledOutcome records a platform the run never reached
func (e *Engine) cancelledOutcome(board string, cause error) platformOutcome {
	err := utils.NewExtractionError(utils.KindCancelled, board, "run ended before platform was processed", cause)
	return platformOutcome{
		done: true,
		stat: models.BoardStat{
			Error:     err.Error(),
			ErrorKind: string(utils.KindCancelled),
			Method:    models.MethodHTTPSelectors,
		},
		runErr: &models.RunError{
			Platform:  board,
			Kind:      string(utils.KindCancelled),
			Error:     err.Error(),
			Timestamp: e.now(),
		},
	}
}

// deliver hands the batch to the sink. Failures are logged only; the caller's
// result does not change.
func (e *Engine) deliver(ctx context.Context, batch sink.Batch) {
	if e.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	if err := e.sink.Deliver(ctx, batch); err != nil {
		e.logger.WithContext(ctx).Error("Sink delivery failed", map[string]interface{}{
			"run_id": batch.RunID,
			"sink":   e.sink.Name(),
			"jobs":   len(batch.Jobs),
			"error":  err.Error(),
		})
	}
}

// Platforms lists the registry in name order
func (e *Engine) Platforms() []models.PlatformInfo {
	names := e.registry.Names()
	out := make([]models.PlatformInfo, 0, len(names))
	for _, name := range names {
		p, err := e.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, models.PlatformInfo{
			Name:              p.Name,
			BaseURL:           p.BaseURL,
			RateLimitInterval: p.RateLimitInterval.String(),
			PreferHTTP:        p.PreferHTTP,
		})
	}
	return out
}

// Stats reports limiter counters per platform and career-page host
func (e *Engine) Stats() []models.PlatformStats {
	return e.limiter.Stats()
}

// Sink exposes the configured sink for readiness checks
func (e *Engine) Sink() sink.Sink {
	return e.sink
}
