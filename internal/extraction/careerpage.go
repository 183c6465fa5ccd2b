package extraction

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"letraz-jobboard/internal/ats"
	"letraz-jobboard/internal/relevance"
	"letraz-jobboard/internal/scraper"
	"letraz-jobboard/internal/sink"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

// ExtractCareerPage classifies a company career page, fetches its search
// endpoint and keeps the jobs that match the profile. Pages that match no
// ATS pattern or career-page indicator fail with UnrecognizedPage.
func (e *Engine) ExtractCareerPage(ctx context.Context, req models.CareerPageRequest) (*models.CareerPageResult, error) {
	if err := e.validateCareerPage(req); err != nil {
		return nil, err
	}

	cls := ats.Classify(req.URL)
	if !cls.Known() {
		return nil, utils.NewExtractionError(utils.KindUnrecognizedPage, "", "no ATS or career page pattern matches "+req.URL, nil)
	}

	query := ""
	if len(req.Profile.JobTitles) > 0 {
		query = strings.TrimSpace(req.Profile.JobTitles[0])
	}
	searchURL := cls.SearchURL(query)
	key := limiterKey(cls)

	ctx, span := e.tracer.Start(ctx, "extraction.career_page", trace.WithAttributes(
		attribute.String("ats.type", string(cls.Type)),
		attribute.String("ats.company_id", cls.CompanyID),
	))
	defer span.End()

	logger := e.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"ats":        string(cls.Type),
		"company_id": cls.CompanyID,
		"search_url": searchURL,
	})

	fail := func(err error) (*models.CareerPageResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(utils.KindOf(err)))
		logger.Warn("Career page extraction failed", map[string]interface{}{
			"kind":  string(utils.KindOf(err)),
			"error": err.Error(),
		})
		return nil, err
	}

	if err := e.limiter.Wait(ctx, key, e.careerPageInterval); err != nil {
		return fail(err)
	}

	page, err := e.fetcher.Fetch(ctx, key, searchURL)
	if err != nil {
		e.limiter.RecordFailure(key)
		return fail(err)
	}

	extraction, err := e.extractor.Extract(page.Body, cls.Selectors, scraper.ExtractOptions{
		BaseURL:        searchURL,
		DefaultCompany: cls.CompanyName(),
	})
	if err != nil {
		return fail(err)
	}

	extractedAt := e.now()
	jobs := make([]models.JobRecord, 0, len(extraction.Cards))
	for _, card := range extraction.Cards {
		jobs = append(jobs, models.NewJobRecord(card, string(cls.Type), query, models.MethodCareerPage, extractedAt))
	}
	jobs = Dedup(jobs)

	if profileSet(req.Profile) {
		jobs = relevance.Filter(jobs, req.Profile)
	}

	result := &models.CareerPageResult{
		URL:            req.URL,
		Classification: cls.Model(),
		SearchURL:      searchURL,
		CardsFound:     len(extraction.Cards),
		Skipped:        extraction.Skipped,
		Jobs:           jobs,
		ExtractedAt:    extractedAt,
	}

	logger.Info("Career page extracted", map[string]interface{}{
		"cards_found": result.CardsFound,
		"skipped":     result.Skipped,
		"relevant":    len(jobs),
	})

	runID := utils.GenerateRunID()
	e.deliver(ctx, sink.Batch{
		RunID:  runID,
		Source: sink.SourceCareerPage,
		Metadata: models.RunMetadata{
			RunID:       runID,
			ExtractedAt: extractedAt,
			Boards:      []string{string(cls.Type)},
		},
		Jobs: jobs,
	})

	return result, nil
}

// ClassifyURL reports which ATS, if any, hosts rawURL
func (e *Engine) ClassifyURL(rawURL string) models.Classification {
	return ats.Classify(rawURL).Model()
}

// ValidateURL reports whether rawURL points at one specific posting
func (e *Engine) ValidateURL(rawURL string) models.URLValidationResponse {
	return models.URLValidationResponse{
		URL:                rawURL,
		IsDirectJobPosting: ats.IsDirectJobPostingURL(rawURL),
		ClassificationType: string(ats.Classify(rawURL).Type),
	}
}

// limiterKey spaces requests per ATS for hosted boards and per host for
// custom pages
func limiterKey(cls ats.Classification) string {
	if cls.Type == ats.Custom && cls.URL != nil {
		return strings.ToLower(cls.URL.Hostname())
	}
	return "ats:" + string(cls.Type)
}

// profileSet is false for an empty profile, in which case every job is kept unscored
func profileSet(p models.CareerProfile) bool {
	return len(p.JobTitles) > 0 || len(p.Industries) > 0
}
