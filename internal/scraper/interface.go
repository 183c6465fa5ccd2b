package scraper

import (
	"context"

	"letraz-jobboard/internal/platforms"
	"letraz-jobboard/pkg/models"
)

// PageFetcher retrieves raw HTML for one platform request
type PageFetcher interface {
	// Fetch returns the page body or a classified *utils.ExtractionError
	Fetch(ctx context.Context, platform, url string) (*Page, error)
}

// CardExtractor turns a fetched page into job card drafts
type CardExtractor interface {
	Extract(html []byte, selectors platforms.SelectorSet, opts ExtractOptions) (*Extraction, error)
}

// ExtractOptions carries page context for an extraction
type ExtractOptions struct {
	// BaseURL resolves relative hrefs
	BaseURL string
	// DefaultCompany fills cards whose company selectors found nothing.
	// ATS boards host a single employer and rarely repeat its name per card.
	DefaultCompany string
}

// Extraction is the outcome of parsing one page
type Extraction struct {
	Cards []models.RawJobCard
	// Skipped counts cards dropped for missing title or company
	Skipped int
	// CardSelector is the job_card selector that matched, empty when none did
	CardSelector string
}
