package models

import (
	"strings"
	"time"

	"letraz-jobboard/pkg/utils"
)

// Extraction method tags recorded on every JobRecord
const (
	MethodHTTPSelectors = "http_selectors"
	MethodCareerPage    = "career_page_selectors"
	ExtractorVersion    = "1.2.0"
)

// Category names set on records that pass the relevance filter by title overlap
const CategoryDirectTitleMatch = "direct_title_match"

// RawJobCard is an unvalidated card fresh from HTML parsing.
// Title and Company are mandatory for promotion; every other field may be empty.
type RawJobCard struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Salary      string `json:"salary,omitempty"`
	PostedDate  string `json:"postedDate,omitempty"`
}

// Promotable reports whether the card carries both mandatory fields
func (c RawJobCard) Promotable() bool {
	return c.Title != "" && c.Company != ""
}

// JobRecord is a validated, source-tagged job ready for the ingestion collaborator
type JobRecord struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Salary      string `json:"salary,omitempty"`
	PostedDate  string `json:"postedDate,omitempty"`

	SourcePlatform   string    `json:"sourcePlatform"`
	ExtractedAt      time.Time `json:"extractedAt"`
	SearchQuery      string    `json:"searchQuery"`
	ExtractionMethod string    `json:"extractionMethod"`
	ExtractorVersion string    `json:"extractorVersion"`

	// Set only when relevance filtering ran
	MatchScore  *int   `json:"matchScore,omitempty"`
	MatchReason string `json:"matchReason,omitempty"`
	Category    string `json:"category,omitempty"`
	IsRelevant  *bool  `json:"isRelevant,omitempty"`
}

// NewJobRecord promotes a card into a record tagged with its source.
// LinkedIn job links are reduced to their public /jobs/view/<id> form.
func NewJobRecord(card RawJobCard, platform, query, method string, extractedAt time.Time) JobRecord {
	return JobRecord{
		Title:            card.Title,
		Company:          card.Company,
		Location:         card.Location,
		Description:      card.Description,
		URL:              utils.CanonicalJobURL(card.URL),
		Salary:           card.Salary,
		PostedDate:       card.PostedDate,
		SourcePlatform:   platform,
		ExtractedAt:      extractedAt,
		SearchQuery:      query,
		ExtractionMethod: method,
		ExtractorVersion: ExtractorVersion,
	}
}

// Key is the deduplication identity: lower-cased title and company.
// It is not a persistent database id.
func (j JobRecord) Key() string {
	return strings.ToLower(strings.TrimSpace(j.Title)) + "\x00" + strings.ToLower(strings.TrimSpace(j.Company))
}
