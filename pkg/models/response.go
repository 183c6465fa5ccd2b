package models

import "time"

// BoardStat summarises one platform's outcome within a run
type BoardStat struct {
	JobsFound int    `json:"jobsFound"`
	Skipped   int    `json:"skipped"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
	Method    string `json:"method"`
}

// RunError records a platform-scoped failure
type RunError struct {
	Platform  string    `json:"platform"`
	Kind      string    `json:"kind"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// RunMetadata describes the run that produced an ExtractResult
type RunMetadata struct {
	RunID          string         `json:"runId"`
	ExtractedAt    time.Time      `json:"extractedAt"`
	SearchCriteria ExtractRequest `json:"searchCriteria"`
	Boards         []string       `json:"boards"`
	Duration       string         `json:"duration"`
	Partial        bool           `json:"partial,omitempty"`
}

// ExtractResult is the envelope returned for every valid extraction request,
// including runs where every platform failed.
type ExtractResult struct {
	Jobs       []JobRecord          `json:"jobs"`
	BoardStats map[string]BoardStat `json:"boardStats"`
	TotalFound int                  `json:"totalFound"`
	Errors     []RunError           `json:"errors"`
	Metadata   RunMetadata          `json:"metadata"`
}

// Classification is the outcome of matching a career-page URL against known ATS patterns
type Classification struct {
	Type      string `json:"type"`
	CompanyID string `json:"companyId,omitempty"`
	Company   string `json:"company,omitempty"`
	URL       string `json:"url"`
	Known     bool   `json:"known"`
}

// CareerPageResult is returned by the career-page pipeline
type CareerPageResult struct {
	URL            string         `json:"url"`
	Classification Classification `json:"classification"`
	SearchURL      string         `json:"searchUrl"`
	CardsFound     int            `json:"cardsFound"`
	Skipped        int            `json:"skipped"`
	Jobs           []JobRecord    `json:"jobs"`
	ExtractedAt    time.Time      `json:"extractedAt"`
}

// URLValidationResponse reports whether a URL points at one specific posting
type URLValidationResponse struct {
	URL                string `json:"url"`
	IsDirectJobPosting bool   `json:"is_direct_job_posting"`
	ClassificationType string `json:"classification_type"`
}

// PlatformInfo is the public view of a registry entry
type PlatformInfo struct {
	Name              string `json:"name"`
	BaseURL           string `json:"baseUrl"`
	RateLimitInterval string `json:"rateLimitInterval"`
	PreferHTTP        bool   `json:"preferHttp"`
}

// PlatformStats is the limiter's view of one platform
type PlatformStats struct {
	Platform    string    `json:"platform"`
	Requests    int64     `json:"requests"`
	Failures    int64     `json:"failures"`
	LastRequest time.Time `json:"lastRequest,omitempty"`
	Interval    string    `json:"interval"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
