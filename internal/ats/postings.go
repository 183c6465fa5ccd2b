package ats

import (
	"net/url"
	"regexp"
	"strings"
)

// Listing and search pages; any match means the URL is not a single posting
var invalidPostingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^/?$`),
	regexp.MustCompile(`(?i)^(?:/[a-z]{2}(?:-[a-z]{2})?)?/(?:jobs?|careers?|job-openings|openings|positions|opportunities|vacancies|work-with-us|join-us)/?$`),
	regexp.MustCompile(`(?i)/search(?:/|$|\?)`),
	regexp.MustCompile(`(?i)/jobs?/(?:categor(?:y|ies)|departments?|locations?|teams?)(?:/|$)`),
}

// Query keys that mark a search result page
var searchQueryKeys = []string{"q", "keywords", "search", "query", "searchkeyword"}

// Paths or query strings identifying one specific posting
var validPostingPatterns = []*regexp.Regexp{
	// numeric id after a job-like keyword: /jobs/123456, /careers/eng/98765
	regexp.MustCompile(`(?i)/(?:jobs?|positions?|careers?|openings?|postings?|vacanc(?:y|ies)|requisitions?|opportunit(?:y|ies))/(?:[^/]+/)*\d{3,}(?:[/-]|$)`),
	// descriptive slug of three or more words: /jobs/senior-backend-engineer
	regexp.MustCompile(`(?i)/(?:jobs?|positions?|careers?|openings?|postings?|role|roles)/(?:[^/]+/)*[a-z0-9]+(?:-[a-z0-9]+){2,}/?$`),
	// requisition numbers
	regexp.MustCompile(`(?i)req-?\d{3,}`),
	regexp.MustCompile(`(?:^|[/_-])J?R\d{4,}(?:$|[/_-])`),
	// board-specific single posting paths
	regexp.MustCompile(`(?i)/viewjob(?:/|$|\?)`),
	regexp.MustCompile(`(?i)/jobs/view/\d+`),
	regexp.MustCompile(`(?i)/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`),
}

// Query keys carrying a posting id
var postingQueryKeys = []string{"gh_jid", "jobid", "job_id", "jk", "currentjobid", "jobreqid"}

// IsDirectJobPostingURL reports whether rawURL points at one specific job
// rather than a listing or search page. Listing patterns are checked first.
func IsDirectJobPostingURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}

	query := lowerKeys(u.Query())
	path := u.EscapedPath()

	for _, re := range invalidPostingPatterns {
		if re.MatchString(path) {
			return false
		}
	}
	if hasNonEmpty(query, searchQueryKeys) && !hasNonEmpty(query, postingQueryKeys) {
		return false
	}

	if hasNonEmpty(query, postingQueryKeys) {
		return true
	}
	for _, re := range validPostingPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func lowerKeys(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			out[strings.ToLower(k)] = vals[0]
		}
	}
	return out
}

func hasNonEmpty(query map[string]string, keys []string) bool {
	for _, k := range keys {
		if strings.TrimSpace(query[k]) != "" {
			return true
		}
	}
	return false
}
