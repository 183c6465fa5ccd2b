// Package ats recognises applicant tracking systems and company career pages from their URLs.
package ats

import (
	"net/url"
	"regexp"
	"strings"

	"letraz-jobboard/internal/platforms"
	"letraz-jobboard/pkg/models"
)

// Type identifies the system hosting a career page
type Type string

const (
	Workday         Type = "workday"
	Greenhouse      Type = "greenhouse"
	Lever           Type = "lever"
	BambooHR        Type = "bamboohr"
	SmartRecruiters Type = "smartrecruiters"
	Jobvite         Type = "jobvite"
	ICIMS           Type = "icims"
	Ashby           Type = "ashby"
	Custom          Type = "custom"
	Unknown         Type = "unknown"
)

// EndpointBuilder returns the ATS's own search URL for a company board
type EndpointBuilder func(page *url.URL, companyID, query string) string

// Pattern is one entry of the classification table
type Pattern struct {
	Type      Type
	Regexp    *regexp.Regexp
	Selectors platforms.SelectorSet
	Endpoint  EndpointBuilder

	// TenantHost is set when the employer is the first host label
	// (acme.wd5.myworkdayjobs.com) and the capture names a site, not a company.
	TenantHost bool
}

// companyID returns the first non-empty capture group
func (p Pattern) companyID(u string) (string, bool) {
	m := p.Regexp.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	for _, g := range m[1:] {
		if g != "" {
			return g, true
		}
	}
	return "", true
}

// Classification is the result of Classify
type Classification struct {
	Type      Type
	CompanyID string
	URL       *url.URL
	Selectors platforms.SelectorSet
	tenant    string
	endpoint  EndpointBuilder
}

// Known reports whether the page can be extracted
func (c Classification) Known() bool {
	return c.Type != Unknown
}

// SearchURL builds the search endpoint for query. Custom pages are used as-is.
func (c Classification) SearchURL(query string) string {
	switch {
	case c.URL == nil:
		return ""
	case c.endpoint == nil:
		return c.URL.String()
	default:
		return c.endpoint(c.URL, c.CompanyID, query)
	}
}

// CompanyName derives a display name from the tenant, the company
// identifier or the host, in that order
func (c Classification) CompanyName() string {
	id := c.tenant
	if id == "" {
		id = c.CompanyID
	}
	if id == "" && c.URL != nil {
		id = primaryLabel(c.URL.Hostname())
	}
	id = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(id)
	words := strings.Fields(id)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Model converts to the API representation
func (c Classification) Model() models.Classification {
	m := models.Classification{Type: string(c.Type), CompanyID: c.CompanyID, Known: c.Known()}
	if c.Type != Unknown {
		m.Company = c.CompanyName()
	}
	if c.URL != nil {
		m.URL = c.URL.String()
	}
	return m
}

var careerIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/careers?(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)/jobs?(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)/job-openings(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)/work-with-us(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)/join-us(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)/opportunities(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)/openings(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)/positions(?:/|$|\?|#)`),
	regexp.MustCompile(`(?i)^https?://(?:careers|jobs)\.`),
}

// Classify matches rawURL against the known ATS table in order; the first
// match wins. Unmatched URLs with a career-page indicator are Custom,
// everything else is Unknown.
func Classify(rawURL string) Classification {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Classification{Type: Unknown}
	}

	normalized := u.Scheme + "://" + strings.ToLower(u.Host) + u.EscapedPath()
	for _, p := range knownPatterns {
		if id, ok := p.companyID(normalized); ok {
			c := Classification{Type: p.Type, CompanyID: id, URL: u, Selectors: p.Selectors, endpoint: p.Endpoint}
			if p.TenantHost {
				c.tenant = strings.SplitN(strings.ToLower(u.Hostname()), ".", 2)[0]
			}
			return c
		}
	}

	full := normalized
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}
	for _, re := range careerIndicators {
		if re.MatchString(full) {
			return Classification{Type: Custom, URL: u, Selectors: genericSelectors}
		}
	}
	return Classification{Type: Unknown, URL: u}
}

// Patterns returns the ATS table in match order
func Patterns() []Pattern {
	return append([]Pattern(nil), knownPatterns...)
}

// primaryLabel returns the registrable label of host: careers.acme.com -> acme
func primaryLabel(host string) string {
	labels := strings.Split(strings.ToLower(host), ".")
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}
	label := labels[len(labels)-2]
	// co.uk style suffixes
	if len(labels) >= 3 && len(label) <= 3 && (label == "co" || label == "com" || label == "org" || label == "ac") {
		label = labels[len(labels)-3]
	}
	return label
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
