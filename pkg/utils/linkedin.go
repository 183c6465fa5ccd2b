package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// LinkedInURLType represents the type of LinkedIn URL
type LinkedInURLType int

const (
	LinkedInURLTypeUnknown       LinkedInURLType = iota
	LinkedInURLTypeJobView                       // /jobs/view/123
	LinkedInURLTypeJobCollection                 // /jobs/collections/recommended/?currentJobId=123
	LinkedInURLTypeNonJob                        // profiles, company pages, search
)

var (
	linkedInJobView = regexp.MustCompile(`^/jobs/view/(?:[a-z0-9-]+-)?(\d+)/?$`)
	numericID       = regexp.MustCompile(`^\d+$`)
)

// LinkedInURLInfo contains information about a parsed LinkedIn URL
type LinkedInURLInfo struct {
	Type      LinkedInURLType
	JobID     string
	PublicURL string
}

// IsLinkedInURL checks if a URL is a LinkedIn URL
func IsLinkedInURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil || urlStr == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

// ParseLinkedInURL reports the URL type and, for job URLs, the job id.
// ok is false for URLs that are not on LinkedIn.
func ParseLinkedInURL(urlStr string) (info LinkedInURLInfo, ok bool) {
	if !IsLinkedInURL(urlStr) {
		return LinkedInURLInfo{}, false
	}
	u, _ := url.Parse(urlStr)
	path := strings.ToLower(u.Path)

	if m := linkedInJobView.FindStringSubmatch(path); m != nil {
		return newLinkedInJob(LinkedInURLTypeJobView, m[1]), true
	}
	if strings.HasPrefix(path, "/jobs/") {
		if id := u.Query().Get("currentJobId"); numericID.MatchString(id) && strings.HasPrefix(path, "/jobs/collections/") {
			return newLinkedInJob(LinkedInURLTypeJobCollection, id), true
		}
	}
	return LinkedInURLInfo{Type: LinkedInURLTypeNonJob}, true
}

func newLinkedInJob(t LinkedInURLType, id string) LinkedInURLInfo {
	return LinkedInURLInfo{
		Type:      t,
		JobID:     id,
		PublicURL: "https://www.linkedin.com/jobs/view/" + id,
	}
}

// CanonicalJobURL rewrites LinkedIn job links, which carry tracking
// parameters and regional hosts, to the public /jobs/view/<id> form.
// Every other URL is returned unchanged.
func CanonicalJobURL(rawURL string) string {
	info, ok := ParseLinkedInURL(rawURL)
	if !ok || info.PublicURL == "" {
		return rawURL
	}
	return info.PublicURL
}
