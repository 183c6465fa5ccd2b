package ats

import (
	"net/url"
	"regexp"

	"letraz-jobboard/internal/platforms"
)

// withQuery appends a single search parameter, omitting it for an empty query
func withQuery(base, param, query string) string {
	if query == "" {
		return base
	}
	return base + "?" + url.Values{param: {query}}.Encode()
}

var knownPatterns = []Pattern{
	{
		Type:   Workday,
		Regexp: regexp.MustCompile(`myworkdayjobs\.com/(?:[a-z]{2}-[A-Za-z]{2}/)?([^/?#]+)`),
		Selectors: platforms.SelectorSet{
			JobCard:    []string{"[data-automation-id='jobResults'] li", "li.css-1q2dra3", "section[data-automation-id='jobResults'] li"},
			Title:      []string{"[data-automation-id='jobTitle']", "h3 a", "h3"},
			Company:    []string{"[data-automation-id='company']"},
			Location:   []string{"[data-automation-id='locations'] dd", "[data-automation-id='locations']"},
			URL:        []string{"a[data-automation-id='jobTitle']", "h3 a"},
			PostedDate: []string{"[data-automation-id='postedOn'] dd", "[data-automation-id='postedOn']"},
		},
		Endpoint: func(page *url.URL, companyID, query string) string {
			return withQuery(origin(page)+"/"+companyID, "q", query)
		},
		TenantHost: true,
	},
	{
		Type:   Greenhouse,
		Regexp: regexp.MustCompile(`(?:boards|job-boards)(?:\.eu)?\.greenhouse\.io/([^/?#]+)`),
		Selectors: platforms.SelectorSet{
			JobCard:  []string{"div.opening", "tr.job-post", "section.level-0 .opening"},
			Title:    []string{"a", "p.body--medium", ".job-title"},
			Company:  []string{".company-name"},
			Location: []string{"span.location", "p.body--metadata", ".location"},
			URL:      []string{"a"},
		},
		Endpoint: func(page *url.URL, companyID, _ string) string {
			return origin(page) + "/" + companyID
		},
	},
	{
		Type:   Lever,
		Regexp: regexp.MustCompile(`jobs(?:\.eu)?\.lever\.co/([^/?#]+)`),
		Selectors: platforms.SelectorSet{
			JobCard:     []string{"div.posting", ".postings-group .posting"},
			Title:       []string{"h5[data-qa='posting-name']", ".posting-title h5", "h5"},
			Company:     []string{".company-name"},
			Location:    []string{".posting-categories .location", "span.sort-by-location"},
			Description: []string{".posting-categories .commitment", "span.sort-by-commitment"},
			URL:         []string{"a.posting-title", "a"},
		},
		Endpoint: func(page *url.URL, companyID, _ string) string {
			return origin(page) + "/" + companyID
		},
	},
	{
		Type:   BambooHR,
		Regexp: regexp.MustCompile(`//(?:(?:www\.)?bamboohr\.com/jobs/([a-z0-9-]+)|([a-z0-9-]+)\.bamboohr\.com/(?:jobs|careers))`),
		Selectors: platforms.SelectorSet{
			JobCard:  []string{"li.BambooHR-ATS-Jobs-Item", "[data-testid='job-listing']", ".ResAts__listing"},
			Title:    []string{"a", ".jss-e8"},
			Company:  []string{".BambooHR-ATS-board h2"},
			Location: []string{".BambooHR-ATS-Location", ".ResAts__listing-location"},
			URL:      []string{"a"},
		},
		Endpoint: func(_ *url.URL, companyID, _ string) string {
			return "https://" + companyID + ".bamboohr.com/careers"
		},
	},
	{
		Type:   SmartRecruiters,
		Regexp: regexp.MustCompile(`(?:jobs|careers)\.smartrecruiters\.com/([^/?#]+)`),
		Selectors: platforms.SelectorSet{
			JobCard:  []string{"li.opening-job", ".js-openings-list li", "a.link--block"},
			Title:    []string{"h4.job-title", ".details-title", "h4"},
			Company:  []string{".company-name"},
			Location: []string{"span.job-desc", ".location"},
			URL:      []string{"a.link--block", "a"},
		},
		Endpoint: func(page *url.URL, companyID, query string) string {
			return withQuery(origin(page)+"/"+companyID, "search", query)
		},
	},
	{
		Type:   Jobvite,
		Regexp: regexp.MustCompile(`jobs\.jobvite\.com/(?:careers/)?([^/?#]+)`),
		Selectors: platforms.SelectorSet{
			JobCard:  []string{"tr.jv-job-list-row", "li.jv-job-list", "table.jv-job-list tr"},
			Title:    []string{"td.jv-job-list-name a", ".jv-job-list-name", "a"},
			Company:  []string{".jv-company-name"},
			Location: []string{"td.jv-job-list-location", ".jv-job-list-location"},
			URL:      []string{"td.jv-job-list-name a", "a"},
		},
		Endpoint: func(page *url.URL, companyID, query string) string {
			return withQuery(origin(page)+"/"+companyID+"/search", "q", query)
		},
	},
	{
		Type:   ICIMS,
		Regexp: regexp.MustCompile(`//(?:careers-)?([a-z0-9-]+)\.icims\.com`),
		Selectors: platforms.SelectorSet{
			JobCard:    []string{"div.iCIMS_JobsTable div.row", ".iCIMS_JobListingRow", "li.iCIMS_JobCardItem"},
			Title:      []string{"div.title a h2", ".iCIMS_JobTitle", "a h3"},
			Company:    []string{".iCIMS_Company"},
			Location:   []string{"div.header.left span:not(.sr-only)", ".iCIMS_JobLocation"},
			URL:        []string{"div.title a", "a.iCIMS_Anchor", "a"},
			PostedDate: []string{".iCIMS_JobPostedDate"},
		},
		Endpoint: func(page *url.URL, _, query string) string {
			v := url.Values{"ss": {"1"}}
			if query != "" {
				v.Set("searchKeyword", query)
			}
			return origin(page) + "/jobs/search?" + v.Encode()
		},
	},
	{
		Type:   Ashby,
		Regexp: regexp.MustCompile(`jobs\.ashbyhq\.com/([^/?#]+)`),
		Selectors: platforms.SelectorSet{
			JobCard:  []string{"a[class*='_container_']", "div.ashby-job-posting-brief-list a", "a[href*='/jobs']"},
			Title:    []string{"h3", "[class*='_title_']"},
			Company:  []string{".ashby-company-name"},
			Location: []string{"[class*='_details_'] p", "p"},
			URL:      []string{"a"},
		},
		Endpoint: func(page *url.URL, companyID, _ string) string {
			return origin(page) + "/" + companyID
		},
	},
}

// genericSelectors cover corporate career pages without a recognised ATS
var genericSelectors = platforms.SelectorSet{
	JobCard:     []string{".job-listing", ".job-item", ".job-card", ".career-item", ".position", ".opening", "[class*='job-post']", "li[class*='job']"},
	Title:       []string{".job-title", ".position-title", "h3", "h2", "h4", "a"},
	Company:     []string{".company", ".company-name", "[itemprop='hiringOrganization']"},
	Location:    []string{".location", ".job-location", "[itemprop='jobLocation']", "[class*='location']"},
	Description: []string{".description", ".job-description", ".summary", "p"},
	URL:         []string{"a.job-link", "a[href*='job']", "a[href*='career']", "a"},
	Salary:      []string{".salary", "[class*='salary']", "[itemprop='baseSalary']"},
	PostedDate:  []string{".posted-date", "time", "[class*='date']"},
}
