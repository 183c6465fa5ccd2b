package ats

import (
	"net/url"
	"testing"
)

func TestClassifyKnownATS(t *testing.T) {
	tests := []struct {
		url       string
		wantType  Type
		wantID    string
		wantQuery string
	}{
		{"https://acme.wd5.myworkdayjobs.com/en-US/External", Workday, "External", "https://acme.wd5.myworkdayjobs.com/External?q=Go+Engineer"},
		{"https://acme.wd1.myworkdayjobs.com/Careers/job/Austin/Engineer_R1234", Workday, "Careers", "https://acme.wd1.myworkdayjobs.com/Careers?q=Go+Engineer"},
		{"https://boards.greenhouse.io/acme/jobs/4012345", Greenhouse, "acme", "https://boards.greenhouse.io/acme"},
		{"https://jobs.lever.co/initech", Lever, "initech", "https://jobs.lever.co/initech"},
		{"https://globex.bamboohr.com/careers", BambooHR, "globex", "https://globex.bamboohr.com/careers"},
		{"https://www.bamboohr.com/jobs/globex", BambooHR, "globex", "https://globex.bamboohr.com/careers"},
		{"https://jobs.smartrecruiters.com/Hooli", SmartRecruiters, "Hooli", "https://jobs.smartrecruiters.com/Hooli?search=Go+Engineer"},
		{"https://jobs.jobvite.com/umbrella/jobs", Jobvite, "umbrella", "https://jobs.jobvite.com/umbrella/search?q=Go+Engineer"},
		{"https://careers-wayne.icims.com/jobs/intro", ICIMS, "wayne", "https://careers-wayne.icims.com/jobs/search?searchKeyword=Go+Engineer&ss=1"},
		{"https://jobs.ashbyhq.com/stark", Ashby, "stark", "https://jobs.ashbyhq.com/stark"},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantType)+" "+tt.url, func(t *testing.T) {
			c := Classify(tt.url)
			if c.Type != tt.wantType {
				t.Fatalf("Type = %q, want %q", c.Type, tt.wantType)
			}
			if c.CompanyID != tt.wantID {
				t.Errorf("CompanyID = %q, want %q", c.CompanyID, tt.wantID)
			}
			if got := c.SearchURL("Go Engineer"); got != tt.wantQuery {
				t.Errorf("SearchURL = %q, want %q", got, tt.wantQuery)
			}
			if err := c.Selectors.Validate(); err != nil {
				t.Errorf("selector set invalid: %v", err)
			}
		})
	}
}

func TestClassifyCustomAndUnknown(t *testing.T) {
	tests := []struct {
		url  string
		want Type
	}{
		{"https://www.acme.com/careers", Custom},
		{"https://www.acme.com/company/work-with-us/", Custom},
		{"https://careers.acme.com/", Custom},
		{"https://acme.com/join-us", Custom},
		{"https://www.acme.com/about", Unknown},
		{"https://www.acme.com/jobsite-news", Unknown},
		{"not a url", Unknown},
		{"ftp://acme.com/careers", Unknown},
	}

	for _, tt := range tests {
		c := Classify(tt.url)
		if c.Type != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.url, c.Type, tt.want)
		}
	}
}

func TestCustomPageSearchURLIsThePage(t *testing.T) {
	c := Classify("https://www.acme.com/careers?team=eng")
	if got := c.SearchURL("Go"); got != "https://www.acme.com/careers?team=eng" {
		t.Errorf("SearchURL = %q", got)
	}
	if !c.Known() {
		t.Error("custom page should be known")
	}
	if len(c.Selectors.JobCard) == 0 {
		t.Error("custom page needs generic selectors")
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// every known pattern must match its own sample and nothing earlier in the table
	samples := map[Type]string{
		Workday:         "https://x.wd1.myworkdayjobs.com/site",
		Greenhouse:      "https://boards.greenhouse.io/x",
		Lever:           "https://jobs.lever.co/x",
		BambooHR:        "https://x.bamboohr.com/jobs",
		SmartRecruiters: "https://careers.smartrecruiters.com/x",
		Jobvite:         "https://jobs.jobvite.com/x",
		ICIMS:           "https://x.icims.com",
		Ashby:           "https://jobs.ashbyhq.com/x",
	}
	for i, p := range Patterns() {
		sample := samples[p.Type]
		u, _ := url.Parse(sample)
		normalized := u.Scheme + "://" + u.Host + u.EscapedPath()
		for _, earlier := range Patterns()[:i] {
			if _, ok := earlier.companyID(normalized); ok {
				t.Errorf("%s sample matched earlier pattern %s", p.Type, earlier.Type)
			}
		}
		if got := Classify(sample).Type; got != p.Type {
			t.Errorf("Classify(%q) = %s, want %s", sample, got, p.Type)
		}
	}
}

func TestCompanyName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://jobs.lever.co/wayne-enterprises", "Wayne Enterprises"},
		{"https://acme.wd5.myworkdayjobs.com/en-US/External", "Acme"},
		{"https://globex-corp.wd1.myworkdayjobs.com/Careers/job/Austin/Engineer_R1234", "Globex Corp"},
		{"https://careers.acme.co.uk/jobs", "Acme"},
		{"https://www.initech.com/careers", "Initech"},
	}
	for _, tt := range tests {
		if got := Classify(tt.url).CompanyName(); got != tt.want {
			t.Errorf("CompanyName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestWorkdayKeepsSiteAsCompanyID(t *testing.T) {
	c := Classify("https://acme.wd5.myworkdayjobs.com/en-US/External")
	if c.CompanyID != "External" {
		t.Errorf("CompanyID = %q, want the site segment", c.CompanyID)
	}
	if m := c.Model(); m.Company != "Acme" || m.CompanyID != "External" {
		t.Errorf("Model() = %+v", m)
	}
}
