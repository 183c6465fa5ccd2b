package extraction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"letraz-jobboard/internal/ats"
	"letraz-jobboard/internal/scraper"
	"letraz-jobboard/internal/scraper/workers"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

const careerPage = `<html><body><ul>
	<li class="job-item"><h3 class="job-title">Frontend Developer</h3><span class="company">Acme</span><a href="/careers/jobs/101">Apply</a></li>
	<li class="job-item"><h3 class="job-title">Senior Frontend Developer</h3><span class="company">Acme</span><a href="/careers/jobs/102">Apply</a></li>
	<li class="job-item"><h3 class="job-title">Staff Accountant</h3><span class="company">Acme</span><a href="/careers/jobs/103">Apply</a></li>
	<li class="job-item"><span class="company">Acme</span></li>
</ul></body></html>`

func careerEngine(t *testing.T) (*Engine, *recordingSink) {
	t.Helper()
	snk := &recordingSink{}
	fetcher := scraper.NewHTTPFetcher(scraper.FetcherConfig{Timeout: time.Second, MaxAttempts: 1})
	return New(testRegistry(t, "https://boards.example", "indeed"), fetcher, scraper.NewSelectorExtractor(), workers.NewRateLimiter(), WithSink(snk)), snk
}

func TestExtractCareerPageCustom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(careerPage))
	}))
	defer srv.Close()

	engine, snk := careerEngine(t)
	result, err := engine.ExtractCareerPage(context.Background(), models.CareerPageRequest{
		URL: srv.URL + "/careers",
		Profile: models.CareerProfile{
			JobTitles:       []string{"Frontend Developer"},
			ExperienceLevel: models.ExperienceEntry,
		},
	})
	if err != nil {
		t.Fatalf("ExtractCareerPage: %v", err)
	}

	if result.Classification.Type != "custom" || result.SearchURL != srv.URL+"/careers" {
		t.Errorf("classification = %+v, search url %q", result.Classification, result.SearchURL)
	}
	if result.CardsFound != 3 || result.Skipped != 1 {
		t.Errorf("CardsFound = %d, Skipped = %d", result.CardsFound, result.Skipped)
	}
	if len(result.Jobs) != 1 {
		t.Fatalf("jobs = %+v, want only the entry-compatible title match", result.Jobs)
	}

	job := result.Jobs[0]
	if job.Title != "Frontend Developer" || job.URL != srv.URL+"/careers/jobs/101" {
		t.Errorf("job = %+v", job)
	}
	if job.ExtractionMethod != models.MethodCareerPage || job.MatchScore == nil || *job.MatchScore != 100 {
		t.Errorf("job enrichment = %+v", job)
	}
	if len(snk.batches) != 1 || len(snk.batches[0].Jobs) != 1 {
		t.Errorf("sink batches = %+v", snk.batches)
	}
}

func TestExtractCareerPageWithoutProfileKeepsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(careerPage))
	}))
	defer srv.Close()

	engine, _ := careerEngine(t)
	result, err := engine.ExtractCareerPage(context.Background(), models.CareerPageRequest{URL: srv.URL + "/jobs"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Jobs) != 3 {
		t.Errorf("got %d jobs, want 3", len(result.Jobs))
	}
	for _, j := range result.Jobs {
		if j.MatchScore != nil {
			t.Errorf("unfiltered job carries a score: %+v", j)
		}
	}
}

func TestExtractCareerPageErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		url      string
		wantKind utils.ErrorKind
	}{
		{"missing url", "", utils.KindInvalidCriteria},
		{"not a url", "careers at acme", utils.KindInvalidCriteria},
		{"unrecognised page", "https://example.com/about-us", utils.KindUnrecognizedPage},
		{"blocked", srv.URL + "/careers", utils.KindAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, snk := careerEngine(t)
			_, err := engine.ExtractCareerPage(context.Background(), models.CareerPageRequest{URL: tt.url})
			if got := utils.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %q, want %q (err %v)", got, tt.wantKind, err)
			}
			if len(snk.batches) != 0 {
				t.Error("failed extraction delivered a batch")
			}
		})
	}
}

func TestClassifyAndValidateURL(t *testing.T) {
	engine, _ := careerEngine(t)

	cls := engine.ClassifyURL("https://acme.wd5.myworkdayjobs.com/en-US/AcmeCareers")
	if cls.Type != "workday" || cls.CompanyID != "AcmeCareers" || !cls.Known {
		t.Errorf("ClassifyURL = %+v", cls)
	}

	v := engine.ValidateURL("https://boards.greenhouse.io/acme/jobs/4012345")
	if !v.IsDirectJobPosting || v.ClassificationType != "greenhouse" {
		t.Errorf("ValidateURL = %+v", v)
	}
	if v := engine.ValidateURL("https://www.indeed.com/jobs?q=go"); v.IsDirectJobPosting {
		t.Errorf("search page reported as posting: %+v", v)
	}
}

func TestLimiterKey(t *testing.T) {
	if got := limiterKey(ats.Classify("https://jobs.lever.co/acme")); got != "ats:lever" {
		t.Errorf("lever key = %q", got)
	}
	if got := limiterKey(ats.Classify("https://Careers.Example.com/openings")); !strings.HasPrefix(got, "careers.example.com") {
		t.Errorf("custom key = %q", got)
	}
}

func TestExtractCareerPageWorkdayCompanyFromTenant(t *testing.T) {
	body := []byte(`<section data-automation-id="jobResults"><ul>
		<li><h3><a data-automation-id="jobTitle" href="/External/job/Austin/Go-Engineer_R1">Go Engineer</a></h3></li>
		<li><h3><a data-automation-id="jobTitle" href="/External/job/Remote/Data-Analyst_R2">Data Analyst</a></h3></li>
	</ul></section>`)
	fetcher := &fakeFetcher{pages: map[string][]byte{"ats:workday": body}}
	engine := newTestEngine(testRegistry(t, "https://boards.example", "indeed"), fetcher)

	result, err := engine.ExtractCareerPage(context.Background(), models.CareerPageRequest{
		URL: "https://acme.wd5.myworkdayjobs.com/en-US/External",
	})
	if err != nil {
		t.Fatalf("ExtractCareerPage: %v", err)
	}

	if result.Classification.CompanyID != "External" || result.Classification.Company != "Acme" {
		t.Errorf("classification = %+v", result.Classification)
	}
	if len(result.Jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(result.Jobs))
	}
	for _, j := range result.Jobs {
		if j.Company != "Acme" {
			t.Errorf("job %q company = %q, want Acme", j.Title, j.Company)
		}
	}
	if got := result.Jobs[0].URL; got != "https://acme.wd5.myworkdayjobs.com/External/job/Austin/Go-Engineer_R1" {
		t.Errorf("url = %q", got)
	}
}
