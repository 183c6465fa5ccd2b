package scraper

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/utils"
)

// FetcherConfig bounds a fetch: per-attempt timeout, attempt count and backoff window
type FetcherConfig struct {
	Timeout          time.Duration
	MaxAttempts      int
	BackoffMin       time.Duration
	BackoffMax       time.Duration
	RateLimitPenalty time.Duration
	MaxBodyBytes     int64
	UserAgents       []string
}

// FetcherConfigFrom reads the extraction section of the service config
func FetcherConfigFrom(cfg *config.Config) FetcherConfig {
	return FetcherConfig{
		Timeout:          cfg.Extraction.RequestTimeout,
		MaxAttempts:      cfg.Extraction.MaxAttempts,
		BackoffMin:       cfg.Extraction.BackoffMin,
		BackoffMax:       cfg.Extraction.BackoffMax,
		RateLimitPenalty: cfg.Extraction.RateLimitPenalty,
		MaxBodyBytes:     cfg.Extraction.MaxBodyBytes,
		UserAgents:       cfg.Extraction.UserAgents,
	}
}

// Page is a successfully fetched document
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Attempts   int
}

// HTTPFetcher issues browser-like GET requests with bounded retries
type HTTPFetcher struct {
	client *http.Client
	config FetcherConfig
	logger logging.Logger
	uaNext atomic.Uint64
}

// NewHTTPFetcher creates a fetcher whose transport is traced with otelhttp
func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = cfg.BackoffMin
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = config.DefaultUserAgents
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 << 20
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config: cfg,
		logger: logging.GetGlobalLogger().WithField("component", "fetcher"),
	}
}

// Fetch retrieves url, retrying network failures, 429 and 5xx responses
func (f *HTTPFetcher) Fetch(ctx context.Context, platform, url string) (*Page, error) {
	var lastErr error

	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		page, err := f.fetchOnce(ctx, platform, url)
		if err == nil {
			page.Attempts = attempt
			return page, nil
		}
		lastErr = err

		kind := utils.KindOf(err)
		if !utils.IsRetryable(kind) || attempt == f.config.MaxAttempts {
			break
		}

		backoff := f.backoff()
		if kind == utils.KindRateLimited {
			backoff += f.config.RateLimitPenalty
		}

		f.logger.Warn("Fetch failed, retrying", map[string]interface{}{
			"platform": platform,
			"attempt":  attempt,
			"kind":     string(kind),
			"backoff":  backoff.String(),
			"error":    err.Error(),
		})

		if err := sleepContext(ctx, backoff); err != nil {
			return nil, utils.NewExtractionError(utils.KindCancelled, platform, "cancelled during retry backoff", err)
		}
	}

	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, platform, url string) (*Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.NewExtractionError(utils.KindUnexpectedStatus, platform, "invalid request url", err)
	}
	f.setBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, utils.NewExtractionError(utils.KindCancelled, platform, "request cancelled", ctx.Err())
		}
		return nil, utils.NewExtractionError(utils.KindNetwork, platform, "request failed", err)
	}
	defer resp.Body.Close()

	if kind, failed := ClassifyStatus(resp.StatusCode); failed {
		// drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &utils.ExtractionError{
			Kind:       kind,
			Platform:   platform,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, utils.NewExtractionError(utils.KindCancelled, platform, "read cancelled", ctx.Err())
		}
		return nil, utils.NewExtractionError(utils.KindNetwork, platform, "failed to read body", err)
	}

	return &Page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// ClassifyStatus maps an HTTP status onto an error kind; failed is false for 2xx/3xx
func ClassifyStatus(status int) (kind utils.ErrorKind, failed bool) {
	switch {
	case status < 400:
		return "", false
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return utils.KindAccessDenied, true
	case status == http.StatusTooManyRequests:
		return utils.KindRateLimited, true
	case status >= 500:
		return utils.KindUpstreamUnavailable, true
	default:
		return utils.KindUnexpectedStatus, true
	}
}

func (f *HTTPFetcher) setBrowserHeaders(req *http.Request) {
	ua := f.config.UserAgents[f.uaNext.Add(1)%uint64(len(f.config.UserAgents))]

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
}

// backoff picks a uniformly random wait in [BackoffMin, BackoffMax]
func (f *HTTPFetcher) backoff() time.Duration {
	span := f.config.BackoffMax - f.config.BackoffMin
	if span <= 0 {
		return f.config.BackoffMin
	}
	return f.config.BackoffMin + rand.N(span+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ PageFetcher = (*HTTPFetcher)(nil)
