// Package ingest collects candidate articles from the source catalogue: feed
// fetching with conditional GET, the per-source fallback chain, the syndicated
// search feed and the HTML list-page scrapers.
package ingest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/vn-hazard-radar/internal/dedup"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
)

// Kind classifies the outcome of a fetch.
type Kind int

const (
	KindOK Kind = iota
	KindNotModified
	KindTransient
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotModified:
		return "not_modified"
	case KindTransient:
		return "transient"
	default:
		return "permanent"
	}
}

var (
	// ErrNotModified reports a 304 answer to a conditional GET. It is a
	// success with no new entries.
	ErrNotModified = errors.New("not modified")
	// ErrNoEntries reports a feed or page that parsed but yielded nothing usable.
	ErrNoEntries = errors.New("no entries")
)

// FetchError describes a failed fetch.
type FetchError struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s: status %d", e.URL, e.Kind, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchResult is the outcome of Fetch. Body is set only for KindOK.
type FetchResult struct {
	Kind         Kind
	URL          string
	Status       int
	Body         []byte
	ETag         string
	LastModified string
	Attempts     int
	Err          error
}

// userAgents is rotated per request.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
}

const maxBody = 8 << 20

// FetcherConfig tunes the HTTP client.
type FetcherConfig struct {
	Timeout       time.Duration
	MaxConns      int
	MaxIdle       int
	Attempts      int
	Backoff       time.Duration
	InsecureHosts []string
}

// DefaultFetcherConfig returns the crawler defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:  10 * time.Second,
		MaxConns: 20,
		MaxIdle:  10,
		Attempts: 3,
		Backoff:  2 * time.Second,
	}
}

// Fetcher performs GET requests with User-Agent rotation, conditional
// headers and linear back-off between attempts.
type Fetcher struct {
	client        *http.Client
	insecure      *http.Client
	insecureHosts []string
	attempts      int
	backoff       time.Duration
	clock         clockwork.Clock
	metrics       *observability.Metrics
	logger        *slog.Logger
	next          atomic.Uint64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithClock replaces the clock used for back-off sleeps.
func WithClock(c clockwork.Clock) FetcherOption {
	return func(f *Fetcher) { f.clock = c }
}

// NewFetcher builds a Fetcher from cfg.
func NewFetcher(cfg FetcherConfig, metrics *observability.Metrics, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   newHTTPClient(cfg, false),
		attempts: max(cfg.Attempts, 1),
		backoff:  cfg.Backoff,
		clock:    clockwork.NewRealClock(),
		metrics:  metrics,
		logger:   logger,
	}
	for _, h := range cfg.InsecureHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			f.insecureHosts = append(f.insecureHosts, h)
		}
	}
	if len(f.insecureHosts) > 0 {
		f.insecure = newHTTPClient(cfg, true)
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func newHTTPClient(cfg FetcherConfig, skipVerify bool) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxConnsPerHost:     cfg.MaxConns,
		MaxIdleConns:        cfg.MaxConns,
		MaxIdleConnsPerHost: cfg.MaxIdle,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if skipVerify {
		// Some government sites serve broken certificate chains.
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: tr}
}

func (f *Fetcher) clientFor(rawURL string) *http.Client {
	if f.insecure == nil {
		return f.client
	}
	host := dedup.Host(rawURL)
	for _, h := range f.insecureHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return f.insecure
		}
	}
	return f.client
}

func (f *Fetcher) userAgent() string {
	n := f.next.Add(1) - 1
	return userAgents[n%uint64(len(userAgents))]
}

// Fetch GETs rawURL. A non-empty validator turns the request into a
// conditional GET. Transient failures are retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, v Validator) FetchResult {
	var res FetchResult
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 && !f.sleep(ctx, time.Duration(attempt-1)*f.backoff) {
			res = FetchResult{Kind: KindPermanent, URL: rawURL, Err: &FetchError{Kind: KindPermanent, URL: rawURL, Err: ctx.Err()}}
			break
		}
		res = f.do(ctx, rawURL, v)
		res.Attempts = attempt
		if res.Kind != KindTransient {
			break
		}
		f.logger.Warn("fetch failed", "url", rawURL, "attempt", attempt, "error", res.Err)
	}
	f.metrics.FetchRequests.WithLabelValues(res.Kind.String()).Inc()
	return res
}

func (f *Fetcher) do(ctx context.Context, rawURL string, v Validator) FetchResult {
	fail := func(k Kind, status int, err error) FetchResult {
		return FetchResult{Kind: k, URL: rawURL, Status: status, Err: &FetchError{Kind: k, URL: rawURL, Status: status, Err: err}}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(KindPermanent, 0, err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en;q=0.8")
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}

	resp, err := f.clientFor(rawURL).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fail(KindPermanent, 0, ctx.Err())
		}
		return fail(KindTransient, 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		_, _ = io.Copy(io.Discard, resp.Body)
		return FetchResult{Kind: KindNotModified, URL: rawURL, Status: resp.StatusCode, Err: ErrNotModified}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case transientStatus(resp.StatusCode):
		_, _ = io.Copy(io.Discard, resp.Body)
		return fail(KindTransient, resp.StatusCode, nil)
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fail(KindPermanent, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fail(KindTransient, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	return FetchResult{
		Kind:         KindOK,
		URL:          resp.Request.URL.String(),
		Status:       resp.StatusCode,
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
}

func transientStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout ||
		code == http.StatusTooEarly || code == http.StatusTooManyRequests
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-f.clock.After(d):
		return true
	}
}
