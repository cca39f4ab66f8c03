package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
)

func newTestFetcher(t *testing.T) (*Fetcher, *observability.Metrics) {
	t.Helper()
	cfg := DefaultFetcherConfig()
	cfg.Backoff = 0
	cfg.Timeout = 2 * time.Second
	m := observability.NewMetricsForTesting()
	return NewFetcher(cfg, m, slog.Default()), m
}

func TestFetchOutcomes(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantKind     Kind
		wantAttempts int
	}{
		{"ok", []int{200}, KindOK, 1},
		{"retried then ok", []int{503, 502, 200}, KindOK, 3},
		{"transient exhausted", []int{500, 500, 500}, KindTransient, 3},
		{"rate limited then ok", []int{429, 200}, KindOK, 2},
		{"not found is permanent", []int{404}, KindPermanent, 1},
		{"not modified", []int{304}, KindNotModified, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				i := int(calls.Add(1)) - 1
				w.WriteHeader(tt.statuses[min(i, len(tt.statuses)-1)])
			}))
			defer srv.Close()

			f, m := newTestFetcher(t)
			res := f.Fetch(context.Background(), srv.URL, Validator{})

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantAttempts, res.Attempts)
			assert.Equal(t, tt.wantAttempts, int(calls.Load()))
			assert.InDelta(t, 1, testutil.ToFloat64(m.FetchRequests.WithLabelValues(tt.wantKind.String())), 1e-9)

			switch tt.wantKind {
			case KindOK:
				assert.NoError(t, res.Err)
			case KindNotModified:
				assert.ErrorIs(t, res.Err, ErrNotModified)
			default:
				var fe *FetchError
				require.True(t, errors.As(res.Err, &fe))
				assert.Equal(t, tt.wantKind, fe.Kind)
			}
		})
	}
}

func TestFetchConditionalGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Sat, 07 Sep 2024 08:00:00 GMT")
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t)
	first := f.Fetch(context.Background(), srv.URL, Validator{})
	require.Equal(t, KindOK, first.Kind)
	assert.Equal(t, []byte("body"), first.Body)
	assert.Equal(t, `"v1"`, first.ETag)
	assert.Equal(t, "Sat, 07 Sep 2024 08:00:00 GMT", first.LastModified)

	second := f.Fetch(context.Background(), srv.URL, Validator{ETag: first.ETag, LastModified: first.LastModified})
	assert.Equal(t, KindNotModified, second.Kind)
	assert.Empty(t, second.Body)
}

func TestFetchRotatesUserAgent(t *testing.T) {
	var (
		mu     sync.Mutex
		agents = map[string]bool{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents[r.Header.Get("User-Agent")] = true
		mu.Unlock()
		assert.Contains(t, r.Header.Get("Accept-Language"), "vi")
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t)
	for range len(userAgents) {
		f.Fetch(context.Background(), srv.URL, Validator{})
	}
	assert.Len(t, agents, len(userAgents))
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f, _ := newTestFetcher(t)
	res := f.Fetch(ctx, srv.URL, Validator{})
	assert.Equal(t, KindPermanent, res.Kind)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestInsecureHosts(t *testing.T) {
	cfg := DefaultFetcherConfig()
	cfg.InsecureHosts = []string{"nchmf.gov.vn", " "}
	f := NewFetcher(cfg, observability.NewMetricsForTesting(), slog.Default())

	assert.Same(t, f.insecure, f.clientFor("https://www.nchmf.gov.vn/Kttv/index.html"))
	assert.Same(t, f.insecure, f.clientFor("https://kttv.nchmf.gov.vn/"))
	assert.Same(t, f.client, f.clientFor("https://vnexpress.net/"))
}

func TestFeedStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "feed_state.json")

	s, err := LoadFeedState(path)
	require.NoError(t, err)
	assert.Zero(t, s.Len())

	at := time.Date(2024, 9, 7, 8, 0, 0, 0, time.UTC)
	s.Set("https://vnexpress.net/rss/thoi-su.rss", Validator{ETag: `"abc"`, FetchedAt: at})
	require.NoError(t, s.Save())

	loaded, err := LoadFeedState(path)
	require.NoError(t, err)
	v, ok := loaded.Get("https://vnexpress.net/rss/thoi-su.rss")
	require.True(t, ok)
	assert.Equal(t, `"abc"`, v.ETag)
	assert.True(t, at.Equal(v.FetchedAt))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".feed_state-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp file left behind")
}

func TestFeedStateReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed_state.json")
	s, err := LoadFeedState(path)
	require.NoError(t, err)
	s.Set("https://a/rss", Validator{ETag: `"1"`})
	require.NoError(t, s.Save())

	s.Set("https://b/rss", Validator{ETag: `"2"`})
	require.NoError(t, s.Reload())
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("https://b/rss")
	assert.False(t, ok)
}
