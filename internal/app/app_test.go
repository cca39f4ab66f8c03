package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/config"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{}

	st, err := OpenStore(context.Background(), cfg, slog.Default(), true)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, st)

	_, err = OpenStore(context.Background(), cfg, slog.Default(), false)
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestFetcherConfig(t *testing.T) {
	cfg := &config.Config{
		HTTPMaxConns:       40,
		HTTPMaxIdle:        5,
		FetchAttempts:      2,
		InsecureTLSDomains: []string{"nchmf.gov.vn"},
	}
	fc := FetcherConfig(cfg, 7*time.Second)
	assert.Equal(t, 7*time.Second, fc.Timeout)
	assert.Equal(t, 40, fc.MaxConns)
	assert.Equal(t, 5, fc.MaxIdle)
	assert.Equal(t, 2, fc.Attempts)
	assert.Equal(t, []string{"nchmf.gov.vn"}, fc.InsecureHosts)
	assert.Positive(t, fc.Backoff)
}

func TestNewIngestion(t *testing.T) {
	dir := t.TempDir()
	sources := filepath.Join(dir, "sources.json")
	require.NoError(t, os.WriteFile(sources, []byte(`{"sources": [
		{"name": "VnExpress", "domain": "vnexpress.net", "primary_rss": "https://vnexpress.net/rss/thoi-su.rss", "trusted": true}
	]}`), 0o600))

	cfg := &config.Config{
		SourcesFile:   sources,
		FeedStateFile: filepath.Join(dir, "feed_state.json"),
		LogDir:        filepath.Join(dir, "logs"),
		HTTPMaxConns:  4,
		HTTPMaxIdle:   2,
		FetchAttempts: 1,
		FetchTimeout:  time.Second,
		EnrichTimeout: time.Second,
		DedupWindow:   24 * time.Hour,
		EventWindow:   48 * time.Hour,
	}
	in, err := NewIngestion(cfg, store.NewMemory(), slog.Default(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	defer in.Close(slog.Default())

	require.NotNil(t, in.Pipeline)
	assert.Nil(t, in.NATS)
	assert.Len(t, in.Catalog.Sources(), 1)
	assert.DirExists(t, cfg.LogDir)
}

func TestNewIngestion_MissingCatalogue(t *testing.T) {
	cfg := &config.Config{SourcesFile: filepath.Join(t.TempDir(), "absent.json")}
	_, err := NewIngestion(cfg, store.NewMemory(), slog.Default(), observability.NewMetricsForTesting())
	assert.Error(t, err)
}
