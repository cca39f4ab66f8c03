package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/ingest"
)

type fixtureEntry struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
}

var testSources = []domain.Source{
	{Name: "VnExpress", Domain: "vnexpress.net", Trusted: true, AuthorityLevel: 2},
	{Name: "Tuổi Trẻ", Domain: "tuoitre.vn", Trusted: true, AuthorityLevel: 2},
	{Name: "Dân trí", Domain: "dantri.com.vn", AuthorityLevel: 3},
}

func readFixtures(t *testing.T) []fixtureEntry {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "entries.json"))
	require.NoError(t, err)

	var rows []fixtureEntry
	require.NoError(t, json.Unmarshal(data, &rows))
	return rows
}

// feedsByDomain groups fixture rows into per-source entries in file order.
func feedsByDomain(rows []fixtureEntry) map[string][]ingest.Entry {
	out := make(map[string][]ingest.Entry)
	for _, r := range rows {
		out[r.Source] = append(out[r.Source], ingest.Entry{
			Title:       r.Title,
			URL:         r.URL,
			Summary:     r.Summary,
			PublishedAt: r.PublishedAt,
		})
	}
	return out
}

// mockCollector serves fixed entries per domain.
type mockCollector struct {
	feeds map[string][]ingest.Entry
	errs  map[string]error
	calls int
}

func (m *mockCollector) Collect(_ context.Context, sources []domain.Source) []ingest.SourceResult {
	m.calls++
	out := make([]ingest.SourceResult, 0, len(sources))
	for _, s := range sources {
		res := ingest.SourceResult{Source: s, Entries: m.feeds[s.Domain], Err: m.errs[s.Domain]}
		if res.Err == nil {
			res.FeedUsed = ingest.FeedPrimary
		}
		out = append(out, res)
	}
	return out
}
