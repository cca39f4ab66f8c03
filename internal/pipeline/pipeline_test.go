package pipeline_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/catalog"
	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/ingest"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/pipeline"
	"github.com/couchcryptid/vn-hazard-radar/internal/reviewlog"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// --- mocks ---

type mockPublisher struct {
	batches [][]domain.EventChange
	err     error
}

func (m *mockPublisher) Publish(_ context.Context, changes []domain.EventChange) error {
	m.batches = append(m.batches, changes)
	return m.err
}

type mockState struct {
	saves, reloads int
}

func (m *mockState) Save() error   { m.saves++; return nil }
func (m *mockState) Reload() error { m.reloads++; return nil }

type mockEnricher struct {
	calls int
}

func (m *mockEnricher) Enrich(_ context.Context, a *domain.Article) error {
	m.calls++
	if a.Domain == "tuoitre.vn" {
		return errors.New("timeout")
	}
	a.FullText = "Toàn văn bài viết"
	a.ImageURL = "https://cdn.example/bao.jpg"
	return nil
}

// downStore loses its database connection on the first article write.
type downStore struct {
	*store.Memory
}

func (d *downStore) CreateArticle(context.Context, *domain.Article) error {
	return fmt.Errorf("create article: %w", errors.Join(store.ErrUnavailable, errors.New("connection reset")))
}

func (d *downStore) Transaction(ctx context.Context, fn func(store.Store) error) error {
	return d.Memory.Transaction(ctx, func(store.Store) error { return fn(d) })
}

type harness struct {
	p         *pipeline.Pipeline
	store     *store.Memory
	collector *mockCollector
	publisher *mockPublisher
	state     *mockState
	metrics   *observability.Metrics
	logDir    string
}

func newHarness(t *testing.T, st store.Store, opts ...pipeline.Option) *harness {
	t.Helper()
	h := &harness{
		collector: &mockCollector{feeds: feedsByDomain(readFixtures(t))},
		publisher: &mockPublisher{},
		state:     &mockState{},
		metrics:   observability.NewMetricsForTesting(),
		logDir:    t.TempDir(),
	}
	if m, ok := st.(*store.Memory); ok {
		h.store = m
	}
	reviews, err := reviewlog.Open(h.logDir)
	require.NoError(t, err)

	opts = append([]pipeline.Option{
		pipeline.WithPublisher(h.publisher),
		pipeline.WithFeedState(h.state),
		pipeline.WithReviewLog(reviews),
	}, opts...)
	h.p = pipeline.New(catalog.Static(testSources), h.collector, st, slog.Default(), h.metrics, opts...)
	return h
}

func readJSONL(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func eventsOf(t *testing.T, s *store.Memory) []domain.Event {
	t.Helper()
	events, _, err := s.ListEvents(context.Background(), store.EventQuery{Limit: 200})
	require.NoError(t, err)
	return events
}

// --- tests ---

func TestRunCycle_Scenarios(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, store.NewMemory())
	require.Error(t, h.p.CheckReadiness(ctx))

	rep, err := h.p.RunCycle(ctx)
	require.NoError(t, err)
	require.NoError(t, h.p.CheckReadiness(ctx))

	assert.Equal(t, 3, rep.NewArticles)
	assert.Equal(t, 2, rep.Skipped, "price storm and the utm duplicate")
	assert.Equal(t, 2, rep.Created)
	require.Len(t, rep.PerSource, 3)
	assert.Equal(t, "VnExpress", rep.PerSource[0].Source)
	assert.Equal(t, ingest.FeedPrimary, rep.PerSource[0].FeedUsed)

	t.Run("landfall creates the event", func(t *testing.T) {
		a, err := h.store.ArticleByURL(ctx, "vnexpress.net", "https://vnexpress.net/bao-so-3-do-bo-quang-ninh.html")
		require.NoError(t, err)
		assert.Equal(t, domain.HazardStorm, a.HazardType)
		assert.Equal(t, "Quảng Ninh", a.Province)
		assert.Equal(t, domain.StatusApproved, a.Status)
		require.NotNil(t, a.Deaths)
		require.NotNil(t, a.Injured)
		assert.Equal(t, 2, *a.Deaths)
		assert.Equal(t, 4, *a.Injured)
		require.NotNil(t, a.EventID)

		ev, err := h.store.GetEvent(ctx, *a.EventID)
		require.NoError(t, err)
		assert.Equal(t, "storm|Quảng Ninh|202409070800", ev.Key)
	})

	t.Run("damage report joins the same event", func(t *testing.T) {
		a, err := h.store.ArticleByURL(ctx, "tuoitre.vn", "https://tuoitre.vn/bao-so-3-quang-ninh-thiet-hai.htm")
		require.NoError(t, err)
		require.NotNil(t, a.EventID)

		ev, err := h.store.GetEvent(ctx, *a.EventID)
		require.NoError(t, err)
		assert.Equal(t, "storm|Quảng Ninh|202409070800", ev.Key)
		assert.Equal(t, 2, ev.SourcesCount)
		assert.InDelta(t, 0.95, ev.Confidence, 1e-9)
		require.NotNil(t, ev.DamageBillionVND)
		assert.InDelta(t, 500, *ev.DamageBillionVND, 1e-9)
	})

	t.Run("price storm is rejected", func(t *testing.T) {
		_, err := h.store.ArticleByURL(ctx, "dantri.com.vn", "https://dantri.com.vn/kinh-doanh/bao-gia.htm")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("flash flood with duplicate tracking link", func(t *testing.T) {
		a, err := h.store.ArticleByURL(ctx, "dantri.com.vn", "https://dantri.com.vn/lu-quet-lao-cai.htm")
		require.NoError(t, err)
		assert.Equal(t, domain.HazardFloodLandslide, a.HazardType)
		require.NotNil(t, a.Missing)
		assert.Equal(t, 5, *a.Missing)
		assert.Equal(t, 3, a.RiskLevel)
		assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.DedupDrops.WithLabelValues("url")), 1e-9)
	})

	assert.Len(t, eventsOf(t, h.store), 2)
	require.Len(t, h.publisher.batches, 1)
	assert.Len(t, h.publisher.batches[0], 2)
	for _, ch := range h.publisher.batches[0] {
		assert.True(t, ch.Created)
	}
	assert.Equal(t, 1, h.state.saves)
	assert.InDelta(t, 2, testutil.ToFloat64(h.metrics.EventsCreated), 1e-9)
	assert.InDelta(t, 5, testutil.ToFloat64(h.metrics.ArticlesSeen), 1e-9)
}

func TestRunCycle_SecondRunAddsNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, store.NewMemory())

	_, err := h.p.RunCycle(ctx)
	require.NoError(t, err)
	rep, err := h.p.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, rep.NewArticles)
	assert.Empty(t, rep.Changes)
	assert.Len(t, h.publisher.batches, 1, "nothing to publish")
	assert.Len(t, eventsOf(t, h.store), 2)
}

func TestRunCycle_OnlySelectedDomains(t *testing.T) {
	h := newHarness(t, store.NewMemory())
	rep, err := h.p.RunCycle(context.Background(), "tuoitre.vn")
	require.NoError(t, err)

	require.Len(t, rep.PerSource, 1)
	assert.Equal(t, "Tuổi Trẻ", rep.PerSource[0].Source)
	assert.Equal(t, 1, rep.NewArticles)
}

func TestRunCycle_SourceErrorDoesNotStopOthers(t *testing.T) {
	h := newHarness(t, store.NewMemory())
	h.collector.errs = map[string]error{"vnexpress.net": ingest.ErrNoEntries}
	delete(h.collector.feeds, "vnexpress.net")

	rep, err := h.p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.NewArticles)
	assert.ErrorIs(t, rep.PerSource[0].Err, ingest.ErrNoEntries)

	crawl := readJSONL(t, filepath.Join(h.logDir, reviewlog.CrawlFile))
	require.Len(t, crawl, 1)
	per := crawl[0]["per_source"].([]any)
	assert.Equal(t, ingest.ErrNoEntries.Error(), per[0].(map[string]any)["error"])
	assert.InDelta(t, 1, per[1].(map[string]any)["articles_added"], 1e-9)
}

func TestRunCycle_DecisionLog(t *testing.T) {
	h := newHarness(t, store.NewMemory())
	_, err := h.p.RunCycle(context.Background())
	require.NoError(t, err)

	decisions := readJSONL(t, filepath.Join(h.logDir, reviewlog.DecisionFile))
	require.Len(t, decisions, 5)

	byAction := map[string]int{}
	for _, d := range decisions {
		byAction[d["action"].(string)]++
	}
	assert.Equal(t, map[string]int{"accepted": 3, "skipped": 2}, byAction)

	price := decisions[2]
	assert.Equal(t, "skipped", price["action"])
	assert.Equal(t, "rejected", price["status"])
	assert.Equal(t, "absolute_veto", price["diagnose"].(map[string]any)["reason"])
	assert.Nil(t, price["id"])

	dup := decisions[4]
	assert.Equal(t, "url", dup["dedup"])
}

func TestRunCycle_Enrichment(t *testing.T) {
	enricher := &mockEnricher{}
	h := newHarness(t, store.NewMemory(), pipeline.WithEnricher(enricher))

	rep, err := h.p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.NewArticles, "enrich failures do not drop articles")
	assert.Equal(t, 3, enricher.calls)

	a, err := h.store.ArticleByURL(context.Background(), "vnexpress.net", "https://vnexpress.net/bao-so-3-do-bo-quang-ninh.html")
	require.NoError(t, err)
	assert.Equal(t, "Toàn văn bài viết", a.FullText)

	ev, err := h.store.GetEvent(context.Background(), *a.EventID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/bao.jpg", ev.ImageURL)
}

func TestRunCycle_StoreOutageAborts(t *testing.T) {
	mem := store.NewMemory()
	h := newHarness(t, &downStore{Memory: mem})

	rep, err := h.p.RunCycle(context.Background())
	require.ErrorIs(t, err, store.ErrUnavailable)
	assert.Error(t, h.p.CheckReadiness(context.Background()))
	assert.Equal(t, 0, rep.NewArticles)
	assert.Equal(t, 0, h.state.saves)
	assert.Equal(t, 1, h.state.reloads)
	assert.Empty(t, h.publisher.batches)
	assert.Empty(t, eventsOf(t, mem))

	crawl := readJSONL(t, filepath.Join(h.logDir, reviewlog.CrawlFile))
	require.Len(t, crawl, 1)
	assert.Contains(t, crawl[0]["aborted"], "store unavailable")
}

func TestRunCycle_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, store.NewMemory())
	h.publisher.err = errors.New("broker down")

	rep, err := h.p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.NewArticles)
	assert.Equal(t, 1, h.state.saves)
}

func TestRunCycle_ContextCancelled(t *testing.T) {
	h := newHarness(t, store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.p.RunCycle(ctx)
	require.Error(t, err)
}
