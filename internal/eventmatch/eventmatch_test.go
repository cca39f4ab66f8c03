package eventmatch

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

const (
	landfallTitle = "Bão số 3 đổ bộ Quảng Ninh, 2 người chết, 4 người bị thương"
	damageTitle   = "Bão số 3: Quảng Ninh thiệt hại 500 tỷ đồng"
)

var landfall = time.Date(2024, 9, 7, 8, 0, 0, 0, time.UTC)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func newArticle(source, title string, at time.Time) *domain.Article {
	return &domain.Article{
		Source:       source,
		Domain:       source + ".vn",
		Title:        title,
		URL:          "https://" + source + ".vn/" + at.Format("150405"),
		CanonicalURL: "https://" + source + ".vn/" + at.Format("150405") + title,
		PublishedAt:  at,
		HazardType:   domain.HazardStorm,
		Province:     "Quảng Ninh",
		Stage:        domain.StageIncident,
		Status:       domain.StatusApproved,
		IsTrusted:    true,
	}
}

func attach(t *testing.T, m *Matcher, s store.Store, a *domain.Article) Outcome {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateArticle(ctx, a))
	out, err := m.Attach(ctx, s, a)
	require.NoError(t, err)
	return out
}

func TestAttachLandfallScenario(t *testing.T) {
	s := store.NewMemory()
	m := New(slog.Default())

	first := newArticle("vnexpress", landfallTitle, landfall)
	first.Deaths, first.Injured = intPtr(2), intPtr(4)
	out := attach(t, m, s, first)

	require.True(t, out.Created)
	assert.Equal(t, "storm|Quảng Ninh|202409070800", out.Event.Key)
	assert.InDelta(t, 0.90, out.Event.Confidence, 1e-9)
	assert.Equal(t, 1, out.Event.SourcesCount)
	require.NotNil(t, out.Event.Lat)

	second := newArticle("tuoitre", damageTitle, landfall.Add(3*time.Hour))
	second.DamageBillionVND = floatPtr(500)
	out2 := attach(t, m, s, second)

	assert.False(t, out2.Created)
	assert.GreaterOrEqual(t, out2.Similarity, DefaultThreshold)
	ev := out2.Event
	assert.Equal(t, out.Event.ID, ev.ID)
	assert.Equal(t, 2, ev.SourcesCount)
	assert.InDelta(t, 0.95, ev.Confidence, 1e-9)
	assert.Equal(t, landfallTitle, ev.Title)
	require.NotNil(t, ev.DamageBillionVND)
	assert.InDelta(t, 500, *ev.DamageBillionVND, 1e-9)
	require.NotNil(t, ev.Deaths)
	assert.Equal(t, 2, *ev.Deaths)
	assert.Equal(t, landfall, ev.StartedAt)
	assert.Equal(t, landfall.Add(3*time.Hour), ev.LastUpdatedAt)
	assert.True(t, ev.PubliclyVisible())

	stored, err := s.GetArticle(context.Background(), second.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EventID)
	assert.Equal(t, ev.ID, *stored.EventID)
}

func TestAttachCreatesNewEvent(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		at      time.Time
		wantKey string
	}{
		{
			name:    "dissimilar title collides on key",
			title:   "Quảng Ninh: cây đổ hàng loạt",
			at:      landfall,
			wantKey: "storm|Quảng Ninh|202409070800_1",
		},
		{
			name:    "same title outside window",
			title:   landfallTitle,
			at:      landfall.Add(72 * time.Hour),
			wantKey: "storm|Quảng Ninh|202409100800",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory()
			m := New(slog.Default())
			first := attach(t, m, s, newArticle("vnexpress", landfallTitle, landfall))

			out := attach(t, m, s, newArticle("dantri", tt.title, tt.at))
			assert.True(t, out.Created)
			assert.NotEqual(t, first.Event.ID, out.Event.ID)
			assert.Equal(t, tt.wantKey, out.Event.Key)
		})
	}
}

func TestAttachOtherProvince(t *testing.T) {
	s := store.NewMemory()
	m := New(slog.Default())
	first := attach(t, m, s, newArticle("vnexpress", landfallTitle, landfall))

	other := newArticle("dantri", landfallTitle, landfall)
	other.Province = "Hải Phòng"
	out := attach(t, m, s, other)
	assert.True(t, out.Created)
	assert.NotEqual(t, first.Event.ID, out.Event.ID)
}

func TestRebuildAfterRejection(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	m := New(slog.Default())

	first := newArticle("vnexpress", landfallTitle, landfall)
	first.Deaths = intPtr(2)
	out := attach(t, m, s, first)
	second := newArticle("tuoitre", damageTitle, landfall.Add(3*time.Hour))
	second.DamageBillionVND = floatPtr(500)
	attach(t, m, s, second)

	first.Status = domain.StatusRejected
	require.NoError(t, s.UpdateArticle(ctx, first))
	ev, err := m.Rebuild(ctx, s, out.Event.ID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, damageTitle, ev.Title)
	assert.Equal(t, 1, ev.SourcesCount)
	assert.Nil(t, ev.Deaths)
	assert.InDelta(t, 0.90, ev.Confidence, 1e-9)
	assert.Equal(t, landfall.Add(3*time.Hour), ev.StartedAt)

	second.Status = domain.StatusRejected
	require.NoError(t, s.UpdateArticle(ctx, second))
	ev, err = m.Rebuild(ctx, s, out.Event.ID)
	require.NoError(t, err)
	assert.Nil(t, ev)
	_, err = s.GetEvent(ctx, out.Event.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeriveIsOrderIndependent(t *testing.T) {
	m := New(slog.Default())
	a := *newArticle("vnexpress", landfallTitle, landfall)
	a.ID, a.Deaths = 1, intPtr(2)
	a.ImpactDetails = domain.Impact{Deaths: []int{2}}
	b := *newArticle("tuoitre", damageTitle, landfall.Add(time.Hour))
	b.ID, b.Deaths, b.IsTrusted = 2, intPtr(3), false
	b.ImpactDetails = domain.Impact{Deaths: []int{3}}
	c := *newArticle("nld", "Bão số 3 quật đổ hàng nghìn cây xanh", landfall.Add(2*time.Hour))
	c.ID, c.ImageURL = 3, "https://nld.vn/a.jpg"

	var e1, e2 domain.Event
	m.Derive(&e1, []domain.Article{a, b, c})
	m.Derive(&e2, []domain.Article{c, b, a})

	e1.Details.Deaths, e2.Details.Deaths = sortedInts(e1.Details.Deaths), sortedInts(e2.Details.Deaths)
	if diff := cmp.Diff(e1, e2); diff != "" {
		t.Errorf("Derive depends on order (-abc +cba):\n%s", diff)
	}
	assert.Equal(t, 3, *e1.Deaths)
	assert.Equal(t, landfallTitle, e1.Title)
	assert.Equal(t, "https://nld.vn/a.jpg", e1.ImageURL)
}

func sortedInts(in []int) []int {
	out := append([]int(nil), in...)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func TestRepresentativeTitle(t *testing.T) {
	long := *newArticle("vnexpress", landfallTitle, landfall)
	long.ID = 1
	dispatch := *newArticle("baomoi", "Công điện khẩn ứng phó bão số 3", landfall.Add(time.Hour))
	dispatch.ID, dispatch.IsTrusted = 2, false
	early := *newArticle("a", "Bão số 3 gây mưa lớn", landfall.Add(-time.Hour))
	early.ID, early.IsTrusted = 3, false
	late := *newArticle("b", "Bão số 3 gây mưa rất lớn ở Quảng Ninh", landfall.Add(2*time.Hour))
	late.ID, late.IsTrusted = 4, false

	tests := []struct {
		name     string
		children []domain.Article
		want     string
	}{
		{"dispatch beats trusted", []domain.Article{long, dispatch}, dispatch.Title},
		{"trusted beats untrusted", []domain.Article{early, long}, long.Title},
		{"untrusted keeps earliest", []domain.Article{late, early}, early.Title},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, representative(tt.children).Title)
		})
	}
}

func TestStageAndVerification(t *testing.T) {
	m := New(slog.Default())
	warn := *newArticle("a", "Cảnh báo bão số 3", landfall)
	warn.Stage = domain.StageWarning
	warn.Status = domain.StatusPending
	warn2 := warn
	warn2.Source = "b"

	var e domain.Event
	m.Derive(&e, []domain.Article{warn, warn2})
	assert.Equal(t, domain.StageWarning, e.Stage)
	assert.True(t, e.NeedsVerification, "pending-only events need review")

	incident := *newArticle("c", landfallTitle, landfall)
	m.Derive(&e, []domain.Article{warn, incident})
	assert.Equal(t, domain.StageIncident, e.Stage)
	assert.False(t, e.NeedsVerification)
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name string
		sig  Signals
		want float64
	}{
		{"vip single source", Signals{VIP: true, Sources: 1}, 1.00},
		{"sensitive trusted", Signals{Sensitive: true, Trusted: true, Sources: 1}, 0.98},
		{"trusted two sources", Signals{Trusted: true, Sources: 2}, 0.95},
		{"trusted", Signals{Trusted: true, Sources: 1}, 0.90},
		{"sensitive two sources", Signals{Sensitive: true, Sources: 2}, 0.85},
		{"sensitive", Signals{Sensitive: true, Sources: 1}, 0.70},
		{"metrics two sources", Signals{StrongMetrics: true, Sources: 2}, 0.80},
		{"metrics", Signals{StrongMetrics: true, Sources: 1}, 0.60},
		{"one source", Signals{Sources: 1}, 0.30},
		{"two sources", Signals{Sources: 2}, 0.50},
		{"three sources", Signals{Sources: 3}, 0.75},
		{"five sources", Signals{Sources: 5}, 0.85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.sig), 1e-9)
		})
	}
}

func TestSignalsOf(t *testing.T) {
	a := *newArticle("vnexpress", landfallTitle, landfall)
	a.IsTrusted = false
	a.DamageBillionVND = floatPtr(0.5)
	b := a
	b.IsVIP = true

	sig := SignalsOf([]domain.Article{a, b})
	assert.Equal(t, Signals{VIP: true, StrongMetrics: true, Sources: 1}, sig)
}

func TestTitleSimilarity(t *testing.T) {
	assert.GreaterOrEqual(t, TitleSimilarity(landfallTitle, damageTitle), 0.25)
	assert.InDelta(t, 1.0, TitleSimilarity("Lũ quét Lào Cai", "lũ quét, LÀO CAI"), 1e-9)
	assert.Zero(t, TitleSimilarity("", ""))
	assert.Zero(t, TitleSimilarity("bão", "lũ"))
}
