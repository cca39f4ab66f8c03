package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://VnExpress.net/bao-so-3.html?utm_source=fb&utm_medium=social", "https://vnexpress.net/bao-so-3.html"},
		{"HTTPS://dantri.com.vn/a.htm#comments", "https://dantri.com.vn/a.htm"},
		{"https://tuoitre.vn/x?b=2&a=1&fbclid=abc", "https://tuoitre.vn/x?a=1&b=2"},
		{"https://tuoitre.vn/x?gclid=1&msclkid=2&ref=home&source=rss&share=zalo", "https://tuoitre.vn/x"},
		{"https://tuoitre.vn/x?", "https://tuoitre.vn/x"},
		{"https://tuoitre.vn/Path/Case", "https://tuoitre.vn/Path/Case"},
		{"  not a url  ", "not a url"},
		{"https://vnexpress.net/x.html?a=1;b=2", "https://vnexpress.net/x.html?a=1;b=2"},
		{"https://vnexpress.net/x.html?q=%zz&utm_source=fb&a=1", "https://vnexpress.net/x.html?a=1&q=%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Canonical(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Canonical(got))
		})
	}
}

func TestCanonicalKeepsUnparseableQueries(t *testing.T) {
	a := Canonical("https://vnexpress.net/x.html?id=1;page=2")
	b := Canonical("https://vnexpress.net/x.html?id=3;page=4")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t,
		NewsHash("vnexpress.net", "Bão số 3", "https://vnexpress.net/x.html?id=1;page=2"),
		NewsHash("vnexpress.net", "Bão số 3", "https://vnexpress.net/x.html?id=3;page=4"))
}

func TestRegistrable(t *testing.T) {
	tests := map[string]string{
		"m.baomoi.com":                     "baomoi.com",
		"www.nchmf.gov.vn":                 "nchmf.gov.vn",
		"https://dantri.com.vn/xa-hoi.htm": "dantri.com.vn",
		"https://www.vnexpress.net/a.html": "vnexpress.net",
		"":                                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Registrable(in), in)
	}
	assert.True(t, SameSite("https://m.baomoi.com/a", "baomoi.com"))
	assert.False(t, SameSite("vnexpress.net", "dantri.com.vn"))
}

func TestNewsHash(t *testing.T) {
	h := NewsHash("vnexpress.net", "Bão số 3 đổ bộ", "https://vnexpress.net/a.html?utm_source=x")
	assert.Len(t, h, 12)
	assert.Equal(t, h, NewsHash("vnexpress.net", "  BÃO SỐ 3   đổ bộ ", "https://vnexpress.net/a.html"))
	assert.NotEqual(t, h, NewsHash("dantri.com.vn", "Bão số 3 đổ bộ", "https://vnexpress.net/a.html"))
}

func TestChecker(t *testing.T) {
	ctx := context.Background()
	published := time.Date(2024, 9, 7, 8, 0, 0, 0, time.UTC)
	mem := store.NewMemory()
	stored := &domain.Article{
		Domain:       "vnexpress.net",
		Title:        "Bão số 3 đổ bộ Quảng Ninh",
		URL:          "https://vnexpress.net/bao-so-3.html?utm_source=rss",
		CanonicalURL: "https://vnexpress.net/bao-so-3.html",
		PublishedAt:  published,
	}
	require.NoError(t, mem.CreateArticle(ctx, stored))

	blocked := Candidate{Domain: "thanhnien.vn", URL: "https://thanhnien.vn/blocked.htm", Title: "Tin bị gỡ", PublishedAt: published}
	require.NoError(t, mem.AddBlacklist(ctx, domain.BlacklistEntry{NewsHash: NewsHash(blocked.Domain, blocked.Title, blocked.URL)}))

	tests := []struct {
		name   string
		cand   Candidate
		dup    bool
		reason string
	}{
		{
			name:   "same url different tracking",
			cand:   Candidate{Domain: "vnexpress.net", URL: "https://vnexpress.net/bao-so-3.html?utm_source=facebook", Title: "x", PublishedAt: published.Add(72 * time.Hour)},
			dup:    true,
			reason: ReasonURL,
		},
		{
			name:   "canonical match from another domain in window",
			cand:   Candidate{Domain: "baomoi.com", URL: "https://vnexpress.net/bao-so-3.html#top", Title: "y", PublishedAt: published.Add(time.Hour)},
			dup:    true,
			reason: ReasonCanonical,
		},
		{
			name: "canonical match outside window",
			cand: Candidate{Domain: "baomoi.com", URL: "https://vnexpress.net/bao-so-3.html", Title: "y", PublishedAt: published.Add(30 * time.Hour)},
		},
		{
			name:   "same title same domain",
			cand:   Candidate{Domain: "vnexpress.net", URL: "https://vnexpress.net/other.html", Title: " Bão số 3 đổ bộ Quảng Ninh ", PublishedAt: published.Add(-time.Hour)},
			dup:    true,
			reason: ReasonTitle,
		},
		{
			name: "same title other domain",
			cand: Candidate{Domain: "dantri.com.vn", URL: "https://dantri.com.vn/b.htm", Title: "Bão số 3 đổ bộ Quảng Ninh", PublishedAt: published},
		},
		{
			name:   "blacklisted",
			cand:   blocked,
			dup:    true,
			reason: ReasonBlacklisted,
		},
	}

	c := NewChecker(mem)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Check(ctx, tt.cand)
			require.NoError(t, err)
			assert.Equal(t, tt.dup, res.Duplicate)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Len(t, res.Hash, 12)
			assert.NotEmpty(t, res.Canonical)
			if tt.dup && tt.reason != ReasonBlacklisted {
				assert.Equal(t, stored.ID, res.MatchID)
			}
		})
	}
}
