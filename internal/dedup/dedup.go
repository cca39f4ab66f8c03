package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// Reasons reported for a duplicate.
const (
	ReasonBlacklisted = "blacklisted"
	ReasonURL         = "url"
	ReasonCanonical   = "canonical_url"
	ReasonTitle       = "same_title"
)

// Lookup is the part of the store the checker reads.
type Lookup interface {
	IsBlacklisted(ctx context.Context, hash string) (bool, error)
	ArticleByURL(ctx context.Context, dom, url string) (*domain.Article, error)
	ArticleByCanonical(ctx context.Context, canonical string, from, to time.Time) (*domain.Article, error)
	ArticleByTitle(ctx context.Context, dom, title string, from, to time.Time) (*domain.Article, error)
}

// Candidate is an incoming item.
type Candidate struct {
	Domain      string
	URL         string
	Title       string
	PublishedAt time.Time
}

// Result is the outcome of Check. Canonical and Hash are always filled so
// callers can store them on the new article.
type Result struct {
	Duplicate bool
	Reason    string
	MatchID   int64
	Canonical string
	Hash      string
}

// Checker runs the duplicate checks in order: blacklist, exact URL on the
// domain, canonical URL within the window, same domain and title within the
// window. Titles from different domains are never compared.
type Checker struct {
	lookup Lookup
	before time.Duration
	after  time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithWindow sets how far before and after the publication time the
// canonical URL and title checks look.
func WithWindow(before, after time.Duration) Option {
	return func(c *Checker) {
		c.before, c.after = before, after
	}
}

// NewChecker returns a Checker with a 24h lookback and a 2h lookahead.
func NewChecker(l Lookup, opts ...Option) *Checker {
	c := &Checker{lookup: l, before: 24 * time.Hour, after: 2 * time.Hour}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check classifies cand.
func (c *Checker) Check(ctx context.Context, cand Candidate) (Result, error) {
	title := strings.TrimSpace(cand.Title)
	res := Result{
		Canonical: Canonical(cand.URL),
		Hash:      NewsHash(cand.Domain, title, cand.URL),
	}

	black, err := c.lookup.IsBlacklisted(ctx, res.Hash)
	if err != nil {
		return res, fmt.Errorf("check blacklist: %w", err)
	}
	if black {
		res.Duplicate, res.Reason = true, ReasonBlacklisted
		return res, nil
	}

	from, to := store.Window(cand.PublishedAt, c.before, c.after)
	checks := []struct {
		reason string
		find   func() (*domain.Article, error)
	}{
		{ReasonURL, func() (*domain.Article, error) { return c.lookup.ArticleByURL(ctx, cand.Domain, cand.URL) }},
		{ReasonURL, func() (*domain.Article, error) { return c.lookup.ArticleByURL(ctx, cand.Domain, res.Canonical) }},
		{ReasonCanonical, func() (*domain.Article, error) { return c.lookup.ArticleByCanonical(ctx, res.Canonical, from, to) }},
		{ReasonTitle, func() (*domain.Article, error) {
			if title == "" {
				return nil, store.ErrNotFound
			}
			return c.lookup.ArticleByTitle(ctx, cand.Domain, title, from, to)
		}},
	}
	for _, chk := range checks {
		a, err := chk.find()
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("check %s: %w", chk.reason, err)
		}
		res.Duplicate, res.Reason, res.MatchID = true, chk.reason, a.ID
		return res, nil
	}
	return res, nil
}
