// Package eventmatch clusters admitted articles into events and keeps the
// derived event fields in sync with the event's articles.
package eventmatch

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/province"
	"github.com/couchcryptid/vn-hazard-radar/internal/scorer"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// Defaults of the matching window and similarity threshold.
const (
	DefaultLookback  = 48 * time.Hour
	DefaultLookahead = 6 * time.Hour
	DefaultThreshold = 0.25
)

// Repo is the part of the store the matcher works on.
type Repo interface {
	store.Events
	UpdateArticle(ctx context.Context, a *domain.Article) error
	ArticlesByEvent(ctx context.Context, eventID int64, withRejected bool) ([]domain.Article, error)
}

// Outcome reports what Attach did.
type Outcome struct {
	Event      *domain.Event
	Created    bool
	Similarity float64
}

// Matcher attaches articles to events. Calls for the same hazard type and
// province are serialized.
type Matcher struct {
	resolver  *province.Resolver
	logger    *slog.Logger
	lookback  time.Duration
	lookahead time.Duration
	threshold float64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWindow sets how far before and after an article's publication time
// candidate events may have been updated.
func WithWindow(lookback, lookahead time.Duration) Option {
	return func(m *Matcher) { m.lookback, m.lookahead = lookback, lookahead }
}

// WithThreshold sets the minimum title similarity for a match.
func WithThreshold(th float64) Option {
	return func(m *Matcher) { m.threshold = th }
}

// New returns a Matcher.
func New(logger *slog.Logger, opts ...Option) *Matcher {
	m := &Matcher{
		resolver:  province.Default(),
		logger:    logger,
		lookback:  DefaultLookback,
		lookahead: DefaultLookahead,
		threshold: DefaultThreshold,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Matcher) lock(hazardType, prov string) func() {
	key := hazardType + "|" + prov
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Attach links a stored article to the most similar open event of the same
// type and province, or to a new event, and recomputes that event.
func (m *Matcher) Attach(ctx context.Context, r Repo, a *domain.Article) (Outcome, error) {
	if a.ID == 0 {
		return Outcome{}, fmt.Errorf("attach article: article has no id")
	}
	defer m.lock(a.HazardType, a.Province)()

	from, to := store.Window(a.PublishedAt, m.lookback, m.lookahead)
	candidates, err := r.CandidateEvents(ctx, a.HazardType, a.Province, from, to)
	if err != nil {
		return Outcome{}, fmt.Errorf("load candidate events: %w", err)
	}

	var (
		best    *domain.Event
		bestSim float64
	)
	tokens := tokenSet(a.Title)
	for i := range candidates {
		sim := Jaccard(tokens, tokenSet(candidates[i].Title))
		if sim >= m.threshold && sim > bestSim {
			best, bestSim = &candidates[i], sim
		}
	}

	out := Outcome{Similarity: bestSim}
	if best == nil {
		best, err = m.create(ctx, r, a)
		if err != nil {
			return Outcome{}, err
		}
		out.Created = true
	}

	a.EventID = &best.ID
	if err := r.UpdateArticle(ctx, a); err != nil {
		return Outcome{}, fmt.Errorf("link article %d: %w", a.ID, err)
	}
	children, err := r.ArticlesByEvent(ctx, best.ID, false)
	if err != nil {
		return Outcome{}, fmt.Errorf("load event articles: %w", err)
	}
	m.Derive(best, children)
	if err := r.UpdateEvent(ctx, best); err != nil {
		return Outcome{}, fmt.Errorf("update event %d: %w", best.ID, err)
	}

	m.logger.Debug("article attached",
		"article_id", a.ID, "event_id", best.ID, "created", out.Created, "similarity", bestSim)
	out.Event = best
	return out, nil
}

func (m *Matcher) create(ctx context.Context, r Repo, a *domain.Article) (*domain.Event, error) {
	base := domain.EventKey(a.HazardType, a.Province, a.PublishedAt)
	key := base
	for n := 1; ; n++ {
		exists, err := r.EventKeyExists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check event key: %w", err)
		}
		if !exists {
			break
		}
		key = fmt.Sprintf("%s_%d", base, n)
	}

	e := &domain.Event{
		Key:        key,
		HazardType: a.HazardType,
		Province:   a.Province,
	}
	m.Derive(e, []domain.Article{*a})
	if err := r.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event %q: %w", key, err)
	}
	return e, nil
}

// Rebuild recomputes an event from its live articles. When none remain the
// event is deleted and Rebuild returns nil.
func (m *Matcher) Rebuild(ctx context.Context, r Repo, eventID int64) (*domain.Event, error) {
	e, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer m.lock(e.HazardType, e.Province)()

	children, err := r.ArticlesByEvent(ctx, eventID, false)
	if err != nil {
		return nil, fmt.Errorf("load event articles: %w", err)
	}
	if len(children) == 0 {
		if err := r.DeleteEvent(ctx, eventID); err != nil {
			return nil, fmt.Errorf("delete empty event %d: %w", eventID, err)
		}
		return nil, nil
	}
	m.Derive(e, children)
	if err := r.UpdateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("update event %d: %w", eventID, err)
	}
	return e, nil
}

// Derive sets every derived field of e from children. It depends only on
// the set of children, not on the order they arrived in.
func (m *Matcher) Derive(e *domain.Event, children []domain.Article) {
	if len(children) == 0 {
		return
	}
	e.StartedAt, e.LastUpdatedAt = children[0].PublishedAt, children[0].PublishedAt
	e.Deaths, e.Missing, e.Injured, e.DamageBillionVND = nil, nil, nil, nil
	e.Details = domain.Impact{}
	e.RiskLevel = 0
	e.NeedsVerification = false
	approved := false

	for i := range children {
		a := &children[i]
		if a.PublishedAt.Before(e.StartedAt) {
			e.StartedAt = a.PublishedAt
		}
		if a.PublishedAt.After(e.LastUpdatedAt) {
			e.LastUpdatedAt = a.PublishedAt
		}
		e.Deaths = domain.MaxIntPtr(e.Deaths, a.Deaths)
		e.Missing = domain.MaxIntPtr(e.Missing, a.Missing)
		e.Injured = domain.MaxIntPtr(e.Injured, a.Injured)
		e.DamageBillionVND = domain.MaxFloatPtr(e.DamageBillionVND, a.DamageBillionVND)
		e.Details = e.Details.Merge(a.ImpactDetails)
		e.RiskLevel = max(e.RiskLevel, a.RiskLevel)
		e.NeedsVerification = e.NeedsVerification || a.NeedsVerification
		approved = approved || a.Status == domain.StatusApproved
	}
	e.NeedsVerification = e.NeedsVerification || !approved

	sig := SignalsOf(children)
	e.SourcesCount = sig.Sources
	e.Confidence = Confidence(sig)
	e.Stage = stageOf(children)

	lead := representative(children)
	e.Title = lead.Title
	e.ImageURL = lead.ImageURL
	if e.ImageURL == "" {
		for i := range children {
			if children[i].ImageURL != "" {
				e.ImageURL = children[i].ImageURL
				break
			}
		}
	}

	e.Lat, e.Lon = nil, nil
	if lat, lon, ok := m.resolver.Coordinates(e.Province); ok {
		e.Lat, e.Lon = &lat, &lon
	}
}

// representative picks the article whose title names the event: dispatch
// titles first, then trusted ones with the longest title winning, then the
// earliest published. The article ID breaks remaining ties.
func representative(children []domain.Article) *domain.Article {
	type rank struct {
		vip, trusted bool
		length       int
	}
	rankOf := func(a *domain.Article) rank {
		_, vip := scorer.VIP(textnorm.New(a.Title))
		r := rank{vip: vip, trusted: a.IsTrusted}
		if r.vip || r.trusted {
			r.length = utf8.RuneCountInString(a.Title)
		}
		return r
	}
	better := func(a, b *domain.Article) bool {
		ra, rb := rankOf(a), rankOf(b)
		if ra.vip != rb.vip {
			return ra.vip
		}
		if ra.trusted != rb.trusted {
			return ra.trusted
		}
		if ra.length != rb.length {
			return ra.length > rb.length
		}
		if c := a.PublishedAt.Compare(b.PublishedAt); c != 0 {
			return c < 0
		}
		return cmp.Less(a.ID, b.ID)
	}

	best := &children[0]
	for i := 1; i < len(children); i++ {
		if better(&children[i], best) {
			best = &children[i]
		}
	}
	return best
}

func stageOf(children []domain.Article) domain.Stage {
	first := children[0].Stage
	for i := range children {
		if children[i].Stage != first {
			return domain.StageIncident
		}
	}
	if first == domain.StageWarning || first == domain.StageRecovery {
		return first
	}
	return domain.StageIncident
}

func tokenSet(s string) map[string]struct{} {
	toks := textnorm.Tokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard is |a ∩ b| / |a ∪ b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// TitleSimilarity is the Jaccard similarity of the word sets of two titles.
func TitleSimilarity(a, b string) float64 {
	return Jaccard(tokenSet(a), tokenSet(b))
}
