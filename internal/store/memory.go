package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

// Memory is an in-process Store used by the CLI and by tests.
type Memory struct {
	mu        sync.RWMutex
	articles  map[int64]domain.Article
	events    map[int64]domain.Event
	blacklist map[string]domain.BlacklistEntry
	nextID    int64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		articles:  make(map[int64]domain.Article),
		events:    make(map[int64]domain.Event),
		blacklist: make(map[string]domain.BlacklistEntry),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// CreateArticle stores a and assigns its ID.
func (m *Memory) CreateArticle(_ context.Context, a *domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.articles {
		if other.Domain == a.Domain && other.CanonicalURL == a.CanonicalURL {
			return fmt.Errorf("create article %q: %w", a.CanonicalURL, ErrDuplicate)
		}
	}
	a.ID = m.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = domain.Now()
	}
	m.articles[a.ID] = *a
	return nil
}

// UpdateArticle overwrites the stored copy of a.
func (m *Memory) UpdateArticle(_ context.Context, a *domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[a.ID]; !ok {
		return fmt.Errorf("update article %d: %w", a.ID, ErrNotFound)
	}
	m.articles[a.ID] = *a
	return nil
}

// GetArticle returns the article with id.
func (m *Memory) GetArticle(_ context.Context, id int64) (*domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, fmt.Errorf("get article %d: %w", id, ErrNotFound)
	}
	return &a, nil
}

// ArticleByURL finds an article of dom whose original or canonical URL is url.
func (m *Memory) ArticleByURL(_ context.Context, dom, url string) (*domain.Article, error) {
	return m.first(func(a domain.Article) bool {
		return a.Domain == dom && (a.URL == url || a.CanonicalURL == url)
	})
}

// ArticleByCanonical finds an article with canonical URL published in [from, to].
func (m *Memory) ArticleByCanonical(_ context.Context, canonical string, from, to time.Time) (*domain.Article, error) {
	return m.first(func(a domain.Article) bool {
		return a.CanonicalURL == canonical && within(a.PublishedAt, from, to)
	})
}

// ArticleByTitle finds an article of dom with the same title published in [from, to].
func (m *Memory) ArticleByTitle(_ context.Context, dom, title string, from, to time.Time) (*domain.Article, error) {
	return m.first(func(a domain.Article) bool {
		return a.Domain == dom && a.Title == title && within(a.PublishedAt, from, to)
	})
}

func (m *Memory) first(match func(domain.Article) bool) (*domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *domain.Article
	for _, a := range m.articles {
		if match(a) && (found == nil || a.ID < found.ID) {
			found = &a
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// ArticlesByEvent returns the articles of eventID newest first.
func (m *Memory) ArticlesByEvent(_ context.Context, eventID int64, withRejected bool) ([]domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Article
	for _, a := range m.articles {
		if a.EventID == nil || *a.EventID != eventID {
			continue
		}
		if !withRejected && !a.Live() {
			continue
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.Article) int {
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// CreateEvent stores e and assigns its ID.
func (m *Memory) CreateEvent(_ context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.events {
		if other.Key == e.Key {
			return fmt.Errorf("create event %q: %w", e.Key, ErrDuplicate)
		}
	}
	e.ID = m.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = domain.Now()
	}
	m.events[e.ID] = *e
	return nil
}

// UpdateEvent overwrites the stored copy of e.
func (m *Memory) UpdateEvent(_ context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return fmt.Errorf("update event %d: %w", e.ID, ErrNotFound)
	}
	m.events[e.ID] = *e
	return nil
}

// GetEvent returns the event with id.
func (m *Memory) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("get event %d: %w", id, ErrNotFound)
	}
	return &e, nil
}

// DeleteEvent removes the event and detaches its articles.
func (m *Memory) DeleteEvent(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return fmt.Errorf("delete event %d: %w", id, ErrNotFound)
	}
	delete(m.events, id)
	for aid, a := range m.articles {
		if a.EventID != nil && *a.EventID == id {
			a.EventID = nil
			m.articles[aid] = a
		}
	}
	return nil
}

// EventKeyExists reports whether an event with key exists.
func (m *Memory) EventKeyExists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.events {
		if e.Key == key {
			return true, nil
		}
	}
	return false, nil
}

// CandidateEvents returns events of hazardType in province updated in [from, to].
func (m *Memory) CandidateEvents(_ context.Context, hazardType, province string, from, to time.Time) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Event
	for _, e := range m.events {
		if e.HazardType == hazardType && e.Province == province && within(e.LastUpdatedAt, from, to) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b domain.Event) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListEvents filters, sorts and pages the events.
func (m *Memory) ListEvents(_ context.Context, q EventQuery) ([]domain.Event, int, error) {
	q = normalizeQuery(q)
	m.mu.RLock()
	var out []domain.Event
	for _, e := range m.events {
		if matchesQuery(e, q) {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Event) int {
		if q.Sort == SortImpact {
			if c := cmp.Compare(impactWeight(b), impactWeight(a)); c != 0 {
				return c
			}
			if c := cmp.Compare(deref(b.DamageBillionVND), deref(a.DamageBillionVND)); c != 0 {
				return c
			}
		}
		if c := b.LastUpdatedAt.Compare(a.LastUpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	total := len(out)
	lo := min(q.Offset, total)
	hi := min(lo+q.Limit, total)
	return out[lo:hi], total, nil
}

// EventsInRange returns the events that started in [from, to].
func (m *Memory) EventsInRange(_ context.Context, from, to time.Time, publicOnly bool) ([]domain.Event, error) {
	m.mu.RLock()
	var out []domain.Event
	for _, e := range m.events {
		if within(e.StartedAt, from, to) && (!publicOnly || e.PubliclyVisible()) {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b domain.Event) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func matchesQuery(e domain.Event, q EventQuery) bool {
	switch {
	case !q.Since.IsZero() && e.LastUpdatedAt.Before(q.Since):
		return false
	case !q.Until.IsZero() && e.StartedAt.After(q.Until):
		return false
	case q.HazardType != "" && e.HazardType != q.HazardType:
		return false
	case q.Province != "" && e.Province != q.Province:
		return false
	case q.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(q.Title)):
		return false
	case q.PublicOnly && !e.PubliclyVisible():
		return false
	}
	return true
}

func impactWeight(e domain.Event) int {
	n := 0
	for _, p := range []*int{e.Deaths, e.Missing, e.Injured} {
		if p != nil {
			n += *p
		}
	}
	return n
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// IsBlacklisted reports whether hash is blacklisted.
func (m *Memory) IsBlacklisted(_ context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blacklist[hash]
	return ok, nil
}

// AddBlacklist registers entry. Adding an existing hash is a no-op.
func (m *Memory) AddBlacklist(_ context.Context, entry domain.BlacklistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blacklist[entry.NewsHash]; !ok {
		m.blacklist[entry.NewsHash] = entry
	}
	return nil
}

// Transaction runs fn against m and restores the previous state when fn
// returns an error.
func (m *Memory) Transaction(_ context.Context, fn func(Store) error) error {
	m.mu.RLock()
	articles := maps.Clone(m.articles)
	events := maps.Clone(m.events)
	blacklist := maps.Clone(m.blacklist)
	nextID := m.nextID
	m.mu.RUnlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.articles, m.events, m.blacklist, m.nextID = articles, events, blacklist, nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
