// Package store persists articles, events and the blacklist.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnavailable wraps failures of the backing database itself.
	ErrUnavailable = errors.New("store unavailable")
)

// Sort orders of ListEvents.
const (
	SortLatest = "latest"
	SortImpact = "impact"
)

// EventQuery filters ListEvents. Zero values disable a filter.
type EventQuery struct {
	Since      time.Time
	Until      time.Time
	HazardType string
	Province   string
	Title      string
	PublicOnly bool
	Sort       string
	Limit      int
	Offset     int
}

// Articles is the article half of the repository.
type Articles interface {
	CreateArticle(ctx context.Context, a *domain.Article) error
	UpdateArticle(ctx context.Context, a *domain.Article) error
	GetArticle(ctx context.Context, id int64) (*domain.Article, error)
	// ArticleByURL finds an article of domain by original or canonical URL.
	ArticleByURL(ctx context.Context, dom, url string) (*domain.Article, error)
	ArticleByCanonical(ctx context.Context, canonical string, from, to time.Time) (*domain.Article, error)
	ArticleByTitle(ctx context.Context, dom, title string, from, to time.Time) (*domain.Article, error)
	// ArticlesByEvent returns the articles of an event newest first. Rejected
	// articles are included only when withRejected is set.
	ArticlesByEvent(ctx context.Context, eventID int64, withRejected bool) ([]domain.Article, error)
}

// Events is the event half of the repository.
type Events interface {
	CreateEvent(ctx context.Context, e *domain.Event) error
	UpdateEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	EventKeyExists(ctx context.Context, key string) (bool, error)
	// CandidateEvents returns events of the given type and province whose
	// last update falls in [from, to].
	CandidateEvents(ctx context.Context, hazardType, province string, from, to time.Time) ([]domain.Event, error)
	ListEvents(ctx context.Context, q EventQuery) ([]domain.Event, int, error)
	// EventsInRange returns every event that started in [from, to], oldest
	// first. It backs the stats aggregations and is not paged.
	EventsInRange(ctx context.Context, from, to time.Time, publicOnly bool) ([]domain.Event, error)
}

// Blacklist holds news hashes that are never re-admitted.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, hash string) (bool, error)
	AddBlacklist(ctx context.Context, entry domain.BlacklistEntry) error
}

// Store is the full repository. Transaction runs fn atomically; nested calls
// roll back only their own changes.
type Store interface {
	Articles
	Events
	Blacklist
	Transaction(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Window returns the range [at-before, at+after].
func Window(at time.Time, before, after time.Duration) (time.Time, time.Time) {
	return at.Add(-before), at.Add(after)
}

func normalizeQuery(q EventQuery) EventQuery {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Sort != SortImpact {
		q.Sort = SortLatest
	}
	return q
}
