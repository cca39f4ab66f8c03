// Package moderation implements the operator actions on stored news:
// rejecting an article and deleting an event. Both blacklist the affected
// news hashes so the items are never admitted again.
package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/eventmatch"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// Default blacklist reasons.
const (
	ReasonRejected     = "rejected by operator"
	ReasonEventDeleted = "event deleted by operator"
)

// Moderator applies operator actions in a single transaction each.
type Moderator struct {
	store   store.Store
	matcher *eventmatch.Matcher
	logger  *slog.Logger
}

func New(st store.Store, m *eventmatch.Matcher, logger *slog.Logger) *Moderator {
	return &Moderator{store: st, matcher: m, logger: logger}
}

// RejectResult reports the outcome of RejectArticle. Event is the rebuilt
// parent, nil when the article had none or the event was emptied and
// removed.
type RejectResult struct {
	Article      domain.Article `json:"article"`
	Event        *domain.Event  `json:"event"`
	EventDeleted bool           `json:"event_deleted"`
}

// RejectArticle marks an article rejected, blacklists its hash and rebuilds
// its event. Rejecting an already rejected article only re-applies the
// blacklist entry.
func (m *Moderator) RejectArticle(ctx context.Context, id int64, reason string) (RejectResult, error) {
	if reason == "" {
		reason = ReasonRejected
	}
	var res RejectResult
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		a, err := tx.GetArticle(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != domain.StatusRejected {
			a.Status = domain.StatusRejected
			if err := tx.UpdateArticle(ctx, a); err != nil {
				return fmt.Errorf("reject article %d: %w", id, err)
			}
		}
		if err := tx.AddBlacklist(ctx, domain.BlacklistEntry{NewsHash: a.NewsHash, Reason: reason}); err != nil {
			return fmt.Errorf("blacklist article %d: %w", id, err)
		}
		res.Article = *a
		if a.EventID == nil {
			return nil
		}
		e, err := m.matcher.Rebuild(ctx, tx, *a.EventID)
		if err != nil {
			return fmt.Errorf("rebuild event %d: %w", *a.EventID, err)
		}
		res.Event = e
		res.EventDeleted = e == nil
		return nil
	})
	if err != nil {
		return RejectResult{}, err
	}
	m.logger.Info("article rejected", "article_id", id, "event_deleted", res.EventDeleted)
	return res, nil
}

// DeleteEvent rejects and blacklists every article of an event, then deletes
// the event. It returns the number of articles rejected.
func (m *Moderator) DeleteEvent(ctx context.Context, id int64, reason string) (int, error) {
	if reason == "" {
		reason = ReasonEventDeleted
	}
	var n int
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetEvent(ctx, id); err != nil {
			return err
		}
		articles, err := tx.ArticlesByEvent(ctx, id, true)
		if err != nil {
			return fmt.Errorf("load event %d articles: %w", id, err)
		}
		for i := range articles {
			a := &articles[i]
			if a.Status != domain.StatusRejected {
				a.Status = domain.StatusRejected
				if err := tx.UpdateArticle(ctx, a); err != nil {
					return fmt.Errorf("reject article %d: %w", a.ID, err)
				}
				n++
			}
			if err := tx.AddBlacklist(ctx, domain.BlacklistEntry{NewsHash: a.NewsHash, Reason: reason}); err != nil {
				return fmt.Errorf("blacklist article %d: %w", a.ID, err)
			}
		}
		return tx.DeleteEvent(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	m.logger.Info("event deleted", "event_id", id, "articles_rejected", n)
	return n, nil
}
