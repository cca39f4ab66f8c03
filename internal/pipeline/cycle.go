package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/vn-hazard-radar/internal/dedup"
	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/eventmatch"
	"github.com/couchcryptid/vn-hazard-radar/internal/ingest"
	"github.com/couchcryptid/vn-hazard-radar/internal/reviewlog"
	"github.com/couchcryptid/vn-hazard-radar/internal/scorer"
	"github.com/couchcryptid/vn-hazard-radar/internal/store"
)

// cycle carries the state of one RunCycle call.
type cycle struct {
	p       *Pipeline
	report  Report
	changes map[int64]int // event ID -> index in report.Changes
}

// source processes the entries of one source in feed order. It returns an
// error only when the cycle must abort.
func (c *cycle) source(ctx context.Context, tx store.Store, res ingest.SourceResult) error {
	sr := SourceReport{
		Source:   res.Source.Name,
		FeedUsed: res.FeedUsed,
		Elapsed:  res.Elapsed,
		Err:      res.Err,
	}
	if res.Err != nil {
		c.p.logger.Warn("source failed", "source", res.Source.Name, "error", res.Err)
	}

	checker := dedup.NewChecker(tx, dedup.WithWindow(c.p.dedupBefore, c.p.dedupAfter))
	var err error
	for _, e := range res.Entries {
		if err = ctx.Err(); err != nil {
			break
		}
		var added bool
		added, err = c.entry(ctx, tx, checker, res.Source, e)
		if err != nil {
			break
		}
		if added {
			sr.Added++
		}
	}
	c.report.PerSource = append(c.report.PerSource, sr)
	c.report.NewArticles += sr.Added
	return err
}

func (c *cycle) entry(ctx context.Context, tx store.Store, checker *dedup.Checker, src domain.Source, e ingest.Entry) (bool, error) {
	p := c.p
	p.metrics.ArticlesSeen.Inc()
	rec := reviewlog.DecisionRecord{
		RunID:     c.report.RunID,
		Timestamp: domain.Now(),
		Source:    src.Name,
		Domain:    src.Domain,
		Title:     e.Title,
		URL:       e.URL,
	}

	dd, err := checker.Check(ctx, dedup.Candidate{
		Domain:      src.Domain,
		URL:         e.URL,
		Title:       e.Title,
		PublishedAt: publishedAt(e),
	})
	if err != nil {
		if c.fatal(ctx, err) {
			return false, err
		}
		p.logger.Warn("dedup check failed", "source", src.Name, "url", e.URL, "error", err)
		c.skip(rec)
		return false, nil
	}
	if dd.Duplicate {
		p.metrics.DedupDrops.WithLabelValues(dd.Reason).Inc()
		p.logger.Info("duplicate dropped",
			"source", src.Name, "url", e.URL, "reason", dd.Reason, "match_id", dd.MatchID)
		rec.Dedup = dd.Reason
		c.skip(rec)
		return false, nil
	}

	d := p.scorer.Decide(scorer.Input{Title: e.Title, Summary: e.Summary, Trusted: src.Trusted})
	rec.Diagnose = d.Diagnosis
	rec.Status = string(d.Status)
	if !d.Admitted() {
		c.skip(rec)
		return false, nil
	}

	a := BuildArticle(src, e, d, dd)
	if p.enricher != nil {
		if err := p.enricher.Enrich(ctx, a); err != nil {
			p.logger.Warn("enrich failed", "source", src.Name, "url", a.URL, "error", err)
		}
	}
	Annotate(a)

	var out eventmatch.Outcome
	err = tx.Transaction(ctx, func(s store.Store) error {
		if err := s.CreateArticle(ctx, a); err != nil {
			return fmt.Errorf("create article: %w", err)
		}
		var err error
		out, err = p.matcher.Attach(ctx, s, a)
		return err
	})
	if err != nil {
		if c.fatal(ctx, err) {
			return false, err
		}
		p.logger.Warn("store article failed", "source", src.Name, "url", a.URL, "error", err)
		c.skip(rec)
		return false, nil
	}

	c.record(out)
	id := a.ID
	rec.ID = &id
	rec.Action = reviewlog.ActionAccepted
	action := "accepted"
	if a.Status == domain.StatusPending {
		action = "pending"
	}
	p.metrics.ArticlesDecided.WithLabelValues(action).Inc()
	c.decision(rec)
	return true, nil
}

// fatal reports whether err must abort the cycle.
func (c *cycle) fatal(ctx context.Context, err error) bool {
	return errors.Is(err, store.ErrUnavailable) || ctx.Err() != nil
}

func (c *cycle) record(out eventmatch.Outcome) {
	if out.Event == nil {
		return
	}
	id := out.Event.ID
	if i, ok := c.changes[id]; ok {
		c.report.Changes[i].Event = *out.Event
		c.report.Changes[i].Created = c.report.Changes[i].Created || out.Created
		return
	}
	c.changes[id] = len(c.report.Changes)
	c.report.Changes = append(c.report.Changes, domain.EventChange{Event: *out.Event, Created: out.Created})
}

func (c *cycle) skip(rec reviewlog.DecisionRecord) {
	c.report.Skipped++
	c.p.metrics.ArticlesDecided.WithLabelValues("skipped").Inc()
	rec.Action = reviewlog.ActionSkipped
	c.decision(rec)
}

func (c *cycle) decision(rec reviewlog.DecisionRecord) {
	if err := c.p.reviews.Decision(rec); err != nil {
		c.p.logger.Warn("write decision log failed", "error", err)
	}
}
