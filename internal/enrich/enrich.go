// Package enrich fetches the full article page of a candidate, extracts its
// readable text and lead image, and fills impact and location fields the
// feed summary left empty.
package enrich

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/filter"
	"github.com/couchcryptid/vn-hazard-radar/internal/hazard"
	"github.com/couchcryptid/vn-hazard-radar/internal/impact"
	"github.com/couchcryptid/vn-hazard-radar/internal/ingest"
	"github.com/couchcryptid/vn-hazard-radar/internal/observability"
	"github.com/couchcryptid/vn-hazard-radar/internal/province"
	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// ShouldEnrich reports whether a candidate is worth a page fetch: it mentions
// impact, comes from a trusted source, or has a hazard keyword in its title.
func ShouldEnrich(title, summary string, trusted bool) bool {
	return trusted || impact.HasTrigger(title+" "+summary) || hazard.HasHazardKeyword(title)
}

// Enricher fetches article pages.
type Enricher struct {
	fetcher  *ingest.Fetcher
	resolver *province.Resolver
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New returns an Enricher. The fetcher should be configured with the
// enrichment timeout.
func New(f *ingest.Fetcher, metrics *observability.Metrics, logger *slog.Logger) *Enricher {
	return &Enricher{
		fetcher:  f,
		resolver: province.Default(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Fetch downloads and parses the page behind rawURL, decoding Google News
// links first.
func (e *Enricher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	target := DecodeGoogleNews(rawURL)
	res := e.fetcher.Fetch(ctx, target, ingest.Validator{})
	if res.Kind != ingest.KindOK {
		e.metrics.EnrichRequests.WithLabelValues("error").Inc()
		return Page{}, res.Err
	}
	page, err := ParsePage(res.Body, res.URL)
	if err != nil {
		e.metrics.EnrichRequests.WithLabelValues("empty").Inc()
		return Page{}, err
	}
	e.metrics.EnrichRequests.WithLabelValues("ok").Inc()
	return page, nil
}

// Enrich fetches a's page and fills FullText, ImageURL and every impact or
// location field that is still empty. Existing values are never replaced.
func (e *Enricher) Enrich(ctx context.Context, a *domain.Article) error {
	if !ShouldEnrich(a.Title, a.Summary, a.IsTrusted) {
		e.metrics.EnrichRequests.WithLabelValues("skipped").Inc()
		return nil
	}
	page, err := e.Fetch(ctx, a.URL)
	if err != nil {
		e.logger.Debug("enrich failed", "url", a.URL, "error", err)
		return err
	}
	if a.FullText == "" {
		a.FullText = page.Text
	}
	if a.ImageURL == "" {
		a.ImageURL = page.ImageURL
	}
	e.Refill(a, page.Text)
	return nil
}

// Refill re-runs impact extraction and province resolution on title and
// body and copies results into fields that are nil or unknown.
func (e *Enricher) Refill(a *domain.Article, body string) {
	if body == "" {
		return
	}
	masked := filter.Mask(textnorm.New(a.Title + ". " + body))
	im := impact.Extract(masked.Norm)

	a.ImpactDetails = fillImpact(a.ImpactDetails, im)
	if a.Deaths == nil {
		a.Deaths = domain.MaxInt(im.Deaths)
	}
	if a.Missing == nil {
		a.Missing = domain.MaxInt(im.Missing)
	}
	if a.Injured == nil {
		a.Injured = domain.MaxInt(im.Injured)
	}
	if a.DamageBillionVND == nil {
		a.DamageBillionVND = im.DamageBillionVND
	}
	if a.Agency == "" && im.Agency != nil {
		a.Agency = *im.Agency
	}
	if issues := impact.Validate(a.ImpactDetails); len(issues) > 0 {
		a.NeedsVerification = true
	}

	if a.Province == "" || a.Province == province.Unknown {
		if p := e.resolver.ExtractText(masked); p != province.Unknown {
			a.Province = p
		}
	}
}

func fillImpact(dst, src domain.Impact) domain.Impact {
	if len(dst.Deaths) == 0 {
		dst.Deaths = src.Deaths
	}
	if len(dst.Missing) == 0 {
		dst.Missing = src.Missing
	}
	if len(dst.Injured) == 0 {
		dst.Injured = src.Injured
	}
	if dst.DamageBillionVND == nil {
		dst.DamageBillionVND = src.DamageBillionVND
	}
	if dst.Agency == nil {
		dst.Agency = src.Agency
	}
	if len(dst.Damage) == 0 {
		dst.Damage = src.Damage
	}
	if len(dst.Agriculture) == 0 {
		dst.Agriculture = src.Agriculture
	}
	if len(dst.Marine) == 0 {
		dst.Marine = src.Marine
	}
	if len(dst.Disruption) == 0 {
		dst.Disruption = src.Disruption
	}
	return dst
}
