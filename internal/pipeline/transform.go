package pipeline

import (
	"strings"
	"time"

	"github.com/couchcryptid/vn-hazard-radar/internal/dedup"
	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/ingest"
	"github.com/couchcryptid/vn-hazard-radar/internal/risk"
	"github.com/couchcryptid/vn-hazard-radar/internal/scorer"
)

// BuildArticle turns an admitted feed entry into an article ready to store.
func BuildArticle(src domain.Source, e ingest.Entry, d scorer.Decision, dd dedup.Result) *domain.Article {
	a := &domain.Article{
		Source:            src.Name,
		Domain:            src.Domain,
		Title:             strings.TrimSpace(e.Title),
		URL:               e.URL,
		CanonicalURL:      dd.Canonical,
		NewsHash:          dd.Hash,
		PublishedAt:       publishedAt(e),
		HazardType:        d.Classification.Primary,
		Province:          d.Province,
		Stage:             domain.StageFor(d.Classification.Labels, !d.Impact.Empty()),
		Summary:           e.Summary,
		ImageURL:          e.ImageURL,
		Status:            d.Status,
		NeedsVerification: d.NeedsVerification,
		Score:             d.Diagnosis.Score,
		IsTrusted:         src.Trusted,
		IsVIP:             d.VIP(),
		SensitiveLocation: d.Sensitive(),
		CreatedAt:         domain.Now(),
	}
	a.ApplyImpact(d.Impact)
	return a
}

// Annotate sets the article's risk level from everything known about it.
func Annotate(a *domain.Article) risk.Assessment {
	text := a.Title + ". " + a.Summary
	if a.FullText != "" {
		text += "\n" + a.FullText
	}
	as := risk.Assess(text, a.Province)
	a.RiskLevel = as.Overall
	return as
}

func publishedAt(e ingest.Entry) time.Time {
	if e.PublishedAt.IsZero() {
		return domain.Now()
	}
	return e.PublishedAt.UTC()
}
