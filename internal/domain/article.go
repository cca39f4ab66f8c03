package domain

import "time"

// Status is the review lifecycle of an article.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

// Stage is the phase of a hazard occurrence an article or event reports on.
type Stage string

const (
	StageWarning  Stage = "WARNING"
	StageIncident Stage = "INCIDENT"
	StageRecovery Stage = "RECOVERY"
)

// StageFor derives the stage from the matched hazard labels. Relief coverage is
// RECOVERY; a forecast without any reported impact is WARNING; everything else
// is INCIDENT.
func StageFor(labels []string, hasImpact bool) Stage {
	var warning bool
	for _, l := range labels {
		switch l {
		case HazardRecovery:
			return StageRecovery
		case HazardWarningForecast:
			warning = true
		}
	}
	if warning && !hasImpact {
		return StageWarning
	}
	return StageIncident
}

// Article is a single published news item admitted to storage.
type Article struct {
	ID           int64     `json:"id"`
	Source       string    `json:"source"`
	Domain       string    `json:"domain"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	CanonicalURL string    `json:"canonical_url"`
	NewsHash     string    `json:"news_hash"`
	PublishedAt  time.Time `json:"published_at"`

	HazardType string `json:"disaster_type"`
	Province   string `json:"province"`
	Commune    string `json:"commune,omitempty"`
	Stage      Stage  `json:"stage"`

	Deaths           *int     `json:"deaths"`
	Missing          *int     `json:"missing"`
	Injured          *int     `json:"injured"`
	DamageBillionVND *float64 `json:"damage_billion_vnd"`
	Agency           string   `json:"agency,omitempty"`
	ImpactDetails    Impact   `json:"impact_details"`

	Summary  string `json:"summary"`
	FullText string `json:"full_text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`

	Status            Status  `json:"status"`
	NeedsVerification bool    `json:"needs_verification"`
	Score             float64 `json:"score"`
	RiskLevel         int     `json:"risk_level"`

	// Signals captured at decision time; event confidence is derived from them.
	IsTrusted         bool `json:"is_trusted"`
	IsVIP             bool `json:"is_vip"`
	SensitiveLocation bool `json:"sensitive_location"`

	EventID   *int64    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Live reports whether the article still counts towards its event.
func (a *Article) Live() bool {
	return a.Status == StatusApproved || a.Status == StatusPending
}

// ApplyImpact copies the scalar view of an impact extraction onto the article.
func (a *Article) ApplyImpact(im Impact) {
	a.ImpactDetails = im
	a.Deaths = MaxInt(im.Deaths)
	a.Missing = MaxInt(im.Missing)
	a.Injured = MaxInt(im.Injured)
	a.DamageBillionVND = im.DamageBillionVND
	if im.Agency != nil {
		a.Agency = *im.Agency
	}
}

// HasStrongMetrics reports whether the article carries any casualty figure or
// a damage estimate of at least half a billion VND.
func (a *Article) HasStrongMetrics() bool {
	for _, p := range []*int{a.Deaths, a.Missing, a.Injured} {
		if p != nil && *p > 0 {
			return true
		}
	}
	return a.DamageBillionVND != nil && *a.DamageBillionVND >= 0.5
}
