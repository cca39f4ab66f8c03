// Package scorer decides whether a news item is admitted and with which
// review status.
package scorer

import (
	"math"
	"strings"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/filter"
	"github.com/couchcryptid/vn-hazard-radar/internal/hazard"
	"github.com/couchcryptid/vn-hazard-radar/internal/impact"
	"github.com/couchcryptid/vn-hazard-radar/internal/province"
	"github.com/couchcryptid/vn-hazard-radar/internal/risk"
	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// Weights of the score components.
const (
	WeightHazard     = 3.0
	WeightImpact     = 3.0
	WeightAgency     = 2.0
	WeightKeyword    = 1.0
	WeightProvince   = 0.5
	MaxKeywordPoints = 3.0
	Threshold        = 3.0
	StrictThreshold  = 5.0
	VIPScore         = 10.0
	softNegativeCut  = 3.0
	promoteAbove     = 0.8
	demoteBelow      = 0.2
)

// Reason tags attached to a decision.
const (
	ReasonAbsoluteVeto    = "absolute_veto"
	ReasonConditionalVeto = "conditional_veto"
	ReasonEmptyTitle      = "empty_title_without_evidence"
	ReasonVIP             = "vip"
	ReasonLivesLost       = "lives_lost"
	ReasonSensitive       = "sensitive_location"
	ReasonBelowThreshold  = "below_threshold"
	ReasonTrusted         = "trusted_source"
	ReasonCorroborated    = "impact_or_agency"
	ReasonNeedsReview     = "needs_review"
)

// ProbabilityHook is an optional classifier consulted after the rules. It
// returns a disaster probability and whether it produced one.
type ProbabilityHook func(text string) (float64, bool)

// Input is one candidate article.
type Input struct {
	Title   string
	Summary string
	Trusted bool
}

// Signals are the facts the decision was based on.
type Signals struct {
	HazardLabels    []string `json:"hazard_labels"`
	Keywords        []string `json:"keywords"`
	Impact          bool     `json:"impact"`
	ImpactNumbers   bool     `json:"impact_numbers"`
	Agency          string   `json:"agency,omitempty"`
	Province        string   `json:"province"`
	AbsoluteVeto    string   `json:"absolute_veto,omitempty"`
	ConditionalVeto string   `json:"conditional_veto,omitempty"`
	SoftNegative    string   `json:"soft_negative,omitempty"`
	VIP             string   `json:"vip,omitempty"`
	Sensitive       string   `json:"sensitive_location,omitempty"`
	LivesLost       bool     `json:"lives_lost"`
	Measurement     bool     `json:"measurement"`
	Trusted         bool     `json:"trusted"`
	TitleHazard     bool     `json:"title_hazard"`
	Probability     *float64 `json:"probability,omitempty"`
}

// Diagnosis is the machine-readable explanation persisted to review logs.
type Diagnosis struct {
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
	Signals Signals `json:"signals"`
}

// Decision is the scorer outcome together with the extraction it computed,
// so callers do not have to run the rule engines twice.
type Decision struct {
	Status    domain.Status
	Diagnosis Diagnosis

	Classification    hazard.Classification
	Impact            domain.Impact
	Province          string
	NeedsVerification bool
	Issues            []string
}

// Admitted reports whether the article is stored.
func (d Decision) Admitted() bool { return d.Status != domain.StatusRejected }

// VIP reports whether a dispatch phrase matched.
func (d Decision) VIP() bool { return d.Diagnosis.Signals.VIP != "" }

// Sensitive reports whether a sensitive location matched.
func (d Decision) Sensitive() bool { return d.Diagnosis.Signals.Sensitive != "" }

// Scorer applies the acceptance rules.
type Scorer struct {
	resolver *province.Resolver
	hook     ProbabilityHook
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithProbabilityHook installs a classifier that can promote pending items
// or demote approved ones that no override forced.
func WithProbabilityHook(h ProbabilityHook) Option {
	return func(s *Scorer) { s.hook = h }
}

// WithResolver replaces the province resolver.
func WithResolver(r *province.Resolver) Option {
	return func(s *Scorer) { s.resolver = r }
}

// New builds a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{resolver: province.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Diagnose scores a bare text as an untrusted headline.
func Diagnose(text string) Diagnosis {
	return New().Decide(Input{Title: text}).Diagnosis
}

// Decide scores in and returns the decision.
func (s *Scorer) Decide(in Input) Decision {
	title := textnorm.RemoveBoilerplate(in.Title)
	summary := textnorm.RemoveBoilerplate(in.Summary)
	text := strings.TrimSpace(title + ". " + summary)
	if title == "" {
		text = summary
	}

	t := textnorm.New(text)
	verdict := filter.EvaluateText(t)
	masked := filter.Mask(t)

	cls := hazard.ClassifyText(masked)
	im := impact.Extract(masked.Norm)
	trigger := impact.HasTrigger(masked.Norm)
	prov := s.resolver.ExtractText(masked)
	vipHit, _ := VIP(masked)
	sensHit, _ := Sensitive(masked)
	titleHazard := hazard.ClassifyText(filter.Mask(textnorm.New(title))).Physical()

	sig := Signals{
		HazardLabels:    nonNil(cls.Labels),
		Keywords:        nonNil(cls.Keywords),
		Impact:          trigger,
		ImpactNumbers:   !im.Empty(),
		Province:        prov,
		AbsoluteVeto:    verdict.AbsoluteVeto,
		ConditionalVeto: verdict.ConditionalVeto,
		SoftNegative:    verdict.SoftNegative,
		VIP:             vipHit,
		Sensitive:       sensHit,
		LivesLost:       livesLost(im),
		Measurement:     risk.ParseText(masked).Any(),
		Trusted:         in.Trusted,
		TitleHazard:     titleHazard,
	}
	if im.Agency != nil {
		sig.Agency = *im.Agency
	}

	score := 0.0
	if cls.Matched() {
		score += WeightHazard
	}
	if trigger {
		score += WeightImpact
	}
	if sig.Agency != "" {
		score += WeightAgency
	}
	score += math.Min(float64(len(cls.Keywords))*WeightKeyword, MaxKeywordPoints)
	if prov != province.Unknown {
		score += WeightProvince
	}

	d := Decision{
		Classification: cls,
		Impact:         im,
		Province:       prov,
	}
	d.Issues = impact.Validate(im)
	d.NeedsVerification = len(d.Issues) > 0

	decide := func(st domain.Status, reason string) Decision {
		d.Status = st
		d.Diagnosis = Diagnosis{Score: score, Reason: reason, Signals: sig}
		return d
	}

	physical := cls.Physical()
	strongImpact := im.HasCasualties() || im.DamageBillionVND != nil

	switch {
	case verdict.Absolute():
		return decide(domain.StatusRejected, ReasonAbsoluteVeto)
	case title == "" && !(physical && (trigger || sig.ImpactNumbers)):
		return decide(domain.StatusRejected, ReasonEmptyTitle)
	case vipHit != "" && cls.Matched():
		score = math.Max(score, VIPScore)
		return decide(domain.StatusApproved, ReasonVIP)
	case verdict.Conditional() && !sig.Measurement && !strongImpact:
		return decide(domain.StatusRejected, ReasonConditionalVeto)
	case sig.LivesLost && physical:
		return decide(domain.StatusApproved, ReasonLivesLost)
	case sensHit != "" && physical && trigger:
		return decide(domain.StatusApproved, ReasonSensitive)
	}

	if verdict.Soft() && len(cls.Keywords) == 0 && im.Empty() {
		score -= softNegativeCut
	}
	threshold := Threshold
	if !titleHazard && !in.Trusted {
		threshold = StrictThreshold
	}

	var out Decision
	switch {
	case score < threshold:
		out = decide(domain.StatusRejected, ReasonBelowThreshold)
	case in.Trusted:
		out = decide(domain.StatusApproved, ReasonTrusted)
	case sig.ImpactNumbers || sig.Agency != "":
		out = decide(domain.StatusApproved, ReasonCorroborated)
	default:
		out = decide(domain.StatusPending, ReasonNeedsReview)
	}
	return s.applyHook(out, text)
}

// applyHook lets the optional classifier move an item between approved and
// pending. Rejections and forced approvals are never changed.
func (s *Scorer) applyHook(d Decision, text string) Decision {
	if s.hook == nil || d.Status == domain.StatusRejected {
		return d
	}
	p, ok := s.hook(text)
	if !ok {
		return d
	}
	d.Diagnosis.Signals.Probability = &p
	switch {
	case d.Status == domain.StatusPending && p >= promoteAbove:
		d.Status = domain.StatusApproved
	case d.Status == domain.StatusApproved && !d.Diagnosis.Signals.Trusted && p < demoteBelow:
		d.Status = domain.StatusPending
		d.Diagnosis.Reason = ReasonNeedsReview
	}
	return d
}

func livesLost(im domain.Impact) bool {
	for _, list := range [][]int{im.Deaths, im.Missing} {
		for _, n := range list {
			if n > 0 {
				return true
			}
		}
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
