package eventmatch

import "github.com/couchcryptid/vn-hazard-radar/internal/domain"

// Signals summarize the live articles of an event.
type Signals struct {
	Trusted       bool
	VIP           bool
	Sensitive     bool
	StrongMetrics bool
	Sources       int
}

// SignalsOf collects the confidence signals of children.
func SignalsOf(children []domain.Article) Signals {
	var s Signals
	sources := make(map[string]struct{}, len(children))
	for i := range children {
		a := &children[i]
		s.Trusted = s.Trusted || a.IsTrusted
		s.VIP = s.VIP || a.IsVIP
		s.Sensitive = s.Sensitive || a.SensitiveLocation
		s.StrongMetrics = s.StrongMetrics || a.HasStrongMetrics()
		sources[a.Source] = struct{}{}
	}
	s.Sources = len(sources)
	return s
}

// Confidence maps the signals to a score in [0, 1]. The first matching rung
// of the ladder wins.
func Confidence(s Signals) float64 {
	switch {
	case s.VIP:
		return 1.00
	case s.Sensitive && s.Trusted:
		return 0.98
	case s.Trusted && s.Sources >= 2:
		return 0.95
	case s.Trusted:
		return 0.90
	case s.Sensitive && s.Sources >= 2:
		return 0.85
	case s.Sensitive:
		return 0.70
	case s.StrongMetrics && s.Sources >= 2:
		return 0.80
	case s.StrongMetrics:
		return 0.60
	}
	switch {
	case s.Sources >= 4:
		return 0.85
	case s.Sources == 3:
		return 0.75
	case s.Sources == 2:
		return 0.50
	case s.Sources == 1:
		return 0.30
	default:
		return 0
	}
}
