// Package hazard classifies Vietnamese text into the hazard taxonomy.
package hazard

import (
	"regexp"
	"strings"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

type compiledRule struct {
	label string
	pairs []textnorm.Pair
	guard *regexp.Regexp
}

var compiled = compile(rules)

func compile(rs []rule) map[string]compiledRule {
	out := make(map[string]compiledRule, len(rs))
	for _, r := range rs {
		cr := compiledRule{label: r.label, pairs: textnorm.MustPairs(r.patterns...)}
		if r.guard != "" {
			cr.guard = textnorm.MustCompileBounded(r.guard)
		}
		out[r.label] = cr
	}
	return out
}

// Classification is the result of matching a text against the taxonomy.
type Classification struct {
	Primary  string   `json:"primary_type"`
	Labels   []string `json:"all_types"`
	Keywords []string `json:"keywords"`
}

// Matched reports whether any label fired.
func (c Classification) Matched() bool { return len(c.Labels) > 0 }

// Physical reports whether any label other than forecast or relief fired.
func (c Classification) Physical() bool {
	for _, l := range c.Labels {
		if !domain.IsMetaHazard(l) {
			return true
		}
	}
	return false
}

// Classify matches text against every label. Labels are returned in priority
// order and Primary is the first of them, or "unknown".
func Classify(text string) Classification {
	return ClassifyText(textnorm.New(text))
}

// ClassifyText is Classify for an already normalized text.
func ClassifyText(t textnorm.Text) Classification {
	c := Classification{Primary: domain.HazardUnknown}
	seen := make(map[string]struct{})
	for _, label := range domain.HazardPriority {
		r := compiled[label]
		fired := false
		for _, p := range r.pairs {
			kw, ok := r.find(p, t)
			if !ok {
				continue
			}
			fired = true
			if strong(p.Source) {
				key := textnorm.StripAccents(kw)
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					c.Keywords = append(c.Keywords, kw)
				}
			}
		}
		if fired {
			c.Labels = append(c.Labels, label)
		}
	}
	if len(c.Labels) > 0 {
		c.Primary = c.Labels[0]
	}
	return c
}

func (r compiledRule) find(p textnorm.Pair, t textnorm.Text) (string, bool) {
	if m := p.Accent.FindStringSubmatch(t.Norm); m != nil {
		return m[1], true
	}
	if t.Accented() {
		return "", false
	}
	m := p.Plain.FindStringSubmatch(t.Plain)
	if m == nil {
		return "", false
	}
	if r.guard != nil && !r.guard.MatchString(t.Plain) {
		return "", false
	}
	return m[1], true
}

// strong reports whether a pattern spans more than one word. Single-word
// patterns ("bão", "lũ", "lốc") are ambiguous and do not count as keywords.
func strong(pattern string) bool {
	return strings.Contains(pattern, `\s`)
}

// MatchedLabels returns the set of labels matching text, in priority order.
func MatchedLabels(text string) []string {
	return Classify(text).Labels
}

// HasHazardKeyword reports whether text mentions any physical hazard.
func HasHazardKeyword(text string) bool {
	return Classify(text).Physical()
}
