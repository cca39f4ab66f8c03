// Package impact extracts casualty, damage and disruption figures from
// Vietnamese disaster reports.
package impact

import (
	"regexp"
	"strings"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// Extract parses every impact class out of text. Numbers in planning or
// forecast clauses are dropped, and a negated class ("không có người chết")
// is suppressed for the sentence it appears in.
func Extract(text string) domain.Impact {
	acc := newAccumulator()
	norm := textnorm.Normalize(text)
	t := tableFor(norm)

	for _, sentence := range splitSentences(norm) {
		suppressed := t.negatedClasses(sentence)
		for _, clause := range t.clauses(sentence) {
			if t.planning.MatchString(clause) {
				continue
			}
			t.extractClause(acc, sentence, clause, suppressed)
		}
	}

	im := acc.impact()
	im.Agency = Agency(norm)
	return im
}

func splitSentences(s string) []string {
	parts := sentenceSplit.Split(s, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// clauses splits a sentence on commas and contrast words. A clause holding
// only a casualty trigger ("..., mất tích") is joined back onto a preceding
// clause that counts people without naming what happened to them.
func (t *table) clauses(sentence string) []string {
	parts := t.clauseSplit.Split(sentence, -1)
	out := parts[:0]
	for _, c := range parts {
		if n := len(out); n > 0 && t.bareCasualty.MatchString(c) &&
			t.humanCount.MatchString(out[n-1]) && !t.casualty.MatchString(out[n-1]) {
			out[n-1] += " " + c
			continue
		}
		out = append(out, c)
	}
	return out
}

func (t *table) negatedClasses(sentence string) map[class]bool {
	out := make(map[class]bool)
	for _, n := range t.negations {
		if n.re.MatchString(sentence) {
			for _, c := range n.classes {
				out[c] = true
			}
		}
	}
	return out
}

func (t *table) extractClause(acc *accumulator, sentence, clause string, suppressed map[class]bool) {
	for _, r := range t.rules {
		if suppressed[r.class] || !t.gateOpen(r.class, sentence) {
			continue
		}
		for _, loc := range r.re.FindAllStringSubmatchIndex(clause, -1) {
			if r.next != nil && r.next.MatchString(clause[loc[1]:]) {
				continue
			}
			m := submatches(clause, loc)
			v, ok := captureValue(r.re, m)
			if !ok || v <= 0 {
				continue
			}
			unit := ""
			if r.unit != nil {
				unit = r.unit(m[r.re.SubexpIndex("u")])
			}
			acc.add(r.class, v, unit)
		}
	}

	if !suppressed[classDamage] && t.damageGate.MatchString(sentence) && !t.reliefGate.MatchString(clause) {
		for _, m := range t.money.FindAllStringSubmatch(clause, -1) {
			if v, ok := moneyValue(t.money, m); ok {
				acc.money(v)
			}
		}
	}
}

func (t *table) gateOpen(c class, sentence string) bool {
	switch c {
	case classAgriculture:
		return t.agriGate.MatchString(sentence) && t.agriHarm.MatchString(sentence)
	case classMarine:
		return t.marineGate.MatchString(sentence)
	default:
		return true
	}
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// moneyValue converts a captured amount to billions of VND.
func moneyValue(re *regexp.Regexp, m []string) (float64, bool) {
	v, ok := captureValue(re, m)
	if !ok || v <= 0 {
		return 0, false
	}
	switch plainUnit(m[re.SubexpIndex("u")]) {
	case "nghin ty", "ngan ty":
		return v * 1000, true
	case "trieu":
		return v * 0.001, true
	default:
		return v, true
	}
}

// HasTrigger reports whether text contains any impact keyword, with or
// without an accompanying number.
func HasTrigger(text string) bool {
	norm := textnorm.Normalize(text)
	return tableFor(norm).triggers.MatchString(norm)
}

type accumulator struct {
	ints   map[class][]int
	seen   map[class]map[domain.Quantity]struct{}
	lists  map[class][]domain.Quantity
	damage *float64
}

func newAccumulator() *accumulator {
	return &accumulator{
		ints:  make(map[class][]int),
		seen:  make(map[class]map[domain.Quantity]struct{}),
		lists: make(map[class][]domain.Quantity),
	}
}

func (a *accumulator) add(c class, v float64, unit string) {
	switch c {
	case classDeaths, classMissing, classInjured:
		n := toInt(v)
		for _, have := range a.ints[c] {
			if have == n {
				return
			}
		}
		a.ints[c] = append(a.ints[c], n)
	default:
		q := domain.Quantity{Num: v, Unit: unit}
		if a.seen[c] == nil {
			a.seen[c] = make(map[domain.Quantity]struct{})
		}
		if _, ok := a.seen[c][q]; ok {
			return
		}
		a.seen[c][q] = struct{}{}
		a.lists[c] = append(a.lists[c], q)
	}
}

func (a *accumulator) money(v float64) {
	if a.damage == nil || v > *a.damage {
		a.damage = &v
	}
}

func (a *accumulator) impact() domain.Impact {
	return domain.Impact{
		Deaths:           nonNilInts(a.ints[classDeaths]),
		Missing:          nonNilInts(a.ints[classMissing]),
		Injured:          nonNilInts(a.ints[classInjured]),
		DamageBillionVND: a.damage,
		Damage:           nonNilQuantities(a.lists[classDamage]),
		Agriculture:      nonNilQuantities(a.lists[classAgriculture]),
		Marine:           nonNilQuantities(a.lists[classMarine]),
		Disruption:       nonNilQuantities(a.lists[classDisruption]),
	}
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func nonNilQuantities(s []domain.Quantity) []domain.Quantity {
	if s == nil {
		return []domain.Quantity{}
	}
	return s
}
