// Package textnorm normalizes Vietnamese text for rule matching.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text carries an input in the forms the rule tables match against.
type Text struct {
	Raw   string
	Norm  string // NFC, lowercase, single-spaced
	Plain string // Norm with diacritics removed and đ folded to d
}

// New normalizes s into every matching form.
func New(s string) Text {
	n := Normalize(s)
	return Text{Raw: s, Norm: n, Plain: StripAccents(n)}
}

// Accented reports whether the text was written with Vietnamese diacritics.
// Accent-stripped patterns only apply to texts that were not.
func (t Text) Accented() bool {
	return HasDiacritics(t.Norm)
}

// Normalize applies NFC, lowercases and collapses whitespace.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// StripAccents removes combining marks and folds đ to d.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

// HasDiacritics reports whether s contains any Vietnamese-specific letter or
// tone mark.
func HasDiacritics(s string) bool {
	for _, r := range s {
		if r == 'đ' || r == 'Đ' {
			return true
		}
		if r > unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:video|clip|ảnh|infographic|trực tiếp|tin nóng|nóng|emagazine|podcast)\s*[:|\-–]\s*`),
	regexp.MustCompile(`(?i)\s*\((?:vtc news|tto|tno|vnexpress|dân trí|dan tri|vov|ttxvn|baotintuc\.vn|vtv\.vn|nld|plo|vietnamnet)\)\s*`),
	regexp.MustCompile(`(?i)\s+[|\-–]\s+(?:báo|tạp chí|vnexpress|tuổi trẻ|thanh niên|dân trí|vov|vtv|vietnamnet|người lao động|zing)[^|\-–]{0,40}$`),
	regexp.MustCompile(`(?i)\s*\[(?:video|ảnh|clip)\]\s*`),
}

// RemoveBoilerplate strips publisher tags and media prefixes from headlines
// and summaries.
func RemoveBoilerplate(s string) string {
	for _, re := range boilerplate {
		s = re.ReplaceAllString(s, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits normalized text into word tokens (letters and digits).
func Tokens(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Bounded wraps a pattern in Unicode-aware word boundaries. RE2 has no
// lookaround and \b only knows ASCII, so the boundary characters are consumed;
// the pattern itself is captured as group 1.
func Bounded(pattern string) string {
	return `(?:^|[^\p{L}\p{N}_])(` + pattern + `)(?:[^\p{L}\p{N}_]|$)`
}

// MustCompileBounded compiles a bounded pattern.
func MustCompileBounded(pattern string) *regexp.Regexp {
	return regexp.MustCompile(Bounded(pattern))
}

// Pair is a pattern compiled for both accented and accent-stripped text.
type Pair struct {
	Source string
	Accent *regexp.Regexp
	Plain  *regexp.Regexp
}

// MustPair compiles pattern against both text forms.
func MustPair(pattern string) Pair {
	return Pair{
		Source: pattern,
		Accent: MustCompileBounded(pattern),
		Plain:  MustCompileBounded(StripAccents(pattern)),
	}
}

// Find returns the first match of the pair in t. Accent-stripped matching is
// only attempted on texts written without diacritics.
func (p Pair) Find(t Text) (string, bool) {
	if m := p.Accent.FindStringSubmatch(t.Norm); m != nil {
		return m[1], true
	}
	if t.Accented() {
		return "", false
	}
	if m := p.Plain.FindStringSubmatch(t.Plain); m != nil {
		return m[1], true
	}
	return "", false
}

// Match reports whether the pair matches t.
func (p Pair) Match(t Text) bool {
	_, ok := p.Find(t)
	return ok
}

// MustPairs compiles a list of patterns.
func MustPairs(patterns ...string) []Pair {
	out := make([]Pair, len(patterns))
	for i, p := range patterns {
		out[i] = MustPair(p)
	}
	return out
}

// FirstMatch returns the first matching text of any pair in the list.
func FirstMatch(pairs []Pair, t Text) (string, bool) {
	for _, p := range pairs {
		if m, ok := p.Find(t); ok {
			return m, true
		}
	}
	return "", false
}
