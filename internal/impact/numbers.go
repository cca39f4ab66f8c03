package impact

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// numTok matches one Vietnamese number: digit groups with "." or "," as
// separators, or a spelled number up to ninety-nine. Compounds come first so
// "mười hai" is not read as "mười".
const numTok = `\d+(?:[.,]\d+)*` +
	`|(?:hai|ba|bốn|năm|sáu|bảy|tám|chín)\s+mươi(?:\s+(?:mốt|một|hai|ba|bốn|tư|lăm|sáu|bảy|tám|chín))?` +
	`|mười\s+(?:một|hai|ba|bốn|lăm|sáu|bảy|tám|chín)` +
	`|một|hai|ba|bốn|năm|sáu|bảy|tám|chín|mười|vài|hàng\s+chục|hàng\s+trăm|hàng\s+nghìn|hàng\s+ngàn|hàng\s+vạn|chục`

// qualifier is an optional approximation word before a number.
const qualifier = `(?:(?:ít\s+nhất|tối\s+thiểu|khoảng|chừng|hơn|trên|gần|lên\s+tới|lên\s+đến|lên|tới|thêm|tổng\s+cộng)\s+)?`

// number captures n (value), hi (range upper bound) and mul (thousand multiplier).
const number = `(?P<n>` + numTok + `)(?:\s*(?:-|–|đến|tới)\s*(?P<hi>` + numTok + `))?(?:\s+(?P<mul>nghìn|ngàn|vạn))?`

// spelled is keyed by accent-stripped words.
var spelled = map[string]float64{
	"mot": 1, "hai": 2, "ba": 3, "bon": 4, "nam": 5, "sau": 6, "bay": 7,
	"tam": 8, "chin": 9, "muoi": 10, "vai": 2, "chuc": 10,
	"hang chuc": 10, "hang tram": 100, "hang nghin": 1000, "hang ngan": 1000, "hang van": 10000,
}

// digits holds the unit words allowed inside a compound; "mốt", "tư" and
// "lăm" only appear there.
var digits = map[string]float64{
	"mot": 1, "hai": 2, "ba": 3, "bon": 4, "tu": 4, "lam": 5, "nam": 5,
	"sau": 6, "bay": 7, "tam": 8, "chin": 9,
}

// spelledValue reads a spelled number: single words, "mười X" and
// "X mươi [Y]".
func spelledValue(s string) (float64, bool) {
	if v, ok := spelled[s]; ok {
		return v, true
	}
	w := strings.Fields(s)
	switch {
	case len(w) == 2 && w[0] == "muoi":
		if u, ok := digits[w[1]]; ok {
			return 10 + u, true
		}
	case (len(w) == 2 || len(w) == 3) && w[1] == "muoi":
		tens, ok := digits[w[0]]
		if !ok || tens < 2 || w[0] == "tu" || w[0] == "lam" {
			return 0, false
		}
		v := tens * 10
		if len(w) == 3 {
			u, ok := digits[w[2]]
			if !ok {
				return 0, false
			}
			v += u
		}
		return v, true
	}
	return 0, false
}

var thousandsRe = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

// ParseNumber parses one Vietnamese number token. "1.200" and "1,200" are
// thousands, "1,5" and "1.5" are decimals.
func ParseNumber(s string) (float64, bool) {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if v, ok := spelledValue(textnorm.StripAccents(s)); ok {
		return v, true
	}
	if thousandsRe.MatchString(s) {
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	} else {
		s = strings.ReplaceAll(s, ",", ".")
		if strings.Count(s, ".") > 1 {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// captureValue reads the number captured by a pattern built with the number
// fragment. Ranges resolve to their upper bound.
func captureValue(re *regexp.Regexp, m []string) (float64, bool) {
	v, ok := ParseNumber(m[re.SubexpIndex("n")])
	if !ok {
		return 0, false
	}
	if i := re.SubexpIndex("hi"); i > 0 && m[i] != "" {
		if hi, ok := ParseNumber(m[i]); ok && hi > v {
			v = hi
		}
	}
	if i := re.SubexpIndex("mul"); i > 0 && m[i] != "" {
		switch textnorm.StripAccents(m[i]) {
		case "nghin", "ngan":
			v *= 1000
		case "van":
			v *= 10000
		}
	}
	return v, true
}

func toInt(v float64) int {
	return int(math.Round(v))
}
