package ingest

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultSearchBase is the Google News RSS search endpoint.
const DefaultSearchBase = "https://news.google.com/rss/search"

var (
	searchHazards = []string{
		"bão", "áp thấp nhiệt đới", "lũ", "lũ quét", "ngập lụt", "sạt lở",
		"mưa lớn", "triều cường", "động đất", "nắng nóng", "hạn hán",
		"xâm nhập mặn", "lốc xoáy", "mưa đá", "cháy rừng",
	}
	searchContext = []string{
		"thiệt hại", "thương vong", "người chết", "mất tích", "sơ tán",
		"cảnh báo", "công điện", "cứu hộ", "khắc phục",
	}
)

// SearchURL builds the syndicated search feed for a publisher domain:
// site:{domain} AND (hazard OR ...) AND (context OR ...).
func SearchURL(base, domain string) string {
	if base == "" {
		base = DefaultSearchBase
	}
	q := "site:" + domain + " AND (" + orTerms(searchHazards) + ") AND (" + orTerms(searchContext) + ")"
	v := url.Values{}
	v.Set("q", q)
	v.Set("hl", "vi")
	v.Set("gl", "VN")
	v.Set("ceid", "VN:vi")
	return base + "?" + v.Encode()
}

func orTerms(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		if strings.Contains(t, " ") {
			t = `"` + t + `"`
		}
		quoted[i] = t
	}
	return strings.Join(quoted, " OR ")
}

// trimPublisher removes the " - Publisher" suffix search feeds append to titles.
func trimPublisher(title string) string {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title
	}
	if utf8.RuneCountInString(title[i+3:]) > 40 {
		return title
	}
	return strings.TrimSpace(title[:i])
}
