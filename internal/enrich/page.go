package enrich

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoContent reports a page without recognizable article text or image.
var ErrNoContent = errors.New("no recognizable content")

// contentSelectors are tried in order; the first yielding enough text wins.
var contentSelectors = []string{
	"article",
	".fck_detail",
	".detail-content",
	".cms-body",
	".post-content",
	".content-detail",
	".article-body",
	"#content_detail",
}

const (
	minContent   = 200
	minParagraph = 40
	minImageSize = 200
	// MaxFullText bounds the stored article body.
	MaxFullText = 100_000
)

var badImage = regexp.MustCompile(`(?i)logo|placeholder|\bads\b`)

// Page is the readable part of an article page.
type Page struct {
	URL      string
	Text     string
	ImageURL string
}

// ParsePage extracts the article text and lead image from an HTML page.
func ParsePage(body []byte, pageURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse page: %w", err)
	}
	doc.Find("script, style, noscript, iframe").Remove()
	base, _ := url.Parse(pageURL)

	content, text := readable(doc)
	p := Page{
		URL:      pageURL,
		Text:     truncate(text, MaxFullText),
		ImageURL: leadImage(doc, content, base),
	}
	if p.Text == "" && p.ImageURL == "" {
		return p, ErrNoContent
	}
	return p, nil
}

// readable returns the content block and its text, or the long paragraphs of
// the whole page when no selector matches.
func readable(doc *goquery.Document) (*goquery.Selection, string) {
	for _, sel := range contentSelectors {
		block := doc.Find(sel).First()
		if block.Length() == 0 {
			continue
		}
		if text := blockText(block); utf8.RuneCountInString(text) >= minContent {
			return block, text
		}
	}

	var paras []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := collapse(p.Text()); utf8.RuneCountInString(t) > minParagraph {
			paras = append(paras, t)
		}
	})
	return doc.Selection, strings.Join(paras, "\n")
}

// blockText keeps paragraph breaks when the block has paragraphs.
func blockText(block *goquery.Selection) string {
	ps := block.Find("p")
	if ps.Length() == 0 {
		return collapse(block.Text())
	}
	var parts []string
	ps.Each(func(_ int, p *goquery.Selection) {
		if t := collapse(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func leadImage(doc *goquery.Document, content *goquery.Selection, base *url.URL) string {
	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
	} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if u := absolute(base, v); u != "" {
				return u
			}
		}
	}

	var found string
	content.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := img.AttrOr("data-src", "")
		if src == "" {
			src = img.AttrOr("src", "")
		}
		u := absolute(base, src)
		if u == "" || badImage.MatchString(u) {
			return true
		}
		if w, err := strconv.Atoi(strings.TrimSuffix(img.AttrOr("width", ""), "px")); err == nil && w < minImageSize {
			return true
		}
		found = u
		return false
	})
	return found
}

func absolute(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
