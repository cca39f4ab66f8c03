package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/vn-hazard-radar/internal/dedup"
	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
	"github.com/couchcryptid/vn-hazard-radar/internal/hazard"
)

// Site describes how to crawl the list pages of one publisher.
type Site struct {
	// Pages are the list pages to crawl. Defaults to the home page.
	Pages []string
	// Links selects the article anchors. Empty means the generic extractor.
	Links string
}

// defaultSites are publishers whose section pages have a known layout.
var defaultSites = map[string]Site{
	"vnexpress.net": {
		Pages: []string{"https://vnexpress.net/thoi-su", "https://vnexpress.net/thoi-su/thoi-tiet"},
		Links: "h3.title-news a, h2.title-news a",
	},
	"tuoitre.vn": {
		Pages: []string{"https://tuoitre.vn/thoi-su.htm"},
		Links: "h3.box-title-text a, h2.box-title-text a",
	},
	"dantri.com.vn": {
		Pages: []string{"https://dantri.com.vn/xa-hoi/thien-tai.htm"},
		Links: "h3.article-title a",
	},
	"thanhnien.vn": {
		Pages: []string{"https://thanhnien.vn/thoi-su.htm"},
		Links: "h3.box-title-text a, h2.box-title-text a",
	},
	"nchmf.gov.vn": {
		Pages: []string{"https://nchmf.gov.vn/Kttv/vi-VN/1/index.html"},
	},
	"phongchongthientai.mard.gov.vn": {
		Pages: []string{"https://phongchongthientai.mard.gov.vn/Pages/Tin-tuc.aspx"},
	},
}

// minLinkText filters navigation anchors out of the generic extractor.
const minLinkText = 20

// Scraper is the last fallback of the chain: it crawls list pages and
// extracts article links.
type Scraper struct {
	fetcher *Fetcher
	sites   map[string]Site
}

// NewScraper returns a Scraper with the built-in site registry plus extra.
func NewScraper(f *Fetcher, extra map[string]Site) *Scraper {
	sites := make(map[string]Site, len(defaultSites)+len(extra))
	for k, v := range defaultSites {
		sites[k] = v
	}
	for k, v := range extra {
		sites[k] = v
	}
	return &Scraper{fetcher: f, sites: sites}
}

// Scrape crawls the list pages of src. Pages that fail are skipped; the
// error of the last failure is returned only when nothing was extracted.
func (s *Scraper) Scrape(ctx context.Context, src domain.Source) ([]Entry, error) {
	site, ok := s.sites[src.Domain]
	if !ok {
		site = s.sites[dedup.Registrable(src.Domain)]
	}
	pages := site.Pages
	if len(pages) == 0 {
		pages = []string{"https://" + src.Domain + "/"}
	}

	var (
		out     []Entry
		lastErr error
		seen    = make(map[string]struct{})
	)
	for _, page := range pages {
		res := s.fetcher.Fetch(ctx, page, Validator{})
		if res.Kind != KindOK {
			lastErr = res.Err
			continue
		}
		entries, err := ExtractLinks(res.Body, res.URL, site.Links)
		if err != nil {
			lastErr = err
			continue
		}
		for _, e := range entries {
			if _, dup := seen[e.URL]; dup {
				continue
			}
			seen[e.URL] = struct{}{}
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		if lastErr == nil {
			lastErr = ErrNoEntries
		}
		return nil, lastErr
	}
	return out, nil
}

// ExtractLinks pulls article links from a list page. With a selector, every
// matched anchor is taken. Without one, anchors on the same site whose text
// mentions a hazard are taken.
func ExtractLinks(body []byte, pageURL, selector string) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse list page: %w", err)
	}
	base, _ := url.Parse(pageURL)

	generic := selector == ""
	if generic {
		selector = "a[href]"
	}
	var out []Entry
	seen := make(map[string]struct{})
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := resolve(base, strings.TrimSpace(href))
		if link == "" {
			return
		}
		title := collapse(a.Text())
		if title == "" {
			title, _ = a.Attr("title")
			title = collapse(title)
		}
		if generic {
			if utf8.RuneCountInString(title) < minLinkText || !dedup.SameSite(link, pageURL) {
				return
			}
			if !hazard.HasHazardKeyword(title) {
				return
			}
		}
		if title == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out = append(out, Entry{Title: title, URL: link})
	})
	if len(out) == 0 {
		return nil, ErrNoEntries
	}
	return out, nil
}
