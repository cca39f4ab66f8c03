package ingest

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Entry is one candidate item taken from a feed or a list page.
type Entry struct {
	Title       string
	URL         string
	Summary     string
	ImageURL    string
	PublishedAt time.Time
}

// ParseFeed parses an RSS or Atom document. Relative links are resolved
// against base. It returns ErrNoEntries when no item carries a link.
func ParseFeed(body []byte, base string) ([]Entry, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	baseURL, _ := url.Parse(base)

	entries := make([]Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		link := resolve(baseURL, strings.TrimSpace(it.Link))
		if link == "" {
			continue
		}
		summary, img := stripHTML(it.Description)
		if summary == "" && it.Content != "" {
			summary, img = stripHTML(it.Content)
		}
		e := Entry{
			Title:    collapse(it.Title),
			URL:      link,
			Summary:  summary,
			ImageURL: resolve(baseURL, itemImage(it, img)),
		}
		switch {
		case it.PublishedParsed != nil:
			e.PublishedAt = it.PublishedParsed.UTC()
		case it.UpdatedParsed != nil:
			e.PublishedAt = it.UpdatedParsed.UTC()
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

func itemImage(it *gofeed.Item, fromHTML string) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return fromHTML
}

// stripHTML returns the text of an HTML fragment and the first image source
// in it.
func stripHTML(fragment string) (text, img string) {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment), ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment), ""
	}
	img, _ = doc.Find("img").First().Attr("src")
	return collapse(doc.Text()), img
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
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
