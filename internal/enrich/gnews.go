package enrich

import (
	"bytes"
	"encoding/base64"
	"net/url"
	"strings"
)

// DecodeGoogleNews turns a news.google.com article link into the publisher
// URL embedded in its id. Links that are not Google News links, or whose id
// does not decode, are returned unchanged.
func DecodeGoogleNews(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(strings.ToLower(u.Hostname()), "news.google.com") {
		return raw
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 || segs[len(segs)-2] != "articles" {
		return raw
	}
	id := strings.TrimRight(segs[len(segs)-1], "=")
	decoded, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		if decoded, err = base64.RawStdEncoding.DecodeString(id); err != nil {
			return raw
		}
	}
	if found := embeddedURL(decoded); found != "" {
		return found
	}
	return raw
}

// embeddedURL scans protobuf bytes for the first printable http(s) URL.
func embeddedURL(b []byte) string {
	i := bytes.Index(b, []byte("http"))
	if i < 0 {
		return ""
	}
	end := i
	for end < len(b) && b[end] > 0x20 && b[end] < 0x7f {
		end++
	}
	candidate := string(b[i:end])
	u, err := url.Parse(candidate)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return candidate
}
