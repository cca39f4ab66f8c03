// Package dedup recognizes articles that were already stored.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/couchcryptid/vn-hazard-radar/internal/textnorm"
)

// trackingParams are dropped by Canonical in addition to every utm_* key.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"msclkid": {},
	"ref":     {},
	"source":  {},
	"share":   {},
}

// Canonical normalizes a URL: lowercase scheme and host, no fragment, no
// tracking parameters, query keys sorted. Unparseable input is returned
// trimmed. Canonical(Canonical(u)) == Canonical(u).
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if q, err := url.ParseQuery(u.RawQuery); err == nil {
		for k := range q {
			if tracking(k) {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
	} else {
		u.RawQuery = rawQuery(u.RawQuery)
	}
	u.ForceQuery = false
	return u.String()
}

// rawQuery cleans a query url.ParseQuery rejects (";" separators, bad
// escapes) without decoding it, so no pair is lost.
func rawQuery(q string) string {
	parts := strings.Split(q, "&")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		k, _, _ := strings.Cut(p, "=")
		if dk, err := url.QueryUnescape(k); err == nil {
			k = dk
		}
		if !tracking(k) {
			kept = append(kept, p)
		}
	}
	slices.Sort(kept)
	return strings.Join(kept, "&")
}

func tracking(key string) bool {
	key = strings.ToLower(key)
	_, drop := trackingParams[key]
	return drop || strings.HasPrefix(key, "utm_")
}

// Host returns the lowercase host of raw without a leading "www.".
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Registrable returns the registrable domain (eTLD+1) of a host or URL, so
// that "m.baomoi.com" and "baomoi.com" compare equal.
func Registrable(hostOrURL string) string {
	host := hostOrURL
	if strings.Contains(host, "/") {
		host = Host(host)
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

// SameSite reports whether two hosts or URLs share a registrable domain.
func SameSite(a, b string) bool {
	ra, rb := Registrable(a), Registrable(b)
	return ra != "" && ra == rb
}

// NewsHash is the first 12 hex digits of md5(domain || normalized title ||
// canonical url).
func NewsHash(domain, title, rawURL string) string {
	sum := md5.Sum([]byte(domain + textnorm.Normalize(title) + Canonical(rawURL)))
	return hex.EncodeToString(sum[:])[:12]
}
