// Package urlnorm canonicalizes URLs and derives domain keys. It is the
// single normalizer used by every pipeline stage, so two stages comparing
// URLs always agree.
package urlnorm

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a raw link to scheme://host/path. Query, fragment
// and user info are stripped, the scheme defaults to https when absent, and
// an empty path becomes "/". Empty or unparseable input yields "", which
// callers treat as "skip". Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	// u.Host excludes user info, so credentials embedded in links are
	// dropped here rather than persisted.
	return scheme + "://" + u.Host + path
}

// Domain derives the dedup key from a URL: the host lowercased, with user
// info, port, and a leading "www." removed. Returns "" when no host can be
// parsed.
func Domain(raw string) string {
	norm := Normalize(raw)
	if norm == "" {
		return ""
	}
	u, err := url.Parse(norm)
	if err != nil {
		return ""
	}
	host := strings.ToLower(strings.TrimSpace(u.Host))
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	return host
}

// Origin returns scheme://host for a normalized URL, the base the contact
// path fallback appends to. Returns "" when the URL has no host.
func Origin(raw string) string {
	norm := Normalize(raw)
	if norm == "" {
		return ""
	}
	u, err := url.Parse(norm)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
