// Package extract enumerates every URL reachable from a Telegram message,
// from structured metadata first and a bare-text scan last, percent-decoding
// each candidate exactly once.
//
// Grounded on the teacher's internal/core/links/linkextract/extractor.go
// (regex-based scan + seen-map dedup) and on
// original_source/app/core/monitor.py::extract_all_urls, which defines the
// exact source order required by spec.md §4.1: entities, buttons, webpage
// preview, then a general text scan.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// TextEntity mirrors a Telegram message entity relevant to URL discovery.
// Offset/Length are UTF-16 code unit spans as Telegram reports them; callers
// resolve them against Text before constructing Entities.
type TextEntity struct {
	// URL is set for "text_link" entities (an explicit href distinct from the
	// highlighted substring).
	URL string
	// Substring is the highlighted text itself; for "url" entities this is
	// the URL.
	Substring string
	IsBareURL bool
}

// Button is a single inline-keyboard button.
type Button struct {
	URL string
}

// Metadata is the structured data optionally attached to a message.
type Metadata struct {
	Entities      []TextEntity
	ButtonRows    [][]Button
	PreviewURL    string
}

var (
	schemeURLRegex = regexp.MustCompile(`https?://[^\s<>"'“”‘’()\[\]{}|\\^` + "`" + `]+`)
	bareDomainRegex = regexp.MustCompile(
		`\b[a-zA-Z0-9][a-zA-Z0-9-]{0,62}(?:\.[a-zA-Z0-9][a-zA-Z0-9-]{0,62})+\.(?:com|cn|net|org|cc|me|io|top|xyz)\b[^\s<>"'“”‘’()\[\]{}|\\^` + "`" + `]*`,
	)
)

// Extract returns the set of distinct URLs reachable from text and meta,
// percent-decoded exactly once, in the order spec.md §4.1 specifies (later
// duplicates of an already-seen URL are dropped, first occurrence wins).
func Extract(text string, meta Metadata) []string {
	seen := make(map[string]struct{})

	var out []string

	add := func(raw string) {
		decoded := decodeOnce(strings.TrimSpace(raw))
		if decoded == "" {
			return
		}

		if _, ok := seen[decoded]; ok {
			return
		}

		seen[decoded] = struct{}{}

		out = append(out, decoded)
	}

	for _, e := range meta.Entities {
		if e.URL != "" {
			add(e.URL)
		}
	}

	for _, e := range meta.Entities {
		if e.IsBareURL && e.Substring != "" {
			add(e.Substring)
		}
	}

	for _, row := range meta.ButtonRows {
		for _, b := range row {
			if b.URL != "" {
				add(b.URL)
			}
		}
	}

	if meta.PreviewURL != "" {
		add(meta.PreviewURL)
	}

	for _, line := range strings.Split(text, "\n") {
		for _, m := range schemeURLRegex.FindAllString(line, -1) {
			add(trimTrailingPunct(m))
		}

		for _, m := range bareDomainRegex.FindAllString(line, -1) {
			add(trimTrailingPunct(m))
		}
	}

	return out
}

func trimTrailingPunct(s string) string {
	return strings.TrimRight(s, ".,;:!?)）、。")
}

func decodeOnce(raw string) string {
	if raw == "" {
		return ""
	}

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}

	return decoded
}
