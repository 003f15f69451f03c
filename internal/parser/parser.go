// Package parser turns raw channel text plus extracted/classified URLs into
// a normalized record: title, description, tags, and provider-tagged links
// with optional variant labels.
//
// This is a direct, deterministic port of
// original_source/app/core/monitor.py::parse_message, restructured as three
// explicit stages to match spec.md §4.3 (Title, Link collection,
// Description/tags), with the controlled label vocabulary kept as data in
// vocabulary.go per spec.md §9.
package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/links/classify"
	"github.com/lueurxax/netdisk-aggregator/internal/links/extract"
)

// Result is the normalized output of Parse.
type Result struct {
	Title       string
	Description string
	Links       map[string][]domain.Link
	Tags        []string
	Source      string
	Channel     string
	GroupName   string
	Bot         string
}

// NetdiskTypes returns the sorted unique provider keys of r.Links, the
// invariant spec.md §3 requires Message.NetdiskTypes to equal.
func (r Result) NetdiskTypes() []string {
	types := make([]string, 0, len(r.Links))
	for tag := range r.Links {
		types = append(types, tag)
	}

	sort.Strings(types)

	return types
}

var (
	titlePrefix   = "名称："
	bulletPrefix  = regexp.MustCompile(`^(?:\* |- |\+ |> |>> |• |➤ |▪ |√ )+`)
	httpScanRegex = regexp.MustCompile(`https?://`)
	handleRegex   = regexp.MustCompile(`@[A-Za-z0-9_]+`)
	sizeLineRegex = regexp.MustCompile(`^[^\p{Han}A-Za-z0-9]*大小`)
	sizeSplitRegex = regexp.MustCompile(`大小[:：\s]*`)
	sizeUnitRegex = regexp.MustCompile(`(?i)\d+\s*(GB|MB|TB|KB|G|M|T|K|B|字节|左右|约|每集|单集)`)
	labelOnlyRegex = regexp.MustCompile(`^(主链|备用|普码|高码|HDR|杜比|IQ|[\p{Han}A-Za-z0-9]+码)$`)
	tagRegex       = regexp.MustCompile(`#([\p{Han}A-Za-z0-9_]+)`)
	viaMidRegex    = regexp.MustCompile(`(?i)\bvia\s*\S+`)
	viaTailRegex   = regexp.MustCompile(`(?i)\bvia\s*$`)
	metaFieldRegex = regexp.MustCompile(`(?i)^.*(标签|投稿人|频道|搜索|机场)\s*[：:].*$`)
	linkTokenRegex = regexp.MustCompile(`[🔗\s]*链接[：:：]?\s*\S+`)
	netdiskNameRegex = regexp.MustCompile("(" + strings.Join(netdiskShortNames, "|") + ")")
	trailingColonRegex = regexp.MustCompile(`(?m)：\s*$`)
	punctOnlyRegex     = regexp.MustCompile(`^[.。·、,，-]+$`)
)

type skipKeyword struct {
	token string
	field string // "" when the line is merely dropped
}

var skipKeywords = []skipKeyword{
	{"🎉 来自", "source"},
	{"📢 频道", "channel"},
	{"👥 群组", "group"},
	{"🤖 投稿", "bot"},
	{"🔍 投稿/搜索", ""},
	{"⚠️", ""},
}

var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i).*🌍.*群主自用机场.*守候网络.*9折活动.*`),
	regexp.MustCompile(`(?i).*🔥.*云盘播放神器.*VidHub.*`),
	regexp.MustCompile(`(?i).*群主自用机场.*守候网络.*9折活动.*`),
	regexp.MustCompile(`(?i).*云盘播放神器.*VidHub.*`),
}

func skipPattern() *regexp.Regexp {
	toks := make([]string, len(skipKeywords))
	for i, k := range skipKeywords {
		toks[i] = regexp.QuoteMeta(k.token)
	}

	return regexp.MustCompile("^(" + strings.Join(toks, "|") + ")(：|:)?")
}

var skipRe = skipPattern()

// Parse is a pure function: the same (text, meta) always yields a
// byte-for-byte identical Result (spec.md §4.3 Determinism).
func Parse(text string, meta extract.Metadata) Result {
	lines := strings.Split(text, "\n")

	title, rest := extractTitle(lines)

	links := collectLinks(lines, text, meta)

	description, tags, source, channel, group, bot := processDescription(rest)

	return Result{
		Title:       title,
		Description: description,
		Links:       links,
		Tags:        tags,
		Source:      source,
		Channel:     channel,
		GroupName:   group,
		Bot:         bot,
	}
}

// extractTitle implements Stage A: the 名称： prefix wins; otherwise the
// first non-empty line is the title. Returns the remaining lines in their
// original relative order, title line removed.
func extractTitle(lines []string) (string, []string) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, titlePrefix) {
			title := strings.TrimSpace(strings.TrimPrefix(trimmed, titlePrefix))
			rest := make([]string, 0, len(lines)-1)
			rest = append(rest, lines[:i]...)
			rest = append(rest, lines[i+1:]...)

			return title, rest
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			rest := make([]string, 0, len(lines)-1)
			rest = append(rest, lines[:i]...)
			rest = append(rest, lines[i+1:]...)

			return strings.TrimSpace(line), rest
		}
	}

	return "", nil
}

// collectLinks implements Stage B: extract + classify every URL, then find
// its label via the three fall-through rules in spec.md §4.3.
func collectLinks(lines []string, text string, meta extract.Metadata) map[string][]domain.Link {
	links := make(map[string][]domain.Link)

	for _, u := range extract.Extract(text, meta) {
		tag := classify.Classify(u)
		if tag == classify.Unknown {
			continue
		}

		label := findLabel(lines, u)

		if containsURL(links[tag], u) {
			continue
		}

		links[tag] = append(links[tag], domain.Link{Label: label, URL: u})
	}

	return links
}

func containsURL(items []domain.Link, u string) bool {
	for _, it := range items {
		if it.URL == u {
			return true
		}
	}

	return false
}

// findLabel implements the three fall-through rules, in order, terminating
// on first match (spec.md §9: must stay in this order for bit-compatibility).
func findLabel(lines []string, targetURL string) string {
	for i, line := range lines {
		if !strings.Contains(line, targetURL) {
			continue
		}

		trimmed := strings.TrimSpace(line)

		// (a) prefix "<token>[：:]" on the same line, longest vocabulary match.
		if m := prefixLabelRegex.FindStringSubmatch(trimmed); m != nil {
			if label := longestVocabMatch(m[1]); label != "" {
				return label
			}
		}

		// (b) text immediately preceding the URL on the same line ends with
		// a vocabulary entry.
		if idx := strings.Index(line, targetURL); idx > 0 {
			before := strings.TrimSpace(line[:idx])
			for _, v := range labelVocabulary {
				if strings.HasSuffix(before, v) {
					return v
				}
			}
		}

		// (c) previous non-empty line shorter than 10 characters and
		// containing a vocabulary entry.
		if i > 0 {
			prev := strings.TrimSpace(lines[i-1])
			if len([]rune(prev)) < 10 {
				for _, v := range labelVocabulary {
					if strings.Contains(prev, v) {
						return v
					}
				}
			}
		}

		return ""
	}

	return ""
}

var prefixLabelRegex = regexp.MustCompile(`^([\p{Han}A-Za-z0-9]+)[：:]`)

func longestVocabMatch(extracted string) string {
	var best string

	for _, v := range labelVocabulary {
		if strings.Contains(extracted, v) && len([]rune(v)) > len([]rune(best)) {
			best = v
		}
	}

	return best
}

// processDescription implements Stage C over the non-title lines.
func processDescription(lines []string) (description string, tags []string, source, channel, group, bot string) {
	var buf []string

	seenTags := make(map[string]struct{})

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if httpScanRegex.MatchString(line) || hasBareURL(line) {
			continue
		}

		if handleRegex.MatchString(line) {
			continue
		}

		cleaned := bulletPrefix.ReplaceAllString(line, "")

		if m := skipRe.FindStringSubmatch(cleaned); m != nil {
			keyword := m[1]
			field := fieldForKeyword(keyword)

			if field != "" {
				value := cleaned
				value = strings.ReplaceAll(value, keyword, "")
				value = strings.ReplaceAll(value, "：", "")
				value = strings.ReplaceAll(value, ":", "")
				value = strings.TrimSpace(value)

				switch field {
				case "source":
					source = value
				case "channel":
					channel = value
				case "group":
					group = value
				case "bot":
					bot = value
				}
			}

			continue
		}

		if sizeLineRegex.MatchString(cleaned) {
			parts := sizeSplitRegex.Split(cleaned, 2)

			sizeInfo := ""
			if len(parts) > 1 {
				sizeInfo = strings.TrimSpace(parts[1])
			}

			if sizeUnitRegex.MatchString(sizeInfo) {
				buf = append(buf, cleaned)
			}

			continue
		}

		if strings.HasPrefix(cleaned, "链接：") {
			continue
		}

		if strings.HasPrefix(cleaned, "描述区域") {
			continue
		}

		if labelOnlyRegex.MatchString(cleaned) {
			continue
		}

		work := cleaned
		work = viaMidRegex.ReplaceAllString(work, "")
		work = strings.TrimSpace(work)
		work = viaTailRegex.ReplaceAllString(work, "")
		work = strings.TrimSpace(work)

		if found := tagRegex.FindAllStringSubmatch(work, -1); len(found) > 0 {
			for _, f := range found {
				tag := f[1]
				if _, ok := seenTags[tag]; !ok {
					seenTags[tag] = struct{}{}

					tags = append(tags, tag)
				}
			}

			work = strings.TrimSpace(tagRegex.ReplaceAllString(work, ""))
		}

		work = strings.TrimSpace(metaFieldRegex.ReplaceAllString(work, ""))

		if strings.HasPrefix(cleaned, "分享：") || strings.HasPrefix(cleaned, "网址：") ||
			strings.HasPrefix(cleaned, "🌍") || strings.HasPrefix(cleaned, "🔥") {
			continue
		}

		work = strings.TrimSpace(linkTokenRegex.ReplaceAllString(work, ""))

		if work == "" {
			continue
		}

		filtered := false

		for _, p := range adPatterns {
			if p.MatchString(work) {
				filtered = true

				break
			}
		}

		if !filtered {
			buf = append(buf, work)
		}
	}

	description = finalizeDescription(buf)

	return description, tags, source, channel, group, bot
}

func fieldForKeyword(keyword string) string {
	for _, k := range skipKeywords {
		if k.token == keyword {
			return k.field
		}
	}

	return ""
}

func hasBareURL(line string) bool {
	return len(extract.Extract(line, extract.Metadata{})) > 0 && !httpScanRegex.MatchString(line)
}

// finalizeDescription implements the Finalization step of spec.md §4.3.
func finalizeDescription(buf []string) string {
	joined := strings.Join(buf, "\n")
	joined = netdiskNameRegex.ReplaceAllString(joined, "")
	joined = trailingColonRegex.ReplaceAllString(joined, "")

	var final []string

	for _, line := range strings.Split(strings.TrimSpace(joined), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if punctOnlyRegex.MatchString(trimmed) {
			continue
		}

		final = append(final, trimmed)
	}

	return strings.Join(final, "\n")
}
