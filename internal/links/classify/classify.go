// Package classify maps a candidate URL's host to one of the fixed set of
// cloud-storage provider tags, or "unknown" when no entry matches.
//
// Grounded on the authoritative table in spec.md §4.2, which mirrors
// original_source/app/core/monitor.py's netdisk_map exactly, including the
// intentionally lax bare substrings ("115", "123") called out in spec.md §9:
// provider detection by host substring is lax by design and must not be
// tightened, or historical records would be reclassified.
package classify

import (
	"net/url"
	"strings"
)

// Unknown is the tag assigned to a URL whose host matches no provider entry.
const Unknown = "unknown"

type entry struct {
	tag        string
	substrings []string
}

// table is ordered; the first row whose substrings match wins.
var table = []entry{
	{"夸克网盘", []string{"quark", "夸克"}},
	{"阿里云盘", []string{"aliyundrive", "aliyun", "alipan", "阿里"}},
	{"百度网盘", []string{"baidu", "pan.baidu"}},
	{"115网盘", []string{"115.com", "115pan", "115cdn.com", "115网盘", "115"}},
	{"天翼云盘", []string{"cloud.189", "189.cn", "天翼"}},
	{"123云盘", []string{"123pan.com", "www.123pan.com", "123912.com", "www.123912.com", "123"}},
	{"UC网盘", []string{"ucdisk", "ucloud", "drive.uc.cn", "uc网盘"}},
	{"迅雷", []string{"xunlei", "thunder", "迅雷"}},
}

// Classify returns the provider tag for rawURL's host, or Unknown.
func Classify(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return Unknown
	}

	for _, e := range table {
		for _, sub := range e.substrings {
			if strings.Contains(host, sub) {
				return e.tag
			}
		}
	}

	return Unknown
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	// Parsing a bare domain (no scheme) leaves Host empty and the value in
	// Path/Opaque instead; fall back to the raw string itself so host
	// substring matching still works for scheme-less candidates produced by
	// the bare-domain scan in internal/links/extract.
	host := u.Host
	if host == "" {
		host = rawURL
	}

	return strings.ToLower(host)
}
