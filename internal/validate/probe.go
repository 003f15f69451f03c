// Package validate implements the link-validation batch engine: per-provider
// concurrency-capped probing with randomized delay, circuit-breaker error
// counting, retry classification, and durable task state. Grounded on
// original_source/link_validator.py and
// original_source/app/services/link_check_service.py.
package validate

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lueurxax/netdisk-aggregator/internal/links/classify"
)

// Outcome reasons, matching the Chinese strings the original system persists
// verbatim into LinkCheckDetails.error_reason.
const (
	ReasonValid           = "链接有效"
	ReasonFormatError     = "格式错误"
	ReasonStatusCode      = "状态码错误"
	ReasonNetdiskInvalid  = "网盘链接失效"
	ReasonPageError       = "页面错误"
	ReasonNetworkTimeout  = "网络超时"
	ReasonNetworkError    = "网络错误"
	ReasonCheckException  = "检测异常"
	ReasonProviderLimited = "网盘限制"
)

// retryable reasons may be retried (spec.md §4.6.3); the rest are terminal.
var retryableReasons = map[string]bool{
	ReasonNetworkTimeout: true,
	ReasonNetworkError:   true,
	ReasonStatusCode:     true,
	ReasonCheckException: true,
}

// IsRetryable reports whether a probe's failure reason may be retried.
func IsRetryable(reason string) bool {
	return retryableReasons[reason]
}

// ProbeResult is one URL's validation outcome.
type ProbeResult struct {
	URL          string
	NetdiskType  string
	IsValid      bool
	ResponseTime *float64
	ErrorReason  string
}

const probeTimeout = 15 * time.Second

// generalInvalidPatterns are checked against every provider's response body.
var generalInvalidPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)页面不存在`),
	regexp.MustCompile(`(?i)访问被拒绝`),
	regexp.MustCompile(`(?i)服务器错误`),
	regexp.MustCompile(`(?i)页面未找到`),
	regexp.MustCompile(`(?i)无法访问`),
	regexp.MustCompile(`(?i)连接超时`),
	regexp.MustCompile(`(?i)404\s*(错误|页面|not\s*found)`),
}

// netdiskInvalidPatterns are checked only for the matching provider.
var netdiskInvalidPatterns = map[string][]*regexp.Regexp{
	"百度网盘": compileAll(`文件不存在`, `分享已失效`, `链接已过期`, `分享链接已失效`, `文件已被删除`, `分享已取消`, `访问被拒绝`),
	"夸克网盘": compileAll(`文件不存在或已被删除`, `分享链接已失效`, `文件已被删除`, `分享已过期`, `访问被拒绝`),
	"阿里云盘": compileAll(`文件不存在`, `分享已失效`, `链接已过期`, `文件已被删除`),
	"115网盘": compileAll(`文件不存在`, `分享已失效`, `链接已过期`, `文件已被删除`),
	"天翼云盘": compileAll(`文件不存在`, `分享已失效`, `链接已过期`, `文件已被删除`),
	"123云盘": compileAll(`文件不存在`, `分享已失效`, `链接已过期`, `文件已被删除`),
	"UC网盘":  compileAll(`文件不存在`, `分享已失效`, `链接已过期`, `文件已被删除`),
	"迅雷":    compileAll(`文件不存在`, `分享已失效`, `链接已过期`, `文件已被删除`),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}

	return out
}

// Validator probes URLs against their provider's live site.
type Validator struct {
	client   *http.Client
	breakers *circuitBreakers
}

// NewValidator constructs a Validator using the given HTTP client, or a
// default 15s-timeout client when nil.
func NewValidator(client *http.Client) *Validator {
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}

	return &Validator{client: client, breakers: newCircuitBreakers()}
}

func validURLFormat(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return u.Scheme == "http" || u.Scheme == "https"
}

func randomDelay(lim ProviderLimit) time.Duration {
	span := lim.DelayMax - lim.DelayMin
	if span <= 0 {
		return lim.DelayMin
	}

	return lim.DelayMin + time.Duration(rand.Int64N(int64(span)))
}

// CheckSingleLink probes one URL, following spec.md §4.6.2's protocol in
// order: format validation, randomized delay, GET with browser-like
// headers, status check, provider-specific then general invalid-phrase
// scan, reset/increment the provider's circuit breaker.
func (v *Validator) CheckSingleLink(ctx context.Context, rawURL string) ProbeResult {
	provider := classify.Classify(rawURL)

	res := ProbeResult{URL: rawURL, NetdiskType: provider}

	breaker := v.breakers.get(provider)
	if breaker.Limited() {
		res.ErrorReason = ReasonProviderLimited
		return res
	}

	if !validURLFormat(rawURL) {
		res.ErrorReason = ReasonFormatError
		return res
	}

	lim := limitFor(provider)

	select {
	case <-time.After(randomDelay(lim)):
	case <-ctx.Done():
		res.ErrorReason = ReasonCheckException
		return res
	}

	start := time.Now()

	body, status, err := v.fetch(ctx, rawURL)

	elapsed := time.Since(start).Seconds()
	res.ResponseTime = &elapsed

	switch {
	case err != nil:
		reason := classifyFetchError(err)
		res.ErrorReason = reason
		breaker.RecordFailure()

		return res
	case status != http.StatusOK:
		res.ErrorReason = ReasonStatusCode
		breaker.RecordFailure()

		return res
	}

	if patterns, ok := netdiskInvalidPatterns[provider]; ok {
		for _, p := range patterns {
			if p.MatchString(body) {
				res.ErrorReason = ReasonNetdiskInvalid
				return res
			}
		}
	}

	for _, p := range generalInvalidPatterns {
		if p.MatchString(body) {
			res.ErrorReason = ReasonPageError
			return res
		}
	}

	res.IsValid = true
	res.ErrorReason = ReasonValid
	breaker.RecordSuccess()

	return res
}

func (v *Validator) fetch(ctx context.Context, rawURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", resp.StatusCode, err
	}

	return string(b), resp.StatusCode, nil
}

func classifyFetchError(err error) string {
	if ue, ok := err.(*url.Error); ok && ue.Timeout() {
		return ReasonNetworkTimeout
	}

	if strings.Contains(err.Error(), "timeout") {
		return ReasonNetworkTimeout
	}

	return ReasonNetworkError
}
