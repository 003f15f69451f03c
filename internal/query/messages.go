// Package query implements the filtered-pagination read path and the four
// aggregate statistics endpoints, grounded on
// original_source/app/services/statistics_service.py and the teacher's
// pgx query style in internal/storage.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/storage"
)

const (
	defaultPageSize = 100
	maxPageSize     = 200
	guestPageSize   = 100
)

// timeRangeWindows maps the fixed dashboard keywords to a lookback duration;
// "全部" (all time) has no lookback and resolves to a nil Since.
var timeRangeWindows = map[string]time.Duration{
	"最近1小时":  time.Hour,
	"最近24小时": 24 * time.Hour,
	"最近7天":   7 * 24 * time.Hour,
	"最近30天":  30 * 24 * time.Hour,
}

// ResolveTimeRange turns one of the fixed dashboard time-range keywords into
// a lower bound, or nil for "全部". An empty string also means "全部".
func ResolveTimeRange(keyword string, now time.Time) (*time.Time, error) {
	if keyword == "" || keyword == "全部" {
		return nil, nil
	}

	d, ok := timeRangeWindows[keyword]
	if !ok {
		return nil, fmt.Errorf("unknown time range: %q", keyword)
	}

	since := now.Add(-d)

	return &since, nil
}

// PageRequest is every filter dimension spec.md §4.7 names for the paginated
// message list.
type PageRequest struct {
	QueryText   string
	TimeRange   string
	Tags        []string
	Providers   []string
	MinTotalLen int
	LinksOnly   bool
	Page        int
	PageSize    int
}

// CoerceGuest applies the public-dashboard guest restrictions: a fixed
// 24-hour time range, every other filter dropped, page size capped at 100.
func CoerceGuest(req PageRequest) PageRequest {
	req.QueryText = ""
	req.Tags = nil
	req.Providers = nil
	req.MinTotalLen = 0
	req.LinksOnly = false
	req.TimeRange = "最近24小时"

	if req.PageSize <= 0 || req.PageSize > guestPageSize {
		req.PageSize = guestPageSize
	}

	return req
}

// PageResult is one page of messages plus the pagination envelope.
type PageResult struct {
	Messages []domain.Message
	Page     int
	PageSize int
	Total    int64
	MaxPage  int64
}

// MessageStore is the subset of internal/storage.MessageRepo the paginated
// list endpoint needs.
type MessageStore interface {
	List(ctx context.Context, f storage.ListFilter) ([]domain.Message, error)
	Count(ctx context.Context, f storage.ListFilter) (int64, error)
	TagStats(ctx context.Context, limit int) ([]storage.TagCount, error)
}

// Service answers the paginated message list and the aggregate statistics
// queries.
type Service struct {
	messages  MessageStore
	stats     *storage.StatsRepo
	dedupRepo *storage.DedupStatsRepo
}

// NewService constructs a Service.
func NewService(messages MessageStore, stats *storage.StatsRepo, dedupRepo *storage.DedupStatsRepo) *Service {
	return &Service{messages: messages, stats: stats, dedupRepo: dedupRepo}
}

// ListMessages resolves req's filters and runs the §4.7 pagination policy:
// fetch page_size+1 rows to detect more pages without a count(*) on the
// common path; call count(*) only when the extra row is present or the
// requested page came back empty, and silently reset to page 1 when the
// requested page exceeds max_page.
func (s *Service) ListMessages(ctx context.Context, req PageRequest) (PageResult, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	since, err := ResolveTimeRange(req.TimeRange, time.Now())
	if err != nil {
		return PageResult{}, err
	}

	filterFor := func(p int) storage.ListFilter {
		return storage.ListFilter{
			QueryTokens: splitTokens(req.QueryText),
			Since:       since,
			Tags:        req.Tags,
			Providers:   req.Providers,
			MinTotalLen: req.MinTotalLen,
			LinksOnly:   req.LinksOnly,
			Limit:       pageSize,
			Offset:      (p - 1) * pageSize,
		}
	}

	rows, err := s.messages.List(ctx, filterFor(page))
	if err != nil {
		return PageResult{}, fmt.Errorf("list messages: %w", err)
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}

	var (
		total   int64
		maxPage int64
	)

	// An empty result for page > 1 is ambiguous without a count: it could be
	// a genuinely empty range, or a requested page whose offset has run past
	// the end of the data (hasMore can't detect that, since there's nothing
	// left to over-fetch). Resolve it with a count() in both cases.
	needsCount := hasMore || (page > 1 && len(rows) == 0)

	if needsCount {
		total, err = s.messages.Count(ctx, filterFor(page))
		if err != nil {
			return PageResult{}, fmt.Errorf("count messages: %w", err)
		}

		maxPage = (total + int64(pageSize) - 1) / int64(pageSize)
		if maxPage < 1 {
			maxPage = 1
		}

		if int64(page) > maxPage {
			page = 1

			rows, err = s.messages.List(ctx, filterFor(page))
			if err != nil {
				return PageResult{}, fmt.Errorf("list messages (reset page): %w", err)
			}

			if len(rows) > pageSize {
				rows = rows[:pageSize]
			}
		}
	} else {
		total = int64((page-1)*pageSize) + int64(len(rows))
		maxPage = int64(page)
	}

	return PageResult{Messages: rows, Page: page, PageSize: pageSize, Total: total, MaxPage: maxPage}, nil
}

// TagStat is one tag's frequency, for the tags/stats endpoint.
type TagStat struct {
	Tag   string
	Count int64
}

// TagStats returns the `limit` most common tags, clamped to 1..100.
func (s *Service) TagStats(ctx context.Context, limit int) ([]TagStat, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.messages.TagStats(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("tag stats: %w", err)
	}

	out := make([]TagStat, len(rows))
	for i, r := range rows {
		out[i] = TagStat{Tag: r.Tag, Count: r.Count}
	}

	return out, nil
}

func splitTokens(q string) []string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return nil
	}

	return fields
}
