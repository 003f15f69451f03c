package query

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/netdisk-aggregator/internal/storage"
)

// DailyTrendPoint is one calendar day's counts, formatted for the dashboard.
type DailyTrendPoint struct {
	Date     string // "MM-DD"
	Messages int64
	Links    int64
}

// DedupHourPoint is one hour's deduplication volume.
type DedupHourPoint struct {
	Hour    time.Time
	Deleted int64
}

// Overview returns the dashboard's top-line counters.
func (s *Service) Overview(ctx context.Context) (storage.Overview, error) {
	return s.stats.Overview(ctx)
}

// DailyTrend returns per-day message/link counts for the last `days` days
// (clamped to 1..30, default 10), oldest first, zero-filled for days with no
// data.
func (s *Service) DailyTrend(ctx context.Context, days int) ([]DailyTrendPoint, error) {
	days = clamp(days, 1, 30, 10)

	points, err := s.stats.DailyTrend(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}

	out := make([]DailyTrendPoint, len(points))
	for i, p := range points {
		// storage.DailyTrend returns newest-first; the dashboard wants
		// ascending order.
		out[len(points)-1-i] = DailyTrendPoint{
			Date:     p.Date.Format("01-02"),
			Messages: p.Messages,
			Links:    p.Links,
		}
	}

	return out, nil
}

// DedupStats returns per-hour deleted counts for the last `hours` hours
// (clamped to 1..24, default 10), ascending, zero-filled.
func (s *Service) DedupStats(ctx context.Context, hours int) ([]DedupHourPoint, error) {
	hours = clamp(hours, 1, 24, 10)

	byHour, err := s.dedupRepo.HourlyDeleted(ctx, hours)
	if err != nil {
		return nil, fmt.Errorf("dedup stats: %w", err)
	}

	now := time.Now().Truncate(time.Hour)
	out := make([]DedupHourPoint, 0, hours)

	for i := hours - 1; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour)
		out = append(out, DedupHourPoint{Hour: hour, Deleted: byHour[hour]})
	}

	return out, nil
}

// NetdiskDistribution returns each provider's share of links seen in the
// last `hours` hours (clamped to 1..168, default 24), brand-collapsed.
func (s *Service) NetdiskDistribution(ctx context.Context, hours int) ([]storage.NetdiskDistributionPoint, error) {
	hours = clamp(hours, 1, 168, 24)

	points, err := s.stats.NetdiskDistribution(ctx, hours)
	if err != nil {
		return nil, fmt.Errorf("netdisk distribution: %w", err)
	}

	return points, nil
}

func clamp(v, lo, hi, def int) int {
	if v <= 0 {
		return def
	}

	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
