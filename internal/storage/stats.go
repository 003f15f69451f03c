package storage

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// StatsRepo answers the dashboard's aggregate statistics queries directly in
// SQL, never by loading full message rows into memory. Grounded on
// original_source/app/services/statistics_service.py
// (get_statistics_overview, get_daily_trend, get_netdisk_distribution).
type StatsRepo struct {
	db *DB
}

// NewStatsRepo constructs a StatsRepo.
func NewStatsRepo(db *DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// Overview holds the dashboard's top-line counters.
type Overview struct {
	TotalMessages int64
	TodayMessages int64
	TotalLinks    int64
}

// Overview returns total messages, today's messages, and total link count.
func (r *StatsRepo) Overview(ctx context.Context) (Overview, error) {
	var o Overview

	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM messages`).Scan(&o.TotalMessages); err != nil {
		return o, fmt.Errorf("count messages: %w", err)
	}

	todayStart := time.Now().Truncate(24 * time.Hour)

	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE timestamp >= $1`, toTimestamptz(todayStart)).Scan(&o.TodayMessages); err != nil {
		return o, fmt.Errorf("count today messages: %w", err)
	}

	const linksQ = `
		SELECT COALESCE(SUM(
			(SELECT COUNT(*) FROM jsonb_object_keys(links::jsonb))
		), 0)
		FROM messages
		WHERE links IS NOT NULL AND links != 'null'::jsonb`

	if err := r.db.Pool.QueryRow(ctx, linksQ).Scan(&o.TotalLinks); err != nil {
		return o, fmt.Errorf("count total links: %w", err)
	}

	return o, nil
}

// DailyTrendPoint is one day's message/link counts.
type DailyTrendPoint struct {
	Date     time.Time
	Messages int64
	Links    int64
}

// DailyTrend returns per-day message/link counts for the last `days` days,
// zero-filled for days with no messages, newest first.
func (r *StatsRepo) DailyTrend(ctx context.Context, days int) ([]DailyTrendPoint, error) {
	const q = `
		SELECT
			DATE(timestamp) AS d,
			COUNT(*) AS message_count,
			COALESCE(SUM(
				CASE
					WHEN links IS NOT NULL AND jsonb_typeof(links::jsonb) = 'object'
						THEN (SELECT COUNT(*) FROM jsonb_object_keys(links::jsonb))
					ELSE 0
				END
			), 0) AS link_count
		FROM messages
		WHERE timestamp >= now() - ($1 || ' days')::interval
		GROUP BY DATE(timestamp)`

	rows, err := r.db.Pool.Query(ctx, q, days)
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}
	defer rows.Close()

	byDate := make(map[time.Time]DailyTrendPoint)

	for rows.Next() {
		var p DailyTrendPoint
		if err := rows.Scan(&p.Date, &p.Messages, &p.Links); err != nil {
			return nil, fmt.Errorf("scan daily trend: %w", err)
		}

		byDate[p.Date] = p
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)
	out := make([]DailyTrendPoint, 0, days)

	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, -i)
		if p, ok := byDate[d]; ok {
			out = append(out, p)
		} else {
			out = append(out, DailyTrendPoint{Date: d})
		}
	}

	return out, nil
}

// NetdiskDistributionPoint is one brand's share of links checked in a window.
type NetdiskDistributionPoint struct {
	NetdiskName string
	LinkCount   int64
	Percentage  float64
}

// brandMap collapses provider-tag variants to the short brand names shown on
// the dashboard, matching statistics_service.py's brand_map.
var brandMap = map[string]string{
	"夸克网盘":  "夸克",
	"阿里云盘":  "阿里",
	"百度网盘":  "百度",
	"115网盘": "115",
	"天翼云盘":  "天翼",
	"123云盘": "123",
	"UC网盘":  "UC",
	"迅雷网盘":  "迅雷",
	"迅雷":    "迅雷",
}

// NetdiskDistribution returns each provider's share of links seen in the
// last `hours` hours, sorted by link count descending, brand-collapsed.
func (r *StatsRepo) NetdiskDistribution(ctx context.Context, hours int) ([]NetdiskDistributionPoint, error) {
	const q = `
		SELECT netdisk_name, COUNT(*) AS link_count
		FROM (
			SELECT jsonb_array_elements_text(netdisk_types) AS netdisk_name
			FROM messages
			WHERE timestamp >= now() - ($1 || ' hours')::interval
			  AND netdisk_types IS NOT NULL AND netdisk_types != 'null'::jsonb
		) t
		GROUP BY netdisk_name`

	rows, err := r.db.Pool.Query(ctx, q, hours)
	if err != nil {
		return nil, fmt.Errorf("netdisk distribution: %w", err)
	}
	defer rows.Close()

	brandStats := make(map[string]int64)

	for rows.Next() {
		var (
			name  string
			count int64
		)

		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan netdisk distribution: %w", err)
		}

		brand, ok := brandMap[name]
		if !ok {
			brand = name
		}

		brandStats[brand] += count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var total int64
	for _, c := range brandStats {
		total += c
	}

	out := make([]NetdiskDistributionPoint, 0, len(brandStats))

	for brand, count := range brandStats {
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total)
		}

		out = append(out, NetdiskDistributionPoint{NetdiskName: brand, LinkCount: count, Percentage: pct})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LinkCount > out[j].LinkCount
	})

	return out, nil
}
