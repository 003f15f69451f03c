package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

// DedupStatsRepo persists per-run dedup statistics.
type DedupStatsRepo struct {
	db *DB
}

// NewDedupStatsRepo constructs a DedupStatsRepo.
func NewDedupStatsRepo(db *DB) *DedupStatsRepo {
	return &DedupStatsRepo{db: db}
}

// Insert appends a row for one completed dedup run.
func (r *DedupStatsRepo) Insert(ctx context.Context, s domain.DedupStats) error {
	const q = `INSERT INTO dedup_stats (run_time, inserted, deleted) VALUES ($1, $2, $3)`

	if _, err := r.db.Pool.Exec(ctx, q, toTimestamptz(s.RunTime), s.Inserted, s.Deleted); err != nil {
		return fmt.Errorf("insert dedup stats: %w", err)
	}

	return nil
}

// PurgeOlderThan deletes rows whose run_time is more than age in the past
// (spec.md §3: "rows older than 10 hours may be purged at each run's tail").
func (r *DedupStatsRepo) PurgeOlderThan(ctx context.Context, age time.Duration) error {
	cutoff := time.Now().Add(-age)

	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM dedup_stats WHERE run_time < $1`, toTimestamptz(cutoff)); err != nil {
		return fmt.Errorf("purge dedup stats: %w", err)
	}

	return nil
}

// HourlyDeleted sums deleted counts grouped by hour for the last `hours`
// hours, zero-filled for hours with no run. Grounded on
// original_source/app/services/statistics_service.py::get_dedup_stats.
func (r *DedupStatsRepo) HourlyDeleted(ctx context.Context, hours int) (map[time.Time]int64, error) {
	const q = `
		SELECT date_trunc('hour', run_time) AS hour, SUM(deleted)
		FROM dedup_stats
		WHERE run_time >= now() - ($1 || ' hours')::interval
		GROUP BY hour`

	rows, err := r.db.Pool.Query(ctx, q, hours)
	if err != nil {
		return nil, fmt.Errorf("hourly dedup stats: %w", err)
	}
	defer rows.Close()

	out := make(map[time.Time]int64)

	for rows.Next() {
		var (
			hour    time.Time
			deleted int64
		)

		if err := rows.Scan(&hour, &deleted); err != nil {
			return nil, fmt.Errorf("scan hourly dedup stats: %w", err)
		}

		out[hour] = deleted
	}

	return out, rows.Err()
}
