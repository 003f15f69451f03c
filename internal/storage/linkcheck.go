package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

// LinkCheckRepo persists validation-run stats and per-URL details.
type LinkCheckRepo struct {
	db *DB
}

// NewLinkCheckRepo constructs a LinkCheckRepo.
func NewLinkCheckRepo(db *DB) *LinkCheckRepo {
	return &LinkCheckRepo{db: db}
}

// InsertStats appends one LinkCheckStats row.
func (r *LinkCheckRepo) InsertStats(ctx context.Context, s domain.LinkCheckStats) error {
	netdiskJSON, err := json.Marshal(s.NetdiskStats)
	if err != nil {
		return fmt.Errorf("marshal netdisk stats: %w", err)
	}

	const q = `
		INSERT INTO link_check_stats
			(check_time, total_messages, total_links, valid_links, invalid_links,
			 deleted_messages, updated_messages, netdisk_stats, check_duration, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`

	_, err = r.db.Pool.Exec(ctx, q,
		toTimestamptz(s.CheckTime), s.TotalMessages, s.TotalLinks, s.ValidLinks, s.InvalidLinks,
		s.DeletedMessages, s.UpdatedMessages, netdiskJSON, toFloat8(s.CheckDuration), string(s.Status),
	)
	if err != nil {
		return fmt.Errorf("insert link check stats: %w", err)
	}

	return nil
}

// InsertDetails appends a batch of LinkCheckDetails rows for one run.
func (r *LinkCheckRepo) InsertDetails(ctx context.Context, details []domain.LinkCheckDetails) error {
	if len(details) == 0 {
		return nil
	}

	const q = `
		INSERT INTO link_check_details
			(check_time, message_id, netdisk_type, url, is_valid, response_time, error_reason, action_taken, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`

	batch := &pgx.Batch{}

	for _, d := range details {
		var responseTime pgtype.Float8
		if d.ResponseTime != nil {
			responseTime = pgtype.Float8{Float64: *d.ResponseTime, Valid: true}
		}

		batch.Queue(q,
			toTimestamptz(d.CheckTime), d.MessageID, toText(d.NetdiskType), toText(d.URL), d.IsValid,
			responseTime, toText(d.ErrorReason), d.ActionTaken,
		)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range details {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert link check details: %w", err)
		}
	}

	return nil
}

// History returns up to limit LinkCheckStats rows ordered by check_time desc.
func (r *LinkCheckRepo) History(ctx context.Context, limit int) ([]domain.LinkCheckStats, error) {
	const q = `
		SELECT check_time, total_messages, total_links, valid_links, invalid_links,
		       deleted_messages, updated_messages, netdisk_stats, check_duration, status, created_at
		FROM link_check_stats ORDER BY check_time DESC LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("link check history: %w", err)
	}
	defer rows.Close()

	var out []domain.LinkCheckStats

	for rows.Next() {
		s, err := scanLinkCheckStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link check stats: %w", err)
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

// Result returns the stats row and up to 1000 details rows for an exact
// check_time, matching original_source/app/services/
// link_check_service.py::get_task_result.
func (r *LinkCheckRepo) Result(ctx context.Context, checkTime time.Time) (*domain.LinkCheckStats, []domain.LinkCheckDetails, error) {
	const statsQ = `
		SELECT check_time, total_messages, total_links, valid_links, invalid_links,
		       deleted_messages, updated_messages, netdisk_stats, check_duration, status, created_at
		FROM link_check_stats WHERE check_time = $1`

	row := r.db.Pool.QueryRow(ctx, statsQ, toTimestamptz(checkTime))

	s, err := scanLinkCheckStats(row)
	if err != nil {
		return nil, nil, fmt.Errorf("get link check stats: %w", err)
	}

	const detailsQ = `
		SELECT check_time, message_id, netdisk_type, url, is_valid, response_time, error_reason, action_taken, created_at
		FROM link_check_details WHERE check_time = $1 LIMIT 1000`

	rows, err := r.db.Pool.Query(ctx, detailsQ, toTimestamptz(checkTime))
	if err != nil {
		return nil, nil, fmt.Errorf("get link check details: %w", err)
	}
	defer rows.Close()

	var details []domain.LinkCheckDetails

	for rows.Next() {
		d, err := scanLinkCheckDetails(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan link check details: %w", err)
		}

		details = append(details, d)
	}

	return &s, details, rows.Err()
}

// ClearAll deletes every row from both link-check tables.
func (r *LinkCheckRepo) ClearAll(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM link_check_details`); err != nil {
		return fmt.Errorf("clear link check details: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM link_check_stats`); err != nil {
		return fmt.Errorf("clear link check stats: %w", err)
	}

	return nil
}

// ClearOlderThan deletes rows whose check_time predates now - days.
func (r *LinkCheckRepo) ClearOlderThan(ctx context.Context, days int) error {
	cutoff := toTimestamptz(time.Now().AddDate(0, 0, -days))

	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM link_check_details WHERE check_time < $1`, cutoff); err != nil {
		return fmt.Errorf("clear old link check details: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM link_check_stats WHERE check_time < $1`, cutoff); err != nil {
		return fmt.Errorf("clear old link check stats: %w", err)
	}

	return nil
}

func scanLinkCheckStats(row rowScanner) (domain.LinkCheckStats, error) {
	var (
		s               domain.LinkCheckStats
		checkTime, created pgtype.Timestamptz
		netdiskJSON     []byte
		duration        pgtype.Float8
		status          string
	)

	err := row.Scan(&checkTime, &s.TotalMessages, &s.TotalLinks, &s.ValidLinks, &s.InvalidLinks,
		&s.DeletedMessages, &s.UpdatedMessages, &netdiskJSON, &duration, &status, &created)
	if err != nil {
		return s, err
	}

	s.CheckTime = fromTimestamptz(checkTime)
	s.CreatedAt = fromTimestamptz(created)
	s.CheckDuration = fromFloat8(duration)
	s.Status = domain.LinkCheckStatus(status)

	if len(netdiskJSON) > 0 {
		_ = json.Unmarshal(netdiskJSON, &s.NetdiskStats)
	}

	return s, nil
}

func scanLinkCheckDetails(row rowScanner) (domain.LinkCheckDetails, error) {
	var (
		d             domain.LinkCheckDetails
		checkTime, created pgtype.Timestamptz
		netdiskType, url, errorReason pgtype.Text
		responseTime  pgtype.Float8
	)

	err := row.Scan(&checkTime, &d.MessageID, &netdiskType, &url, &d.IsValid, &responseTime, &errorReason, &d.ActionTaken, &created)
	if err != nil {
		return d, err
	}

	d.CheckTime = fromTimestamptz(checkTime)
	d.CreatedAt = fromTimestamptz(created)
	d.NetdiskType = fromText(netdiskType)
	d.URL = fromText(url)
	d.ErrorReason = fromText(errorReason)

	if responseTime.Valid {
		v := responseTime.Float64
		d.ResponseTime = &v
	}

	return d, nil
}
