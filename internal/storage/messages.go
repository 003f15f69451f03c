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

// MessageRepo persists and queries Message rows.
type MessageRepo struct {
	db *DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert persists m and returns its assigned id. The caller is responsible
// for the "links non-empty" invariant (spec.md §3); Insert does not enforce
// it so maintenance code can still adjust rows directly.
func (r *MessageRepo) Insert(ctx context.Context, m domain.Message) (int64, error) {
	linksJSON, err := json.Marshal(m.Links)
	if err != nil {
		return 0, fmt.Errorf("marshal links: %w", err)
	}

	netdiskJSON, err := json.Marshal(m.NetdiskTypes)
	if err != nil {
		return 0, fmt.Errorf("marshal netdisk_types: %w", err)
	}

	const q = `
		INSERT INTO messages (timestamp, title, description, links, tags, source, channel, group_name, bot, netdisk_types, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING id`

	var id int64

	err = r.db.Pool.QueryRow(ctx, q,
		toTimestamptz(m.Timestamp), toText(m.Title), toText(m.Description),
		linksJSON, m.Tags, toText(m.Source), toText(m.Channel), toText(m.GroupName), toText(m.Bot),
		netdiskJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	return id, nil
}

// Get returns a single message by id, or nil if it does not exist.
func (r *MessageRepo) Get(ctx context.Context, id int64) (*domain.Message, error) {
	const q = `
		SELECT id, timestamp, title, description, links, tags, source, channel, group_name, bot, netdisk_types, created_at
		FROM messages WHERE id = $1`

	row := r.db.Pool.QueryRow(ctx, q, id)

	m, err := scanMessage(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("get message: %w", err)
	}

	return m, nil
}

// ListFilter captures every filter dimension in spec.md §4.7.
type ListFilter struct {
	QueryTokens   []string
	Since         *time.Time
	Tags          []string
	Providers     []string
	MinTotalLen   int
	LinksOnly     bool
	Limit         int
	Offset        int
}

// List returns up to f.Limit+1 rows (the caller uses the extra row to detect
// more pages without a count(*) on the common path, per spec.md §4.7).
func (r *MessageRepo) List(ctx context.Context, f ListFilter) ([]domain.Message, error) {
	query, args := buildListQuery(f, false)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		out = append(out, *m)
	}

	return out, rows.Err()
}

// Count returns the total number of rows matching f (ignoring Limit/Offset).
func (r *MessageRepo) Count(ctx context.Context, f ListFilter) (int64, error) {
	query, args := buildListQuery(f, true)

	var total int64
	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}

	return total, nil
}

func buildListQuery(f ListFilter, countOnly bool) (string, []any) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, tok := range f.QueryTokens {
		like := "%" + tok + "%"
		a := arg(like)
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s OR tags @> ARRAY[%s]::text[] OR %s = ANY(tags))", a, a, a, a))
	}

	if f.Since != nil {
		where = append(where, fmt.Sprintf("timestamp >= %s", arg(toTimestamptz(*f.Since))))
	}

	if len(f.Tags) > 0 {
		var tagOrs []string

		for _, t := range f.Tags {
			tagOrs = append(tagOrs, fmt.Sprintf("%s = ANY(tags)", arg(t)))
		}

		where = append(where, "("+orJoin(tagOrs)+")")
	}

	if len(f.Providers) > 0 {
		var provOrs []string

		for _, p := range f.Providers {
			// JSONB containment is the sole performant path for provider
			// filtering (spec.md §9); never unnest in the WHERE clause.
			provOrs = append(provOrs, fmt.Sprintf("netdisk_types @> %s::jsonb", arg(fmt.Sprintf(`["%s"]`, p))))
		}

		where = append(where, "("+orJoin(provOrs)+")")
	}

	if f.MinTotalLen > 0 {
		where = append(where, fmt.Sprintf("(length(title) + length(description)) >= %s", arg(f.MinTotalLen)))
	}

	if f.LinksOnly {
		where = append(where, "links IS NOT NULL AND links != '{}'::jsonb AND links != 'null'::jsonb")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + andJoin(where)
	}

	if countOnly {
		return "SELECT count(*) FROM messages " + whereClause, args
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(
		"SELECT id, timestamp, title, description, links, tags, source, channel, group_name, bot, netdisk_types, created_at FROM messages %s ORDER BY timestamp DESC LIMIT %s OFFSET %s",
		whereClause, arg(limit+1), arg(f.Offset),
	)

	return query, args
}

func orJoin(parts []string) string {
	out := ""

	for i, p := range parts {
		if i > 0 {
			out += " OR "
		}

		out += p
	}

	return out
}

func andJoin(parts []string) string {
	out := ""

	for i, p := range parts {
		if i > 0 {
			out += " AND "
		}

		out += p
	}

	return out
}

// ListAllDesc loads every message ordered by timestamp descending, newest
// first, for the strict dedup pass (spec.md §4.5). Callers at scale should
// prefer ListBatchDesc (streaming mode).
func (r *MessageRepo) ListAllDesc(ctx context.Context) ([]domain.Message, error) {
	const q = `
		SELECT id, timestamp, title, description, links, tags, source, channel, group_name, bot, netdisk_types, created_at
		FROM messages ORDER BY timestamp DESC`

	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list all messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		out = append(out, *m)
	}

	return out, rows.Err()
}

// ListBatchDesc loads one page of messages ordered by timestamp descending,
// for the streaming dedup mode's bounded-memory pass.
func (r *MessageRepo) ListBatchDesc(ctx context.Context, afterID int64, batchSize int) ([]domain.Message, error) {
	const q = `
		SELECT id, timestamp, title, description, links, tags, source, channel, group_name, bot, netdisk_types, created_at
		FROM messages
		WHERE ($1 = 0 OR id < $1)
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := r.db.Pool.Query(ctx, q, afterID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list batch messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		out = append(out, *m)
	}

	return out, rows.Err()
}

// ListWithLinksInRange returns messages with non-null links whose timestamp
// falls in [start, end), for the validation engine's task resolution.
func (r *MessageRepo) ListWithLinksInRange(ctx context.Context, start, end time.Time) ([]domain.Message, error) {
	const q = `
		SELECT id, timestamp, title, description, links, tags, source, channel, group_name, bot, netdisk_types, created_at
		FROM messages
		WHERE timestamp >= $1 AND timestamp < $2
		  AND links IS NOT NULL AND links != 'null'::jsonb AND links != '{}'::jsonb
		ORDER BY timestamp DESC`

	rows, err := r.db.Pool.Query(ctx, q, toTimestamptz(start), toTimestamptz(end))
	if err != nil {
		return nil, fmt.Errorf("list messages in range: %w", err)
	}
	defer rows.Close()

	var out []domain.Message

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		out = append(out, *m)
	}

	return out, rows.Err()
}

// DeleteByIDs removes the given message ids in a single statement.
func (r *MessageRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	const q = `DELETE FROM messages WHERE id = ANY($1)`

	if _, err := r.db.Pool.Exec(ctx, q, ids); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	return nil
}

// RawTagRows returns every message id whose tags column could not be
// scanned as a text[] (i.e. contains a legacy stringified-list literal),
// keyed by id, value the raw text. On this schema tags is always a proper
// array, so in steady state this returns nothing; it exists for
// internal/dedup.FixTags to repair rows written by an older importer.
func (r *MessageRepo) RawTagRows(ctx context.Context) (map[int64]string, error) {
	const q = `SELECT id, tags::text FROM messages WHERE tags::text LIKE '[%' `

	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list raw tag rows: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)

	for rows.Next() {
		var (
			id  int64
			raw string
		)

		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan raw tag row: %w", err)
		}

		out[id] = raw
	}

	return out, rows.Err()
}

// SetTags overwrites a message's tags column.
func (r *MessageRepo) SetTags(ctx context.Context, id int64, tags []string) error {
	if _, err := r.db.Pool.Exec(ctx, `UPDATE messages SET tags = $1 WHERE id = $2`, tags, id); err != nil {
		return fmt.Errorf("set tags: %w", err)
	}

	return nil
}

// TagCount is one tag's frequency across all messages.
type TagCount struct {
	Tag   string
	Count int64
}

// TagStats returns the `limit` most frequent tags, descending by count,
// computed via unnest rather than loading rows into memory.
func (r *MessageRepo) TagStats(ctx context.Context, limit int) ([]TagCount, error) {
	const q = `
		SELECT tag, COUNT(*) AS c
		FROM messages, unnest(tags) AS tag
		GROUP BY tag
		ORDER BY c DESC, tag ASC
		LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("tag stats: %w", err)
	}
	defer rows.Close()

	var out []TagCount

	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag stats: %w", err)
		}

		out = append(out, tc)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var (
		m                domain.Message
		title, desc      pgtype.Text
		src, ch, gr, bot pgtype.Text
		linksJSON        []byte
		netdiskJSON      []byte
		ts, created      pgtype.Timestamptz
	)

	if err := row.Scan(&m.ID, &ts, &title, &desc, &linksJSON, &m.Tags, &src, &ch, &gr, &bot, &netdiskJSON, &created); err != nil {
		return nil, err
	}

	m.Timestamp = fromTimestamptz(ts)
	m.CreatedAt = fromTimestamptz(created)
	m.Title = fromText(title)
	m.Description = fromText(desc)
	m.Source = fromText(src)
	m.Channel = fromText(ch)
	m.GroupName = fromText(gr)
	m.Bot = fromText(bot)

	if len(linksJSON) > 0 {
		_ = json.Unmarshal(linksJSON, &m.Links)
	}

	if len(netdiskJSON) > 0 {
		_ = json.Unmarshal(netdiskJSON, &m.NetdiskTypes)
	}

	return &m, nil
}
