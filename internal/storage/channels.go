package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

// ChannelRepo persists monitored Telegram channels.
type ChannelRepo struct {
	db *DB
}

// NewChannelRepo constructs a ChannelRepo.
func NewChannelRepo(db *DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// List returns every configured channel.
func (r *ChannelRepo) List(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, username FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []domain.Channel

	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.Username); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

// Insert adds a new channel and returns its id.
func (r *ChannelRepo) Insert(ctx context.Context, username string) (int64, error) {
	var id int64

	err := r.db.Pool.QueryRow(ctx, `INSERT INTO channels (username) VALUES ($1) RETURNING id`, username).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert channel: %w", err)
	}

	return id, nil
}

// Update replaces a channel's username.
func (r *ChannelRepo) Update(ctx context.Context, id int64, username string) error {
	ct, err := r.db.Pool.Exec(ctx, `UPDATE channels SET username = $1 WHERE id = $2`, username, id)
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// Delete removes a channel by id.
func (r *ChannelRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}

	return nil
}
