package storage

import (
	"context"
	"fmt"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

// CredentialRepo persists Telegram API id/hash rows; at most a few exist.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo constructs a CredentialRepo.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// List returns every stored credential.
func (r *CredentialRepo) List(ctx context.Context) ([]domain.Credential, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, api_id, api_hash FROM credentials ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []domain.Credential

	for rows.Next() {
		var c domain.Credential
		if err := rows.Scan(&c.ID, &c.APIID, &c.APIHash); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

// Insert adds a credential row and returns its id.
func (r *CredentialRepo) Insert(ctx context.Context, apiID, apiHash string) (int64, error) {
	var id int64

	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO credentials (api_id, api_hash) VALUES ($1, $2) RETURNING id`, apiID, apiHash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert credential: %w", err)
	}

	return id, nil
}

// Delete removes a credential row by id.
func (r *CredentialRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}

	return nil
}
