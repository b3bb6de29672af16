package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gruzdev-dev/codex-users/adapters/storage"
	"github.com/gruzdev-dev/codex-users/core/domain"
	"github.com/gruzdev-dev/codex-users/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepo keeps the collection as one JSONB row of user_documents,
// keyed by document name.
type DocumentRepo struct {
	pool *pgxpool.Pool
	name string
}

func NewDocumentRepo(pool *pgxpool.Pool, name string) ports.UserRepository {
	return &DocumentRepo{
		pool: pool,
		name: name,
	}
}

func (r *DocumentRepo) Load(ctx context.Context) ([]domain.User, error) {
	query := `SELECT body FROM user_documents WHERE name = $1`

	var body []byte
	err := r.pool.QueryRow(ctx, query, r.name).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.User{}, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageRead, err)
	}

	users, err := storage.DecodeUsers(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse document %s: %v", domain.ErrStorageRead, r.name, err)
	}

	return users, nil
}

func (r *DocumentRepo) Save(ctx context.Context, users []domain.User) error {
	body, err := storage.EncodeUsers(users)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrStorageWrite, err)
	}

	query := `INSERT INTO user_documents (name, body, updated_at)
	          VALUES ($1, $2, now())
	          ON CONFLICT (name) DO UPDATE
	          SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

	if _, err := r.pool.Exec(ctx, query, r.name, string(body)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return nil
}
