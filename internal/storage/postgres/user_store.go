package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectUsers = `SELECT id, username, password_hash, created_at, updated_at, last_login FROM users`

type userStore struct {
	pool *pgxpool.Pool
}

func (s *userStore) Get(ctx context.Context, username string) (*storage.User, error) {
	var u storage.User
	err := s.pool.QueryRow(ctx, selectUsers+" WHERE username = $1", username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) List(ctx context.Context) ([]storage.User, error) {
	rows, err := s.pool.Query(ctx, selectUsers+" ORDER BY username")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.User, error) {
		var u storage.User
		err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin)
		return u, err
	})
}

func (s *userStore) Upsert(ctx context.Context, user storage.User) error {
	const query = `
		INSERT INTO users (id, username, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at,
			last_login = EXCLUDED.last_login
	`
	_, err := s.pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt, user.LastLogin)
	return err
}

func (s *userStore) UpdateLastLogin(ctx context.Context, username string, loginTime time.Time) error {
	tag, err := s.pool.Exec(ctx, "UPDATE users SET last_login = $2, updated_at = $2 WHERE username = $1", username, loginTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
