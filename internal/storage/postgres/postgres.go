package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/gameshelf/internal/config"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	owner_id     TEXT NOT NULL,
	id           TEXT NOT NULL,
	name         TEXT NOT NULL,
	image        TEXT NOT NULL DEFAULT '',
	review       TEXT NOT NULL DEFAULT '',
	rating       DOUBLE PRECISION,
	players      JSONB,
	play_time    JSONB,
	tracking     JSONB NOT NULL DEFAULT '{}',
	play_history JSONB NOT NULL DEFAULT '{}',
	sessions     JSONB NOT NULL DEFAULT '[]',
	plays        INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner_id, id)
);

CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	id            TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	last_login    TIMESTAMPTZ
);
`

// Store implements the storage.Store interface using PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and makes sure the schema exists
func Open(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %w", storage.ErrUnavailable, err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Games returns the GameStore implementation
func (s *Store) Games() storage.GameStore { return &gameStore{pool: s.pool} }

// Users returns the UserStore implementation
func (s *Store) Users() storage.UserStore { return &userStore{pool: s.pool} }
