package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// copyThreshold is the collection size from which imports use COPY.
const copyThreshold = 100

var gameColumns = []string{
	"owner_id", "id", "name", "image", "review", "rating", "players", "play_time",
	"tracking", "play_history", "sessions", "plays", "created_at", "updated_at",
}

const selectGames = `
	SELECT owner_id, id, name, image, review, rating, players, play_time,
		tracking, play_history, sessions, plays, created_at, updated_at
	FROM games
`

const upsertGameQuery = `
	INSERT INTO games (owner_id, id, name, image, review, rating, players, play_time,
		tracking, play_history, sessions, plays, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (owner_id, id) DO UPDATE SET
		name = EXCLUDED.name,
		image = EXCLUDED.image,
		review = EXCLUDED.review,
		rating = EXCLUDED.rating,
		players = EXCLUDED.players,
		play_time = EXCLUDED.play_time,
		tracking = EXCLUDED.tracking,
		play_history = EXCLUDED.play_history,
		sessions = EXCLUDED.sessions,
		plays = EXCLUDED.plays,
		updated_at = EXCLUDED.updated_at
`

type gameStore struct {
	pool *pgxpool.Pool
}

func (s *gameStore) List(ctx context.Context, owner string) ([]game.Game, error) {
	rows, err := s.pool.Query(ctx, selectGames+" WHERE owner_id = $1 ORDER BY id", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]game.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func (s *gameStore) Get(ctx context.Context, owner, id string) (*game.Game, error) {
	row := s.pool.QueryRow(ctx, selectGames+" WHERE owner_id = $1 AND id = $2", owner, id)
	g, err := scanGame(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return g, err
}

func (s *gameStore) Upsert(ctx context.Context, g game.Game) error {
	if g.Owner == "" || g.ID == "" {
		return fmt.Errorf("%w: upsert game: owner and id are required", storage.ErrInvalidRecord)
	}
	values, err := gameRow(g)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, upsertGameQuery, values...)
	return err
}

func (s *gameStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM games WHERE owner_id = $1 AND id = $2", owner, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReplaceAll swaps the owner's collection inside one transaction, using the
// COPY protocol for large collections and plain inserts otherwise.
func (s *gameStore) ReplaceAll(ctx context.Context, owner string, games []game.Game) error {
	rows := make([][]interface{}, 0, len(games))
	for _, g := range games {
		if g.Owner != owner {
			return fmt.Errorf("%w: game %s belongs to %q, not %q", storage.ErrInvalidRecord, g.ID, g.Owner, owner)
		}
		values, err := gameRow(g)
		if err != nil {
			return err
		}
		rows = append(rows, values)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM games WHERE owner_id = $1", owner); err != nil {
		return fmt.Errorf("failed to clear games: %w", err)
	}

	if shouldUseCopy(len(rows)) {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"games"}, gameColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy from failed: %w", err)
		}
	} else {
		for _, values := range rows {
			if _, err := tx.Exec(ctx, upsertGameQuery, values...); err != nil {
				return fmt.Errorf("failed to insert game: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

func (s *gameStore) DeleteAll(ctx context.Context, owner string) (int, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM games WHERE owner_id = $1", owner)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func shouldUseCopy(n int) bool {
	return n >= copyThreshold
}

// gameRow flattens a game into column values in gameColumns order.
func gameRow(g game.Game) ([]interface{}, error) {
	g.Normalize()

	encoded := make([][]byte, 0, 5)
	for _, v := range []any{g.Players, g.PlayTime, g.Tracking, g.PlayHistory, g.Sessions} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal game %s: %w", storage.ErrInvalidRecord, g.ID, err)
		}
		encoded = append(encoded, data)
	}

	return []interface{}{
		g.Owner, g.ID, g.Name, g.Image, g.Review, g.Rating,
		encoded[0], encoded[1], encoded[2], encoded[3], encoded[4],
		g.Plays, g.CreatedAt, g.UpdatedAt,
	}, nil
}

func scanGame(row pgx.Row) (*game.Game, error) {
	var (
		g                                            game.Game
		players, playTime, tracking, history, sessions []byte
	)
	err := row.Scan(&g.Owner, &g.ID, &g.Name, &g.Image, &g.Review, &g.Rating,
		&players, &playTime, &tracking, &history, &sessions,
		&g.Plays, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeColumns(&g, players, playTime, tracking, history, sessions); err != nil {
		return nil, err
	}
	return &g, nil
}

// decodeColumns fills the JSON-backed fields and re-derives the play total.
func decodeColumns(g *game.Game, players, playTime, tracking, history, sessions []byte) error {
	targets := []struct {
		name string
		data []byte
		out  any
	}{
		{"players", players, &g.Players},
		{"play_time", playTime, &g.PlayTime},
		{"tracking", tracking, &g.Tracking},
		{"play_history", history, &g.PlayHistory},
		{"sessions", sessions, &g.Sessions},
	}
	for _, t := range targets {
		if len(t.data) == 0 {
			continue
		}
		if err := json.Unmarshal(t.data, t.out); err != nil {
			return fmt.Errorf("%w: decode %s of game %s: %w", storage.ErrInvalidRecord, t.name, g.ID, err)
		}
	}
	g.Normalize()
	return nil
}
