package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/redis/go-redis/v9"
)

var (
	upsertGame   = redis.NewScript(upsertGameScript)
	deleteGame   = redis.NewScript(deleteGameScript)
	replaceGames = redis.NewScript(replaceGamesScript)
)

// gameStore keeps each game as a JSON document with a per-owner id index.
type gameStore struct {
	client *redis.Client
}

// List returns every game of an owner, ordered by id
func (s *gameStore) List(ctx context.Context, owner string) ([]game.Game, error) {
	ids, err := s.client.SMembers(ctx, gameIndexKey(owner)).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []game.Game{}, nil
	}
	sort.Strings(ids)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, gameKey(owner, id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	games := make([]game.Game, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			// Index entry without a document
			continue
		}
		if err != nil {
			return nil, err
		}
		g, err := decodeGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}

	return games, nil
}

// Get retrieves a single game
func (s *gameStore) Get(ctx context.Context, owner, id string) (*game.Game, error) {
	data, err := s.client.Get(ctx, gameKey(owner, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeGame(data)
}

// Upsert writes a game document
func (s *gameStore) Upsert(ctx context.Context, g game.Game) error {
	if g.Owner == "" || g.ID == "" {
		return fmt.Errorf("%w: upsert game: owner and id are required", storage.ErrInvalidRecord)
	}
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("%w: marshal game: %w", storage.ErrInvalidRecord, err)
	}

	keys := []string{gameKey(g.Owner, g.ID), gameIndexKey(g.Owner)}
	return upsertGame.Run(ctx, s.client, keys, g.ID, data).Err()
}

// Delete removes a game
func (s *gameStore) Delete(ctx context.Context, owner, id string) error {
	keys := []string{gameKey(owner, id), gameIndexKey(owner)}
	removed, err := deleteGame.Run(ctx, s.client, keys, id).Int()
	if err != nil {
		return err
	}
	if removed == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReplaceAll swaps an owner's whole collection in one script call
func (s *gameStore) ReplaceAll(ctx context.Context, owner string, games []game.Game) error {
	args := make([]interface{}, 0, 1+2*len(games))
	args = append(args, gameKeyPrefix(owner))
	for _, g := range games {
		if g.Owner != owner {
			return fmt.Errorf("%w: game %s belongs to %q, not %q", storage.ErrInvalidRecord, g.ID, g.Owner, owner)
		}
		data, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("%w: marshal game: %w", storage.ErrInvalidRecord, err)
		}
		args = append(args, g.ID, data)
	}

	return replaceGames.Run(ctx, s.client, []string{gameIndexKey(owner)}, args...).Err()
}

// DeleteAll removes every game of an owner
func (s *gameStore) DeleteAll(ctx context.Context, owner string) (int, error) {
	return replaceGames.Run(ctx, s.client, []string{gameIndexKey(owner)}, gameKeyPrefix(owner)).Int()
}

func decodeGame(data []byte) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: unmarshal game: %w", storage.ErrInvalidRecord, err)
	}
	g.Normalize()
	return &g, nil
}
