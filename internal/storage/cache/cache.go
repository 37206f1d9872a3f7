package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/metrics"
	"github.com/goodtune/gameshelf/internal/storage"
)

// GameStore is a read-through LRU cache in front of another GameStore.
// Entries are only written after the underlying store accepted a change, so
// a failed write never leaves the cache ahead of storage.
type GameStore struct {
	next  storage.GameStore
	games *lru.Cache[string, *game.Game]
}

// New wraps next with a cache holding up to size games.
func New(next storage.GameStore, size int) (*GameStore, error) {
	c, err := lru.New[string, *game.Game](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create game cache: %w", err)
	}
	return &GameStore{next: next, games: c}, nil
}

func (s *GameStore) List(ctx context.Context, owner string) ([]game.Game, error) {
	games, err := s.next.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range games {
		s.games.Add(cacheKey(owner, games[i].ID), games[i].Clone())
	}
	return games, nil
}

func (s *GameStore) Get(ctx context.Context, owner, id string) (*game.Game, error) {
	if g, ok := s.games.Get(cacheKey(owner, id)); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return g.Clone(), nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	g, err := s.next.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	s.games.Add(cacheKey(owner, id), g.Clone())
	return g, nil
}

// Refresh reads the game from the inner store and replaces the cached copy.
func (s *GameStore) Refresh(ctx context.Context, owner, id string) (*game.Game, error) {
	g, err := s.next.Get(ctx, owner, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.games.Remove(cacheKey(owner, id))
		}
		return nil, err
	}
	s.games.Add(cacheKey(owner, id), g.Clone())
	return g, nil
}

func (s *GameStore) Upsert(ctx context.Context, g game.Game) error {
	if err := s.next.Upsert(ctx, g); err != nil {
		return err
	}
	s.games.Add(cacheKey(g.Owner, g.ID), g.Clone())
	return nil
}

func (s *GameStore) Delete(ctx context.Context, owner, id string) error {
	err := s.next.Delete(ctx, owner, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	s.games.Remove(cacheKey(owner, id))
	return err
}

func (s *GameStore) ReplaceAll(ctx context.Context, owner string, games []game.Game) error {
	if err := s.next.ReplaceAll(ctx, owner, games); err != nil {
		return err
	}
	s.evictOwner(owner)
	for i := range games {
		s.games.Add(cacheKey(owner, games[i].ID), games[i].Clone())
	}
	return nil
}

func (s *GameStore) DeleteAll(ctx context.Context, owner string) (int, error) {
	n, err := s.next.DeleteAll(ctx, owner)
	if err != nil {
		return n, err
	}
	s.evictOwner(owner)
	return n, nil
}

// Len reports the number of cached games.
func (s *GameStore) Len() int {
	return s.games.Len()
}

func (s *GameStore) evictOwner(owner string) {
	prefix := owner + "/"
	for _, key := range s.games.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.games.Remove(key)
		}
	}
}

func cacheKey(owner, id string) string {
	return owner + "/" + id
}

// Store decorates a storage.Store so its games go through a GameStore cache.
type Store struct {
	storage.Store
	games *GameStore
}

// Wrap returns store with a game cache of the given size in front of it.
func Wrap(store storage.Store, size int) (*Store, error) {
	games, err := New(store.Games(), size)
	if err != nil {
		return nil, err
	}
	return &Store{Store: store, games: games}, nil
}

// Games returns the cached game store.
func (s *Store) Games() storage.GameStore {
	return s.games
}
