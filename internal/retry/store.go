package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/metrics"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/rs/zerolog"
)

// Store wraps a storage.Store so that every call is retried with backoff and
// observed in the storage metrics. Transient failures that outlast the retry
// attempts are reported as storage.ErrUnavailable.
type Store struct {
	next   storage.Store
	opts   RetryOptions
	logger zerolog.Logger
}

// Wrap decorates store with retries.
func Wrap(store storage.Store, opts RetryOptions, logger zerolog.Logger) *Store {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Classifier == nil {
		opts.Classifier = Transient
	}
	return &Store{
		next:   store,
		opts:   opts,
		logger: logger.With().Str("component", "storage").Logger(),
	}
}

func (s *Store) Close() error { return s.next.Close() }

func (s *Store) Games() storage.GameStore {
	return &gameStore{next: s.next.Games(), s: s}
}

func (s *Store) Users() storage.UserStore {
	return &userStore{next: s.next.Users(), s: s}
}

// run executes one storage call under the retry policy.
func (s *Store) run(ctx context.Context, op string, fn RetryableFunc) error {
	start := time.Now()
	attempts := 0
	err := Do(ctx, func() error {
		attempts++
		err := fn()
		if err != nil && s.opts.Classifier(err) {
			s.logger.Warn().Err(err).Str("op", op).Int("attempt", attempts).Msg("Storage call failed")
		}
		return err
	}, s.opts)
	metrics.ObserveStoreOp(op, start, err)

	if err == nil || !s.opts.Classifier(err) || errors.Is(err, storage.ErrUnavailable) {
		return err
	}
	s.logger.Error().Err(err).Str("op", op).Int("attempts", attempts).Msg("Storage unavailable")
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}

type gameStore struct {
	next storage.GameStore
	s    *Store
}

func (g *gameStore) List(ctx context.Context, owner string) ([]game.Game, error) {
	var games []game.Game
	err := g.s.run(ctx, "list_games", func() error {
		var err error
		games, err = g.next.List(ctx, owner)
		return err
	})
	return games, err
}

func (g *gameStore) Get(ctx context.Context, owner, id string) (*game.Game, error) {
	var result *game.Game
	err := g.s.run(ctx, "get_game", func() error {
		var err error
		result, err = g.next.Get(ctx, owner, id)
		return err
	})
	return result, err
}

func (g *gameStore) Upsert(ctx context.Context, value game.Game) error {
	return g.s.run(ctx, "upsert_game", func() error {
		return g.next.Upsert(ctx, value)
	})
}

func (g *gameStore) Delete(ctx context.Context, owner, id string) error {
	return g.s.run(ctx, "delete_game", func() error {
		return g.next.Delete(ctx, owner, id)
	})
}

func (g *gameStore) ReplaceAll(ctx context.Context, owner string, games []game.Game) error {
	return g.s.run(ctx, "replace_games", func() error {
		return g.next.ReplaceAll(ctx, owner, games)
	})
}

func (g *gameStore) DeleteAll(ctx context.Context, owner string) (int, error) {
	var n int
	err := g.s.run(ctx, "delete_all_games", func() error {
		var err error
		n, err = g.next.DeleteAll(ctx, owner)
		return err
	})
	return n, err
}

type userStore struct {
	next storage.UserStore
	s    *Store
}

func (u *userStore) Get(ctx context.Context, username string) (*storage.User, error) {
	var user *storage.User
	err := u.s.run(ctx, "get_user", func() error {
		var err error
		user, err = u.next.Get(ctx, username)
		return err
	})
	return user, err
}

func (u *userStore) List(ctx context.Context) ([]storage.User, error) {
	var users []storage.User
	err := u.s.run(ctx, "list_users", func() error {
		var err error
		users, err = u.next.List(ctx)
		return err
	})
	return users, err
}

func (u *userStore) Upsert(ctx context.Context, user storage.User) error {
	return u.s.run(ctx, "upsert_user", func() error {
		return u.next.Upsert(ctx, user)
	})
}

func (u *userStore) UpdateLastLogin(ctx context.Context, username string, loginTime time.Time) error {
	return u.s.run(ctx, "update_last_login", func() error {
		return u.next.UpdateLastLogin(ctx, username, loginTime)
	})
}
