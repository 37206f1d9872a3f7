package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/collection"
	"github.com/goodtune/gameshelf/internal/config"
	"github.com/goodtune/gameshelf/internal/retry"
	"github.com/goodtune/gameshelf/internal/stats"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/goodtune/gameshelf/internal/storage/bolt"
	"github.com/goodtune/gameshelf/internal/storage/cache"
	"github.com/goodtune/gameshelf/internal/storage/postgres"
	"github.com/goodtune/gameshelf/internal/storage/redis"
)

// app is what every command needs: configuration, a logger, the layered
// store and the collection service on top of it.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  storage.Store
	svc    *collection.Service
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	store, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	svc, err := newService(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

// owner resolves a username to the id that scopes its collection. An empty
// username means the initial user.
func (a *app) owner(ctx context.Context, username string) (string, error) {
	if username == "" {
		username = a.cfg.Auth.InitialUsername
	}
	user, err := a.store.Users().Get(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("unknown user %q, create it with 'gameshelf user add'", username)
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return user.ID, nil
}

func newService(cfg *config.Config, store storage.Store, logger zerolog.Logger) (*collection.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return collection.NewService(store.Games(), collection.Options{
		Location: loc,
		Milestones: stats.Milestones{
			Plays: cfg.Tracker.PlayMilestones,
			Wins:  cfg.Tracker.WinMilestones,
		},
		Logger: logger,
	}), nil
}

// openStorage opens the configured backend and layers retries and the game
// cache over it.
func openStorage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Store, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("type", cfg.Type).
		Int("cache_size", cfg.CacheSize).
		Msg("Storage initialized")

	var store storage.Store = retry.Wrap(backend, retryOptions(cfg.Retry), logger)
	if cfg.CacheSize > 0 {
		cached, err := cache.Wrap(store, cfg.CacheSize)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("failed to create game cache: %w", err)
		}
		store = cached
	}
	return store, nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "redis":
		store, err := redis.Open(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "bolt":
		store, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func retryOptions(cfg config.RetryConfig) retry.RetryOptions {
	opts := retry.DefaultOptions()
	opts.MaxAttempts = cfg.MaxAttempts
	opts.InitialInterval = config.Duration(cfg.InitialDelay, opts.InitialInterval)
	opts.MaxInterval = config.Duration(cfg.MaxDelay, opts.MaxInterval)
	if cfg.Multiplier > 0 {
		opts.Multiplier = cfg.Multiplier
	}
	return opts
}

// setupLogger configures the logger based on configuration. Logs go to
// stderr so command output on stdout stays clean.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
