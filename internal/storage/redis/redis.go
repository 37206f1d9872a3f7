package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/gameshelf/internal/config"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gameshelf"

// Store implements the storage.Store interface using Redis
type Store struct {
	client    *redis.Client
	gameStore *gameStore
	userStore *userStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Host may already carry the port
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w: %w", storage.ErrUnavailable, err)
	}

	return &Store{
		client:    client,
		gameStore: &gameStore{client: client},
		userStore: &userStore{client: client},
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Games returns the GameStore implementation
func (s *Store) Games() storage.GameStore {
	return s.gameStore
}

// Users returns the UserStore implementation
func (s *Store) Users() storage.UserStore {
	return s.userStore
}

func gameKey(owner, id string) string {
	return fmt.Sprintf("%s:game:%s:%s", keyPrefix, owner, id)
}

func gameIndexKey(owner string) string {
	return fmt.Sprintf("%s:games:%s", keyPrefix, owner)
}

func gameKeyPrefix(owner string) string {
	return fmt.Sprintf("%s:game:%s:", keyPrefix, owner)
}

func userKey(username string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, username)
}

const usersSet = keyPrefix + ":users"
