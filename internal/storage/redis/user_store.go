package redis

import (
	"context"
	"time"

	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/redis/go-redis/v9"
)

type userStore struct {
	client *redis.Client
}

// Get retrieves a user by username
func (s *userStore) Get(ctx context.Context, username string) (*storage.User, error) {
	data, err := s.client.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return nil, err
	}
	return parseUser(data)
}

// List retrieves every user
func (s *userStore) List(ctx context.Context) ([]storage.User, error) {
	names, err := s.client.SMembers(ctx, usersSet).Result()
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return []storage.User{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, userKey(name))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	users := make([]storage.User, 0, len(names))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		user, err := parseUser(data)
		if err != nil {
			continue
		}
		users = append(users, *user)
	}

	return users, nil
}

// Upsert creates or replaces a user
func (s *userStore) Upsert(ctx context.Context, user storage.User) error {
	fields := map[string]interface{}{
		"id":            user.ID,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"created_at":    user.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    user.UpdatedAt.Format(time.RFC3339Nano),
		"last_login":    "",
	}
	if user.LastLogin != nil {
		fields["last_login"] = user.LastLogin.Format(time.RFC3339Nano)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, userKey(user.Username), fields)
	pipe.SAdd(ctx, usersSet, user.Username)
	_, err := pipe.Exec(ctx)
	return err
}

// UpdateLastLogin stamps a successful login
func (s *userStore) UpdateLastLogin(ctx context.Context, username string, loginTime time.Time) error {
	exists, err := s.client.Exists(ctx, userKey(username)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return storage.ErrNotFound
	}

	stamp := loginTime.Format(time.RFC3339Nano)
	return s.client.HSet(ctx, userKey(username), "last_login", stamp, "updated_at", stamp).Err()
}
