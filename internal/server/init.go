package server

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/goodtune/gameshelf/internal/storage"
)

// EnsureInitialUser creates the first account if no users exist.
func EnsureInitialUser(ctx context.Context, store storage.UserStore, username, password string, logger zerolog.Logger) error {
	users, err := store.List(ctx)
	if err != nil {
		return err
	}

	if len(users) > 0 {
		logger.Info().Int("count", len(users)).Msg("Users already exist")
		return nil
	}

	if username == "" {
		username = "admin"
	}

	if password == "" {
		return errors.New("initial password cannot be empty")
	}

	user, err := CreateUser(ctx, store, username, password)
	if err != nil {
		return err
	}

	logger.Info().
		Str("username", user.Username).
		Str("user_id", user.ID).
		Msg("Created initial user")

	if password == "changeme" || password == "password" {
		logger.Warn().Msg("Initial user has a default password, change it")
	}

	return nil
}
