package storage

import (
	"context"
	"errors"
	"time"

	"github.com/goodtune/gameshelf/internal/game"
)

var (
	// ErrNotFound is returned when a record is missing from storage.
	ErrNotFound = errors.New("storage: record not found")

	// ErrUnavailable is returned when the backing service cannot be reached.
	ErrUnavailable = errors.New("storage: store unavailable")

	// ErrInvalidRecord is returned when a record cannot be stored as given.
	ErrInvalidRecord = errors.New("storage: invalid record")
)

// Store represents the root storage interface.
type Store interface {
	Close() error
	Games() GameStore
	Users() UserStore
}

// GameStore holds each user's game collection. Every call is scoped by the
// owning user's ID; a game is only visible to its owner.
type GameStore interface {
	List(ctx context.Context, owner string) ([]game.Game, error)
	Get(ctx context.Context, owner, id string) (*game.Game, error)
	Upsert(ctx context.Context, g game.Game) error
	Delete(ctx context.Context, owner, id string) error
	ReplaceAll(ctx context.Context, owner string, games []game.Game) error
	DeleteAll(ctx context.Context, owner string) (int, error)
}

// Refresher is implemented by game stores that may answer Get from a local
// copy. Refresh always reads the backing store.
type Refresher interface {
	Refresh(ctx context.Context, owner, id string) (*game.Game, error)
}

// Latest returns the game as the backing store holds it, skipping any
// cached copy. Read-modify-write paths must load through Latest since other
// processes may share the backend.
func Latest(ctx context.Context, games GameStore, owner, id string) (*game.Game, error) {
	if r, ok := games.(Refresher); ok {
		return r.Refresh(ctx, owner, id)
	}
	return games.Get(ctx, owner, id)
}

// UserStore manages user accounts.
type UserStore interface {
	Get(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Upsert(ctx context.Context, user User) error
	UpdateLastLogin(ctx context.Context, username string, loginTime time.Time) error
}

// User is an account owning one game collection.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}
