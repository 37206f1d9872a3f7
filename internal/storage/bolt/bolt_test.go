package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
)

var testTime = time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)

func TestGameStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	games := store.Games()
	g := game.New("user-a", game.Details{Name: "Azul"}, testTime)
	g.RecordPlay("2024-03-05", nil, testTime)
	g.RecordPlay("2024-03-05", nil, testTime)

	if err := games.Upsert(context.Background(), *g); err != nil {
		t.Fatalf("upsert game: %v", err)
	}

	got, err := games.Get(context.Background(), "user-a", g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.Plays != 2 || got.PlayHistory["2024-03-05"] != 2 {
		t.Fatalf("expected 2 plays on 2024-03-05, got %d (%v)", got.Plays, got.PlayHistory)
	}

	if _, err := games.Get(context.Background(), "user-b", g.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
}

func TestGameStoreListIsScopedByOwner(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	games := store.Games()
	for _, owner := range []string{"user-a", "user-a", "user-b"} {
		g := game.New(owner, game.Details{Name: "Catan"}, testTime)
		if err := games.Upsert(context.Background(), *g); err != nil {
			t.Fatalf("upsert game: %v", err)
		}
	}

	list, err := games.List(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 games for user-a, got %d", len(list))
	}

	empty, err := games.List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no games, got %d", len(empty))
	}
}

func TestGameStoreDelete(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	games := store.Games()
	g := game.New("user-a", game.Details{Name: "Brass"}, testTime)
	if err := games.Upsert(context.Background(), *g); err != nil {
		t.Fatalf("upsert game: %v", err)
	}

	if err := games.Delete(context.Background(), "user-a", g.ID); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	if err := games.Delete(context.Background(), "user-a", g.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestGameStoreReplaceAll(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	games := store.Games()
	old := game.New("user-a", game.Details{Name: "Old"}, testTime)
	if err := games.Upsert(context.Background(), *old); err != nil {
		t.Fatalf("upsert game: %v", err)
	}

	replacement := []game.Game{
		*game.New("user-a", game.Details{Name: "One"}, testTime),
		*game.New("user-a", game.Details{Name: "Two"}, testTime),
	}
	if err := games.ReplaceAll(context.Background(), "user-a", replacement); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	list, err := games.List(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 games after replace, got %d", len(list))
	}

	deleted, err := games.DeleteAll(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted games, got %d", deleted)
	}
}

func TestUserStoreLastLogin(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	users := store.Users()
	if err := users.Upsert(context.Background(), storage.User{ID: "u1", Username: "sam", CreatedAt: testTime}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	login := testTime.Add(time.Hour)
	if err := users.UpdateLastLogin(context.Background(), "sam", login); err != nil {
		t.Fatalf("update last login: %v", err)
	}

	user, err := users.Get(context.Background(), "sam")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.LastLogin == nil || !user.LastLogin.Equal(login) {
		t.Fatalf("expected last login %v, got %v", login, user.LastLogin)
	}

	if err := users.UpdateLastLogin(context.Background(), "nobody", login); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gameshelf.bolt")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}
