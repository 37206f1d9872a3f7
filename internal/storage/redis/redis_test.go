package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/gameshelf/internal/config"
	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
)

var testTime = time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Host:         mr.Addr(), // Full address "host:port"
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}

	return store, mr
}

func TestGameStore_UpsertAndGet(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	games := store.Games()

	g := game.New("user-1", game.Details{Name: "Wingspan", Tracking: game.Tracking{Score: true}}, testTime)
	score := 81.0
	g.RecordPlay("2024-03-05", &game.SessionDetail{Score: &score}, testTime)

	if err := games.Upsert(ctx, *g); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if !mr.Exists(gameKey("user-1", g.ID)) {
		t.Fatalf("Expected game document at %s", gameKey("user-1", g.ID))
	}
	if ok, _ := mr.SIsMember(gameIndexKey("user-1"), g.ID); !ok {
		t.Fatalf("Expected %s in owner index", g.ID)
	}

	retrieved, err := games.Get(ctx, "user-1", g.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.Name != "Wingspan" {
		t.Errorf("Expected name Wingspan, got %s", retrieved.Name)
	}
	if retrieved.Plays != 1 || len(retrieved.Sessions) != 1 {
		t.Errorf("Expected 1 play with 1 session, got %d plays and %d sessions", retrieved.Plays, len(retrieved.Sessions))
	}
	if retrieved.Sessions[0].Score == nil || *retrieved.Sessions[0].Score != 81 {
		t.Errorf("Expected session score 81, got %v", retrieved.Sessions[0].Score)
	}
}

func TestGameStore_GetNotFound(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Games().Get(context.Background(), "user-1", "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGameStore_CorruptDocument(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := mr.Set(gameKey("user-1", "broken"), "{"); err != nil {
		t.Fatalf("Failed to seed document: %v", err)
	}

	_, err := store.Games().Get(context.Background(), "user-1", "broken")
	if !errors.Is(err, storage.ErrInvalidRecord) {
		t.Fatalf("Expected ErrInvalidRecord, got %v", err)
	}
}

func TestGameStore_ListAndDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	games := store.Games()

	first := game.New("user-1", game.Details{Name: "Azul"}, testTime)
	second := game.New("user-1", game.Details{Name: "Root"}, testTime)
	other := game.New("user-2", game.Details{Name: "Catan"}, testTime)
	for _, g := range []*game.Game{first, second, other} {
		if err := games.Upsert(ctx, *g); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	list, err := games.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 games, got %d", len(list))
	}

	if err := games.Delete(ctx, "user-1", first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := games.Delete(ctx, "user-1", first.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}

	list, err = games.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("Expected only %s to remain, got %+v", second.ID, list)
	}
}

func TestGameStore_ReplaceAllAndDeleteAll(t *testing.T) {
	store, mr := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	games := store.Games()

	old := game.New("user-1", game.Details{Name: "Old"}, testTime)
	if err := games.Upsert(ctx, *old); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	replacement := []game.Game{
		*game.New("user-1", game.Details{Name: "One"}, testTime),
		*game.New("user-1", game.Details{Name: "Two"}, testTime),
		*game.New("user-1", game.Details{Name: "Three"}, testTime),
	}
	if err := games.ReplaceAll(ctx, "user-1", replacement); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	if mr.Exists(gameKey("user-1", old.ID)) {
		t.Errorf("Expected old game document to be removed")
	}

	list, err := games.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 games after replace, got %d", len(list))
	}

	deleted, err := games.DeleteAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted games, got %d", deleted)
	}
	if mr.Exists(gameIndexKey("user-1")) {
		t.Errorf("Expected owner index to be removed")
	}
}

func TestGameStore_ReplaceAllRejectsForeignGames(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	foreign := []game.Game{*game.New("user-2", game.Details{Name: "Catan"}, testTime)}
	if err := store.Games().ReplaceAll(context.Background(), "user-1", foreign); err == nil {
		t.Fatal("Expected error for a game owned by another user")
	}
}

func TestUserStore_RoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	users := store.Users()

	user := storage.User{
		ID:           "u-1",
		Username:     "alex",
		PasswordHash: "hash",
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
	if err := users.Upsert(ctx, user); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	retrieved, err := users.Get(ctx, "alex")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ID != "u-1" || retrieved.PasswordHash != "hash" {
		t.Errorf("Unexpected user: %+v", retrieved)
	}
	if retrieved.LastLogin != nil {
		t.Errorf("Expected no last login, got %v", retrieved.LastLogin)
	}

	login := testTime.Add(time.Hour)
	if err := users.UpdateLastLogin(ctx, "alex", login); err != nil {
		t.Fatalf("UpdateLastLogin failed: %v", err)
	}
	retrieved, err = users.Get(ctx, "alex")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.LastLogin == nil || !retrieved.LastLogin.Equal(login) {
		t.Errorf("Expected last login %v, got %v", login, retrieved.LastLogin)
	}

	all, err := users.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 user, got %d", len(all))
	}

	if err := users.UpdateLastLogin(ctx, "nobody", login); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := users.Get(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(config.RedisConfig{
		Host:         addr,
		DialTimeout:  "200ms",
		ReadTimeout:  "200ms",
		WriteTimeout: "200ms",
	})
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
}
