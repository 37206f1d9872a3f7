package collection

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodtune/gameshelf/internal/config"
	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
	"github.com/goodtune/gameshelf/internal/storage/cache"
	"github.com/goodtune/gameshelf/internal/storage/redis"
)

func openRedisGames(t *testing.T, mr *miniredis.Miniredis) storage.GameStore {
	t.Helper()

	store, err := redis.Open(config.RedisConfig{
		Host:         mr.Addr(),
		PoolSize:     2,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	})
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store.Games()
}

// A server with a game cache and a CLI process share one Redis. Writes made
// by either must survive the other's next change.
func TestCachedServiceSeesWritesFromAnotherProcess(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cached, err := cache.New(openRedisGames(t, mr), 16)
	require.NoError(t, err)

	newSvc := func(games storage.GameStore) *Service {
		return NewService(games, Options{
			Clock:  &FixedClock{CurrentTime: testTime},
			Logger: zerolog.Nop(),
		})
	}
	server := newSvc(cached)
	cli := newSvc(openRedisGames(t, mr))

	g, err := server.Create(ctx, owner, game.Details{Name: "Azul"})
	require.NoError(t, err)

	// Warm the server's cache.
	_, err = server.Get(ctx, owner, g.ID)
	require.NoError(t, err)

	req := PlayRequest{Day: "2024-03-01"}
	_, _, err = server.RecordPlay(ctx, owner, g.ID, req)
	require.NoError(t, err)
	_, _, err = cli.RecordPlay(ctx, owner, g.ID, req)
	require.NoError(t, err)
	got, _, err := server.RecordPlay(ctx, owner, g.ID, req)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Plays)
	assert.Equal(t, map[string]int{"2024-03-01": 3}, got.PlayHistory)

	stored, err := cli.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Plays)

	_, removal, err := cli.RemovePlay(ctx, owner, g.ID, "2024-03-01", "")
	require.NoError(t, err)
	require.True(t, removal.Removed)
	got, err = server.Update(ctx, owner, g.ID, game.Details{Name: "Azul: Summer Pavilion"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Plays)
}
