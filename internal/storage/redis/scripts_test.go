package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a miniredis instance for testing Lua scripts
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestDeleteGameScript(t *testing.T) {
	client, _ := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	keys := []string{gameKey("owner", "g1"), gameIndexKey("owner")}

	if err := client.Eval(ctx, upsertGameScript, keys, "g1", `{"id":"g1"}`).Err(); err != nil {
		t.Fatalf("Script execution failed: %v", err)
	}

	removed, err := client.Eval(ctx, deleteGameScript, keys, "g1").Int()
	if err != nil {
		t.Fatalf("Script execution failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	removed, err = client.Eval(ctx, deleteGameScript, keys, "g1").Int()
	if err != nil {
		t.Fatalf("Script execution failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected 0 removed for a missing game, got %d", removed)
	}

	members, err := client.SMembers(ctx, gameIndexKey("owner")).Result()
	if err != nil {
		t.Fatalf("SMembers failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("Expected empty index, got %v", members)
	}
}

func TestReplaceGamesScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	index := gameIndexKey("owner")
	prefix := gameKeyPrefix("owner")

	tests := []struct {
		name        string
		args        []interface{}
		wantDropped int
		wantIDs     []string
	}{
		{
			name:        "into empty collection",
			args:        []interface{}{prefix, "a", `{"id":"a"}`, "b", `{"id":"b"}`},
			wantDropped: 0,
			wantIDs:     []string{"a", "b"},
		},
		{
			name:        "replace existing",
			args:        []interface{}{prefix, "c", `{"id":"c"}`},
			wantDropped: 2,
			wantIDs:     []string{"c"},
		},
		{
			name:        "clear",
			args:        []interface{}{prefix},
			wantDropped: 1,
			wantIDs:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dropped, err := client.Eval(ctx, replaceGamesScript, []string{index}, tt.args...).Int()
			if err != nil {
				t.Fatalf("Script execution failed: %v", err)
			}
			if dropped != tt.wantDropped {
				t.Errorf("Expected %d dropped, got %d", tt.wantDropped, dropped)
			}

			for _, id := range tt.wantIDs {
				if !mr.Exists(prefix + id) {
					t.Errorf("Expected document for %s", id)
				}
				if ok, _ := mr.SIsMember(index, id); !ok {
					t.Errorf("Expected %s in index", id)
				}
			}
			if len(tt.wantIDs) == 0 && mr.Exists(index) {
				t.Errorf("Expected index to be gone")
			}
		})
	}
}
