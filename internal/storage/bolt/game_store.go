package bolt

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/storage"
	"go.etcd.io/bbolt"
)

// gameStore keeps one nested bucket per owner under the games bucket.
type gameStore struct {
	db *bbolt.DB
}

func (s *gameStore) List(ctx context.Context, owner string) ([]game.Game, error) {
	games := make([]game.Game, 0)
	return games, s.db.View(func(tx *bbolt.Tx) error {
		b := ownerBucket(tx, owner)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var g game.Game
			if err := unmarshal(v, &g); err != nil {
				return err
			}
			g.Normalize()
			games = append(games, g)
			return nil
		})
	})
}

func (s *gameStore) Get(ctx context.Context, owner, id string) (*game.Game, error) {
	var result *game.Game
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := ownerBucket(tx, owner)
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(id))
		if value == nil {
			return storage.ErrNotFound
		}
		var g game.Game
		if err := unmarshal(value, &g); err != nil {
			return err
		}
		g.Normalize()
		result = &g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *gameStore) Upsert(ctx context.Context, g game.Game) error {
	if g.Owner == "" || g.ID == "" {
		return fmt.Errorf("%w: upsert game: owner and id are required", storage.ErrInvalidRecord)
	}
	data, err := marshal(g)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := ensureOwnerBucket(tx, g.Owner)
		if err != nil {
			return err
		}
		return b.Put([]byte(g.ID), data)
	})
}

func (s *gameStore) Delete(ctx context.Context, owner, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := ownerBucket(tx, owner)
		if b == nil || b.Get([]byte(id)) == nil {
			return storage.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *gameStore) ReplaceAll(ctx context.Context, owner string, games []game.Game) error {
	encoded := make(map[string][]byte, len(games))
	for _, g := range games {
		if g.Owner != owner {
			return fmt.Errorf("%w: game %s belongs to %q, not %q", storage.ErrInvalidRecord, g.ID, g.Owner, owner)
		}
		data, err := marshal(g)
		if err != nil {
			return err
		}
		encoded[g.ID] = data
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := dropOwnerBucket(tx, owner); err != nil {
			return err
		}
		b, err := ensureOwnerBucket(tx, owner)
		if err != nil {
			return err
		}
		for id, data := range encoded {
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *gameStore) DeleteAll(ctx context.Context, owner string) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := dropOwnerBucket(tx, owner)
		deleted = n
		return err
	})
	return deleted, err
}

func ownerBucket(tx *bbolt.Tx, owner string) *bbolt.Bucket {
	root := tx.Bucket([]byte(bucketGames))
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(owner))
}

func ensureOwnerBucket(tx *bbolt.Tx, owner string) (*bbolt.Bucket, error) {
	if owner == "" {
		return nil, fmt.Errorf("empty owner")
	}
	root := tx.Bucket([]byte(bucketGames))
	if root == nil {
		return nil, fmt.Errorf("bucket missing: %s", bucketGames)
	}
	b, err := root.CreateBucketIfNotExists([]byte(owner))
	if err != nil {
		return nil, fmt.Errorf("create owner bucket: %w", err)
	}
	return b, nil
}

// dropOwnerBucket removes the owner's bucket and reports how many games it held.
func dropOwnerBucket(tx *bbolt.Tx, owner string) (int, error) {
	b := ownerBucket(tx, owner)
	if b == nil {
		return 0, nil
	}
	count := 0
	if err := b.ForEach(func(_, _ []byte) error {
		count++
		return nil
	}); err != nil {
		return 0, err
	}
	root := tx.Bucket([]byte(bucketGames))
	if err := root.DeleteBucket([]byte(owner)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return 0, fmt.Errorf("delete owner bucket: %w", err)
	}
	return count, nil
}
