package bolt

import (
	"context"
	"time"

	"github.com/goodtune/gameshelf/internal/storage"
	"go.etcd.io/bbolt"
)

type userStore struct {
	db *bbolt.DB
}

func (s *userStore) Get(ctx context.Context, username string) (*storage.User, error) {
	return getBucketValue[storage.User](ctx, s.db, bucketUsers, username)
}

func (s *userStore) List(ctx context.Context) ([]storage.User, error) {
	return listBucket[storage.User](ctx, s.db, bucketUsers)
}

func (s *userStore) Upsert(ctx context.Context, user storage.User) error {
	return putBucketValue(ctx, s.db, bucketUsers, user.Username, user)
}

func (s *userStore) UpdateLastLogin(ctx context.Context, username string, loginTime time.Time) error {
	user, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	user.LastLogin = &loginTime
	user.UpdatedAt = loginTime
	return s.Upsert(ctx, *user)
}
