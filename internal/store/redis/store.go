// Package redis stores videos in Redis and provides a Redis read-through
// cache for the other repositories.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/videostream/internal/domain"
)

// Store is a domain.Repository backed by Redis.
//
// Each video lives under VideoKey as JSON. KeyVideosByCreated indexes ids
// by creation time so listing never has to SCAN the keyspace.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a Redis store. The store owns client and closes it in Close.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

func (s *Store) FindAll(ctx context.Context) ([]domain.Video, error) {
	ids, err := s.client.ZRevRange(ctx, KeyVideosByCreated, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list video ids: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Video{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = KeyPrefixVideo + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}

	videos := make([]domain.Video, 0, len(values))
	for i, raw := range values {
		// Index entry without a record: deleted between the two calls.
		data, ok := raw.(string)
		if !ok {
			continue
		}

		var v domain.Video
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal video %s: %w", keys[i], err)
		}
		videos = append(videos, v)
	}

	// The sorted set is scored in milliseconds; sub-millisecond order and
	// id tie-breaks are settled here.
	domain.SortNewestFirst(videos)
	return videos, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (domain.Video, bool, error) {
	data, err := s.client.Get(ctx, VideoKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Video{}, false, nil
		}
		return domain.Video{}, false, fmt.Errorf("failed to get video %d: %w", id, err)
	}

	var v domain.Video
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.Video{}, false, fmt.Errorf("failed to unmarshal video %d: %w", id, err)
	}
	return v, true, nil
}

func (s *Store) FindByTitleContaining(ctx context.Context, query string) ([]domain.Video, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Video, 0)
	for _, v := range all {
		if domain.TitleContains(v.Title, query) {
			matches = append(matches, v)
		}
	}
	return matches, nil
}

func (s *Store) Save(ctx context.Context, v domain.Video) (domain.Video, error) {
	if !v.IsNew() {
		saved, found, err := s.overwrite(ctx, v)
		if err != nil {
			return domain.Video{}, err
		}
		if found {
			return saved, nil
		}
	}
	return s.create(ctx, v)
}

// maxOverwriteAttempts bounds the WATCH retries of a contended overwrite.
const maxOverwriteAttempts = 5

// overwrite replaces an existing record, keeping its CreatedAt. found is
// false when no record carries v.ID. A concurrent write to the same record
// aborts the transaction, which is then retried on fresh data.
func (s *Store) overwrite(ctx context.Context, v domain.Video) (domain.Video, bool, error) {
	var err error
	for attempt := 0; attempt < maxOverwriteAttempts; attempt++ {
		var (
			saved domain.Video
			found bool
		)
		saved, found, err = s.overwriteOnce(ctx, v)
		if err == nil {
			return saved, found, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	return domain.Video{}, false, fmt.Errorf("failed to overwrite video %d: %w", v.ID, err)
}

func (s *Store) overwriteOnce(ctx context.Context, v domain.Video) (domain.Video, bool, error) {
	key := VideoKey(v.ID)
	found := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var existing domain.Video
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("failed to unmarshal video %d: %w", v.ID, err)
		}
		v.CreatedAt = existing.CreatedAt

		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal video %d: %w", v.ID, err)
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		}); err != nil {
			return err
		}

		found = true
		return nil
	}, key)
	if err != nil {
		return domain.Video{}, false, err
	}

	return v, found, nil
}

func (s *Store) create(ctx context.Context, v domain.Video) (domain.Video, error) {
	id, err := s.client.Incr(ctx, KeyVideoSeq).Result()
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to allocate video id: %w", err)
	}

	v.ID = id
	v.CreatedAt = s.now().UTC()

	payload, err := json.Marshal(v)
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to marshal video %d: %w", id, err)
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, VideoKey(id), payload, 0)
		pipe.ZAdd(ctx, KeyVideosByCreated, redis.Z{
			Score:  float64(v.CreatedAt.UnixMilli()),
			Member: id,
		})
		return nil
	}); err != nil {
		return domain.Video{}, fmt.Errorf("failed to save video %d: %w", id, err)
	}

	return v, nil
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, VideoKey(id))
		pipe.ZRem(ctx, KeyVideosByCreated, id)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to delete video %d: %w", id, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

var _ domain.Repository = (*Store)(nil)
