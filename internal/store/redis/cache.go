package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/videostream/internal/domain"
	"github.com/MrSnakeDoc/videostream/internal/logger"
)

// DefaultCacheTTL is used when NewCachedRepository gets a non-positive TTL.
const DefaultCacheTTL = 5 * time.Minute

// cacheGenTTL bounds how long an idle generation counter is kept. It only
// has to outlive one provider read.
const cacheGenTTL = time.Hour

// CachedRepository caches FindByID results of another repository in Redis.
//
// The wrapped repository stays the source of truth: cache failures are
// logged and never surface to callers. Save and DeleteByID drop the cached
// entry once the wrapped call succeeded and bump the video's generation.
// A fill only lands if the generation read before the provider lookup is
// still current, so a read that overlapped a write never caches stale data.
type CachedRepository struct {
	domain.Repository

	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedRepository wraps next. The caller keeps ownership of client.
func NewCachedRepository(next domain.Repository, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		Repository: next,
		client:     client,
		ttl:        ttl,
		logger:     log,
	}
}

func (r *CachedRepository) FindByID(ctx context.Context, id int64) (domain.Video, bool, error) {
	if v, ok := r.cached(ctx, id); ok {
		return v, true, nil
	}

	gen, genOK := r.generation(ctx, id)

	v, found, err := r.Repository.FindByID(ctx, id)
	if err != nil || !found {
		return v, found, err
	}

	if genOK {
		r.store(ctx, v, gen)
	}
	return v, true, nil
}

// Ping checks the wrapped repository. The cache is optional, so a Redis
// failure is logged and does not fail readiness.
func (r *CachedRepository) Ping(ctx context.Context) error {
	if err := r.Repository.Ping(ctx); err != nil {
		return err
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Warn("video cache unreachable", logger.Error(err))
	}
	return nil
}

func (r *CachedRepository) Save(ctx context.Context, v domain.Video) (domain.Video, error) {
	saved, err := r.Repository.Save(ctx, v)
	if err != nil {
		return saved, err
	}
	r.invalidate(ctx, saved.ID)
	return saved, nil
}

func (r *CachedRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.Repository.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedRepository) cached(ctx context.Context, id int64) (domain.Video, bool) {
	data, err := r.client.Get(ctx, CacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("video cache read failed",
				logger.Int64("video_id", id),
				logger.Error(err))
		}
		return domain.Video{}, false
	}

	var v domain.Video
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn("dropping undecodable cache entry",
			logger.Int64("video_id", id),
			logger.Error(err))
		r.invalidate(ctx, id)
		return domain.Video{}, false
	}
	return v, true
}

// generation returns the current invalidation count of a video.
func (r *CachedRepository) generation(ctx context.Context, id int64) (int64, bool) {
	gen, err := r.client.Get(ctx, CacheGenKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		r.logger.Warn("video cache generation read failed",
			logger.Int64("video_id", id),
			logger.Error(err))
		return 0, false
	}
	return gen, true
}

// store caches v unless the video was invalidated since gen was read.
func (r *CachedRepository) store(ctx context.Context, v domain.Video, gen int64) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}

	genKey := CacheGenKey(v.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, CacheKey(v.ID), payload, r.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		r.logger.Debug("skipped stale video cache fill", logger.Int64("video_id", v.ID))
	default:
		r.logger.Warn("video cache write failed",
			logger.Int64("video_id", v.ID),
			logger.Error(err))
	}
}

var errStaleFill = errors.New("video changed since lookup")

func (r *CachedRepository) invalidate(ctx context.Context, id int64) {
	genKey := CacheGenKey(id)
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, cacheGenTTL)
		pipe.Del(ctx, CacheKey(id))
		return nil
	}); err != nil {
		r.logger.Warn("video cache invalidation failed",
			logger.Int64("video_id", id),
			logger.Error(err))
	}
}

var _ domain.Repository = (*CachedRepository)(nil)
