package data

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisShapeCache persists shape ids across separate gtfs-builder runs
// so the same calling-point sequence keeps its shapes.txt id rather
// than being renumbered every run.
type RedisShapeCache struct {
	rdb *redis.Client
	ctx context.Context
}

const shapeCacheKeyPrefix = "gtfs:shape:"

// NewRedisShapeCache constructs a RedisShapeCache bound to ctx for the
// lifetime of a single pipeline run.
func NewRedisShapeCache(ctx context.Context, rdb *redis.Client) *RedisShapeCache {
	return &RedisShapeCache{rdb: rdb, ctx: ctx}
}

// Get implements schedule.ShapeIDCache.
func (c *RedisShapeCache) Get(key string) (string, bool) {
	id, err := c.rdb.Get(c.ctx, shapeCacheKeyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

// Set implements schedule.ShapeIDCache.
func (c *RedisShapeCache) Set(key, id string) {
	c.rdb.Set(c.ctx, shapeCacheKeyPrefix+key, id, 0)
}

// RedisExclusionStore tracks live-cancellation exclusion dates per
// train key (cancellation-consumer writes them keyed on TRUST's train
// id). schedule-live-updater deletes a TUID's key after a live
// amendment; no pipeline stage reads the stored dates or applies them
// to a Calendar.
type RedisExclusionStore struct {
	rdb *redis.Client
}

// NewRedisExclusionStore constructs a RedisExclusionStore over rdb.
func NewRedisExclusionStore(rdb *redis.Client) *RedisExclusionStore {
	return &RedisExclusionStore{rdb: rdb}
}

const exclusionKeyPrefix = "gtfs:excl:"

// AddExcludeDay records that tuid does not run on date (formatted
// "2006-01-02"), with a two-week TTL: a live cancellation only ever
// concerns the near future, and this keeps the set from growing
// unbounded across a long-running deployment.
func (s *RedisExclusionStore) AddExcludeDay(ctx context.Context, tuid, date string) error {
	key := exclusionKeyPrefix + tuid
	if err := s.rdb.SAdd(ctx, key, date).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, 14*24*time.Hour).Err()
}

// ExcludedDays returns every date tuid has been live-excluded on.
func (s *RedisExclusionStore) ExcludedDays(ctx context.Context, tuid string) ([]string, error) {
	return s.rdb.SMembers(ctx, exclusionKeyPrefix+tuid).Result()
}
