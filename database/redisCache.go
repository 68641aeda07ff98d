package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"golang-physiobackend/models"
)

// The Redis key for the cached exercise catalog
const exerciseCatalogKey = "cache:exercise_catalog"

func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisExerciseCache stores the whole catalog as one JSON document. Cache
// failures are logged and treated as misses so the catalog is still served
// from the primary store.
type RedisExerciseCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisExerciseCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisExerciseCache {
	return &RedisExerciseCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *RedisExerciseCache) Get(ctx context.Context) ([]models.Exercise, bool) {
	data, err := c.rdb.Get(ctx, exerciseCatalogKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("exercise cache read failed", zap.Error(err))
		return nil, false
	}

	var exercises []models.Exercise
	if err := json.Unmarshal(data, &exercises); err != nil {
		c.log.Warn("exercise cache entry is corrupt", zap.Error(err))
		return nil, false
	}
	return exercises, true
}

func (c *RedisExerciseCache) Set(ctx context.Context, exercises []models.Exercise) {
	data, err := json.Marshal(exercises)
	if err != nil {
		c.log.Warn("exercise cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, exerciseCatalogKey, data, c.ttl).Err(); err != nil {
		c.log.Warn("exercise cache write failed", zap.Error(err))
	}
}

func (c *RedisExerciseCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, exerciseCatalogKey).Err(); err != nil {
		c.log.Warn("exercise cache invalidation failed", zap.Error(err))
	}
}

func (c *RedisExerciseCache) Close() error {
	return c.rdb.Close()
}
