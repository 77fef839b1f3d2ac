package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache key not found")
)

// CacheHelper provides common caching operations for repositories. All
// operations degrade gracefully when no redis client is configured.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

// CacheConfig defines TTL and key prefix per data type.
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	TeacherCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "teacher:",
	}

	ProjectCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "project:",
	}

	ObservationCacheConfig = CacheConfig{
		TTL:    2 * time.Minute,
		Prefix: "observation:",
	}

	// Very short cache for ancestor existence checks.
	ExistsCacheConfig = CacheConfig{
		TTL:    2 * time.Minute,
		Prefix: "exists:",
	}
)

// CacheManager bundles the helpers for all key spaces.
type CacheManager struct {
	Teacher     *CacheHelper
	Project     *CacheHelper
	Observation *CacheHelper
	Exists      *CacheHelper

	client *redis.Client
}

func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		Teacher:     NewCacheHelper(client, TeacherCacheConfig.Prefix),
		Project:     NewCacheHelper(client, ProjectCacheConfig.Prefix),
		Observation: NewCacheHelper(client, ObservationCacheConfig.Prefix),
		Exists:      NewCacheHelper(client, ExistsCacheConfig.Prefix),
		client:      client,
	}
}

// HealthCheck pings the cache backend.
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return nil
	}
	return cm.client.Ping(ctx).Err()
}

func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves and unmarshals data from cache.
func (c *CacheHelper) Get(ctx context.Context, key string, dest any) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	cacheKey := c.GetCacheKey(key)
	data, err := c.client.Get(ctx, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}

	return nil
}

// Set marshals and stores data in cache.
func (c *CacheHelper) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return nil // graceful degradation when cache not available
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	cacheKey := c.GetCacheKey(key)
	return c.client.Set(ctx, cacheKey, data, ttl).Err()
}

// Delete removes keys, using a pipeline when there is more than one.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}

	if len(cacheKeys) > 1 {
		pipe := c.client.Pipeline()
		pipe.Del(ctx, cacheKeys...)
		_, err := pipe.Exec(ctx)
		return err
	}

	return c.client.Del(ctx, cacheKeys...).Err()
}

// Exists checks if a key exists in cache.
func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}

	count, err := c.client.Exists(ctx, c.GetCacheKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return count > 0, nil
}

// InvalidatePattern removes all keys matching a pattern using SCAN.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	fullPattern := c.GetCacheKey(pattern)
	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			slog.ErrorContext(ctx, "Cache scan pattern error",
				"error", err,
				"pattern", fullPattern)
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, scanKeys...)
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	return c.client.Del(ctx, keys...).Err()
}

// CacheOrExecute returns the cached value for key, or executes fn, caches
// its result and unmarshals it into dest.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest any, ttl time.Duration, fn func() (any, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		slog.ErrorContext(ctx, "Failed to populate cache", "error", err, "key", key)
	}

	// Copy through JSON so dest is filled the same way the cache path fills it.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return json.Unmarshal(data, dest)
}
