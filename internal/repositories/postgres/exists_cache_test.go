package postgres

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildwatch-edu/observation-service/internal/cache"
)

// unreachableDB opens a gorm handle whose queries fail because nothing
// listens at the address. Open itself succeeds with pings disabled, which
// lets these tests tell a cache hit from a store read: a store read errors.
func unreachableDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "host=127.0.0.1 port=1 user=nobody dbname=none sslmode=disable connect_timeout=1"
	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm handle: %v", err)
	}
	return db
}

func newExistsCache(t *testing.T) *cache.CacheManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewCacheManager(client)
}

func seedExists(t *testing.T, cm *cache.CacheManager, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if err := cm.Exists.Set(context.Background(), key, true, cache.ExistsCacheConfig.TTL); err != nil {
			t.Fatalf("seed cache key %q: %v", key, err)
		}
	}
}

func TestExistsServedFromCacheOutsideTransaction(t *testing.T) {
	ctx := context.Background()
	cm := newExistsCache(t)
	seedExists(t, cm, "teacher:7")

	repo := NewTeacherPostgreSQL(unreachableDB(t), cm)
	exists, err := repo.Exists(ctx, nil, 7)
	if err != nil {
		t.Fatalf("cached check reached the store: %v", err)
	}
	if !exists {
		t.Fatal("expected cached existence")
	}
}

// A repo built by WithTransaction must answer existence from the store
// even when the cache holds a stale positive, otherwise a teacher deleted
// after a missed invalidation could still gain children.
func TestExistsBypassesCacheWhenTransactionBound(t *testing.T) {
	ctx := context.Background()
	cm := newExistsCache(t)
	seedExists(t, cm, "teacher:7", "project:7")
	db := unreachableDB(t)

	if _, err := newTxTeacherPostgreSQL(db, cm).Exists(ctx, nil, 7); err == nil {
		t.Error("transaction-bound teacher check answered from cache")
	}
	if _, err := newTxProjectPostgreSQL(db, cm).Exists(ctx, nil, 7); err == nil {
		t.Error("transaction-bound project check answered from cache")
	}
}

func TestExistsBypassesCacheWithExplicitTx(t *testing.T) {
	ctx := context.Background()
	cm := newExistsCache(t)
	seedExists(t, cm, "teacher:7")
	db := unreachableDB(t)

	if _, err := NewTeacherPostgreSQL(db, cm).Exists(ctx, db, 7); err == nil {
		t.Error("explicit tx check answered from cache")
	}
}
