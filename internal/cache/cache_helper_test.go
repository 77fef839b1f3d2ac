package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheHelper(client, "test:"), mr
}

func TestCacheHelperGetSet(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name   string `json:"name"`
		Number int    `json:"number"`
	}

	if err := helper.Set(ctx, "id:1", payload{Name: "Bird Count", Number: 3}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Bird Count" || got.Number != 3 {
		t.Errorf("got %+v", got)
	}

	if err := helper.Get(ctx, "id:2", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("missing key err = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelperInvalidatePattern(t *testing.T) {
	helper, mr := newTestCache(t)
	ctx := context.Background()

	_ = helper.Set(ctx, "project:1:page:a", "x", time.Minute)
	_ = helper.Set(ctx, "project:1:page:b", "y", time.Minute)
	_ = helper.Set(ctx, "project:2:page:a", "z", time.Minute)

	if err := helper.InvalidatePattern(ctx, "project:1:*"); err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}

	if mr.Exists("test:project:1:page:a") || mr.Exists("test:project:1:page:b") {
		t.Error("pattern keys survived invalidation")
	}
	if !mr.Exists("test:project:2:page:a") {
		t.Error("unrelated key was invalidated")
	}
}

func TestCacheOrExecute(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func() (any, error) {
		calls++
		return map[string]string{"name": "Ms. Rivera"}, nil
	}

	var dest map[string]string
	if err := helper.CacheOrExecute(ctx, "id:7", &dest, time.Minute, loader); err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if err := helper.CacheOrExecute(ctx, "id:7", &dest, time.Minute, loader); err != nil {
		t.Fatalf("CacheOrExecute (cached): %v", err)
	}

	if calls != 1 {
		t.Errorf("loader ran %d times, want 1", calls)
	}
	if dest["name"] != "Ms. Rivera" {
		t.Errorf("dest = %v", dest)
	}
}

func TestCacheHelperNilClient(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set with nil client: %v", err)
	}
	var dest string
	if err := helper.Get(ctx, "k", &dest); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get with nil client err = %v", err)
	}
}
