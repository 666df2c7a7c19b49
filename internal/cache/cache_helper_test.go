package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestCache(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, CourseCacheConfig.Prefix), mr
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	t.Run("miss returns ErrCacheNotFound", func(t *testing.T) {
		var out cachedCourse
		if err := helper.Get(ctx, "missing", &out); err != ErrCacheNotFound {
			t.Errorf("Expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("roundtrip", func(t *testing.T) {
		in := cachedCourse{ID: 7, Title: "Intro to Go"}
		if err := helper.Set(ctx, "7", in, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var out cachedCourse
		if err := helper.Get(ctx, "7", &out); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if out != in {
			t.Errorf("Expected %+v, got %+v", in, out)
		}
	})

	t.Run("keys carry the prefix", func(t *testing.T) {
		if got := helper.GetCacheKey("7"); got != "course:7" {
			t.Errorf("Expected course:7, got %q", got)
		}
	})
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := helper.Set(ctx, key, cachedCourse{Title: key}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var out cachedCourse
	if err := helper.Get(ctx, "a", &out); err != ErrCacheNotFound {
		t.Errorf("Expected a to be deleted, got %v", err)
	}
	if err := helper.Get(ctx, "c", &out); err != nil {
		t.Errorf("Expected c to survive, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	t.Run("fetches on miss", func(t *testing.T) {
		calls := 0
		var out cachedCourse
		err := helper.CacheOrExecute(ctx, "fresh", &out, time.Minute, func() (interface{}, error) {
			calls++
			return cachedCourse{ID: 1, Title: "Fetched"}, nil
		})
		if err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 fetch, got %d", calls)
		}
		if out.Title != "Fetched" {
			t.Errorf("Expected fetched value, got %+v", out)
		}
	})

	t.Run("serves from cache without fetching", func(t *testing.T) {
		if err := helper.Set(ctx, "warm", cachedCourse{ID: 2, Title: "Cached"}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var out cachedCourse
		err := helper.CacheOrExecute(ctx, "warm", &out, time.Minute, func() (interface{}, error) {
			t.Fatal("Fetch must not run on a cache hit")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("CacheOrExecute failed: %v", err)
		}
		if out.Title != "Cached" {
			t.Errorf("Expected cached value, got %+v", out)
		}
	})
}

// A nil client must degrade gracefully, not panic.
func TestCacheHelper_NoClient(t *testing.T) {
	helper := NewCacheHelper(nil, "")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}

	var out string
	if err := helper.Get(ctx, "k", &out); err != ErrCacheNotAvailable {
		t.Errorf("Expected ErrCacheNotAvailable, got %v", err)
	}

	calls := 0
	err := helper.CacheOrExecute(ctx, "k", &out, time.Minute, func() (interface{}, error) {
		calls++
		return "fetched", nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if calls != 1 || out != "fetched" {
		t.Errorf("Expected fallthrough to fetch, calls=%d out=%q", calls, out)
	}
}
