package redis

import (
	"context"
	"os"
	"testing"
	"time"
)

// Runs only against a real server: TEST_REDIS_ADDR=localhost:6379.
func TestLeaderboardCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, Options{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewLeaderboardCache(rdb, time.Minute, nil)
	c.key = "leaderboard:test:" + t.Name()
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, c.key+":*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
	})

	_, gen, ok, err := c.GetPage(ctx, 10)
	if err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := c.PutPage(ctx, gen, 10, []byte(`[{"rank":1}]`)); err != nil {
		t.Fatalf("PutPage: %v", err)
	}
	raw, _, ok, err := c.GetPage(ctx, 10)
	if err != nil || !ok || string(raw) != `[{"rank":1}]` {
		t.Fatalf("GetPage: ok=%v err=%v raw=%s", ok, err, raw)
	}
	ttl, err := rdb.TTL(ctx, c.pageKey(gen)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl: got=%v err=%v", ttl, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, _, ok, _ := c.GetPage(ctx, 10); ok {
		t.Fatalf("page survived Clear")
	}
}

func TestLeaderboardCacheDropsPageFromClearedGeneration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, Options{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewLeaderboardCache(rdb, time.Minute, nil)
	c.key = "leaderboard:test:" + t.Name()
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, c.key+":*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
	})

	// A reader misses, a writer clears, then the reader stores what it computed.
	_, gen, ok, err := c.GetPage(ctx, 10)
	if err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := c.PutPage(ctx, gen, 10, []byte(`[{"rank":1,"total_xp":10}]`)); err != nil {
		t.Fatalf("PutPage: %v", err)
	}
	_, next, ok, err := c.GetPage(ctx, 10)
	if err != nil || ok {
		t.Fatalf("stale page served: ok=%v err=%v", ok, err)
	}
	if next != gen+1 {
		t.Fatalf("generation: want=%d got=%d", gen+1, next)
	}
}

func TestNewClientRequiresAddr(t *testing.T) {
	if _, err := NewClient(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
