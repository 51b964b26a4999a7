package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

const (
	defaultLeaderboardKey = "leaderboard:top"
	defaultLeaderboardTTL = 30 * time.Second
)

// LeaderboardCache keeps encoded leaderboard pages in one hash per generation.
// Fields are the page limit; each hash expires after TTL. Clear bumps the
// generation counter, so a page computed before the bump lands in a hash no
// reader will look at again.
type LeaderboardCache struct {
	rdb *goredis.Client
	key string
	ttl time.Duration
	log *logger.Logger
}

func NewLeaderboardCache(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *LeaderboardCache {
	if ttl <= 0 {
		ttl = defaultLeaderboardTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardCache{
		rdb: rdb,
		key: defaultLeaderboardKey,
		ttl: ttl,
		log: log.With("service", "RedisLeaderboardCache"),
	}
}

func (c *LeaderboardCache) genKey() string { return c.key + ":gen" }

func (c *LeaderboardCache) pageKey(gen int64) string {
	return c.key + ":" + strconv.FormatInt(gen, 10)
}

func (c *LeaderboardCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *LeaderboardCache) GetPage(ctx context.Context, limit int) ([]byte, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.rdb.HGet(ctx, c.pageKey(gen), strconv.Itoa(limit)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	return raw, gen, true, nil
}

func (c *LeaderboardCache) PutPage(ctx context.Context, gen int64, limit int, page []byte) error {
	key := c.pageKey(gen)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(limit), page)
	// The TTL starts at the first write of a generation.
	pipe.ExpireNX(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *LeaderboardCache) Clear(ctx context.Context) error {
	gen, err := c.rdb.Incr(ctx, c.genKey()).Result()
	if err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, c.pageKey(gen-1)).Err(); err != nil {
		c.log.Debug("stale leaderboard generation left to expire", "generation", gen-1, "error", err)
	}
	return nil
}
