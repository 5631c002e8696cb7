package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/tg-mirror/internal/model"
	"github.com/d60-Lab/tg-mirror/pkg/logger"
)

// CachedFetcher 是 Fetcher 的 redis 读穿透装饰器。
// 分片在一个同步代次内不可变，key 里带代次号就可以放心长 TTL；
// config/meta 会随同步变化，只做短缓存。
// 缓存读写失败一律静默回源，缓存永远不是正确性的一部分。
type CachedFetcher struct {
	inner    Fetcher
	cache    *redis.Client
	shardTTL time.Duration
	metaTTL  time.Duration
	gen      atomic.Int64
}

func NewCachedFetcher(inner Fetcher, cache *redis.Client, shardTTL, metaTTL time.Duration) *CachedFetcher {
	if shardTTL <= 0 {
		shardTTL = 24 * time.Hour
	}
	if metaTTL <= 0 {
		metaTTL = time.Minute
	}
	return &CachedFetcher{inner: inner, cache: cache, shardTTL: shardTTL, metaTTL: metaTTL}
}

// SetGeneration 更新同步代次；旧代次的分片 key 自然过期
func (c *CachedFetcher) SetGeneration(gen int64) { c.gen.Store(gen) }

func (c *CachedFetcher) shardKey(n int) string {
	return fmt.Sprintf("mirror:shard:%d:%d", c.gen.Load(), n)
}

func (c *CachedFetcher) Config(ctx context.Context) (map[string]any, error) {
	var cfg map[string]any
	if c.getCached(ctx, "mirror:config", &cfg) {
		return cfg, nil
	}
	cfg, err := c.inner.Config(ctx)
	if err != nil {
		return nil, err
	}
	c.setCached(ctx, "mirror:config", cfg, c.metaTTL)
	return cfg, nil
}

func (c *CachedFetcher) Meta(ctx context.Context) (model.Meta, error) {
	var meta model.Meta
	if c.getCached(ctx, "mirror:meta", &meta) {
		return meta, nil
	}
	meta, err := c.inner.Meta(ctx)
	if err != nil {
		return model.Meta{}, err
	}
	c.setCached(ctx, "mirror:meta", meta, c.metaTTL)
	return meta, nil
}

func (c *CachedFetcher) Shard(ctx context.Context, n int) ([]model.Post, error) {
	key := c.shardKey(n)
	var posts []model.Post
	if c.getCached(ctx, key, &posts) {
		return posts, nil
	}
	posts, err := c.inner.Shard(ctx, n)
	if err != nil {
		return nil, err
	}
	c.setCached(ctx, key, posts, c.shardTTL)
	return posts, nil
}

func (c *CachedFetcher) All(ctx context.Context) ([]model.Post, error) {
	// 全量文件体积大且每次同步都会变，不进缓存
	return c.inner.All(ctx)
}

// Purge 清掉本服务写入的全部缓存键
func (c *CachedFetcher) Purge(ctx context.Context) error {
	iter := c.cache.Scan(ctx, 0, "mirror:*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.cache.Del(ctx, keys...).Err()
}

func (c *CachedFetcher) getCached(ctx context.Context, key string, out any) bool {
	data, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Debug("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedFetcher) setCached(ctx context.Context, key string, v any, ttl time.Duration) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, payload, ttl).Err(); err != nil {
		logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
