package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tg-mirror/internal/model"
)

func setupCache(t *testing.T, inner Fetcher) (*CachedFetcher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCachedFetcher(inner, rdb, time.Hour, time.Minute), mr
}

func TestCachedFetcher_ShardReadThrough(t *testing.T) {
	inner := &fakeFetcher{shards: sampleShards()}
	cached, _ := setupCache(t, inner)
	ctx := context.Background()

	first, err := cached.Shard(ctx, 2)
	require.NoError(t, err)
	second, err := cached.Shard(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// 第二次命中缓存，不回源
	assert.Equal(t, []int{2}, inner.shardCalls)
}

func TestCachedFetcher_GenerationSeparatesKeys(t *testing.T) {
	inner := &fakeFetcher{shards: sampleShards()}
	cached, _ := setupCache(t, inner)
	ctx := context.Background()

	cached.SetGeneration(1)
	_, err := cached.Shard(ctx, 1)
	require.NoError(t, err)

	// 新代次不会命中旧代次的缓存
	cached.SetGeneration(2)
	_, err = cached.Shard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, inner.shardCalls)
}

func TestCachedFetcher_RedisDownFallsThrough(t *testing.T) {
	inner := &fakeFetcher{shards: sampleShards(), meta: model.Meta{Channel: "c"}}
	cached, mr := setupCache(t, inner)
	mr.Close()
	ctx := context.Background()

	posts, err := cached.Shard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	meta, err := cached.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", meta.Channel)
}

func TestCachedFetcher_ConfigAndMetaCached(t *testing.T) {
	inner := &fakeFetcher{
		cfg:  map[string]any{"page_size": float64(500), "pages_count": float64(3)},
		meta: model.Meta{Channel: "chan", PostsCount: 6},
	}
	cached, _ := setupCache(t, inner)
	ctx := context.Background()

	cfg, err := cached.Config(ctx)
	require.NoError(t, err)
	cfg2, err := cached.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResolveIndex(cfg), ResolveIndex(cfg2))

	meta, err := cached.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chan", meta.Channel)
}

func TestCachedFetcher_PurgeDropsEverything(t *testing.T) {
	inner := &fakeFetcher{shards: sampleShards()}
	cached, _ := setupCache(t, inner)
	ctx := context.Background()

	_, err := cached.Shard(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, cached.Purge(ctx))

	_, err = cached.Shard(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, inner.shardCalls)
}

func TestCachedFetcher_AllBypassesCache(t *testing.T) {
	inner := &fakeFetcher{all: mkPosts(1, 2, 3)}
	cached, _ := setupCache(t, inner)
	ctx := context.Background()

	posts, err := cached.All(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}
