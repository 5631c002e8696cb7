package mirror

import (
	"context"
	"fmt"

	"github.com/d60-Lab/tg-mirror/internal/model"
)

// fakeFetcher 可编排的测试替身：按分片返回固定数据或注入错误
type fakeFetcher struct {
	cfg     map[string]any
	cfgErr  error
	meta    model.Meta
	metaErr error

	shards   map[int][]model.Post
	shardErr map[int]error
	all      []model.Post
	allErr   error

	shardCalls []int
	gen        int64
}

func (f *fakeFetcher) Config(ctx context.Context) (map[string]any, error) {
	if f.cfgErr != nil {
		return nil, f.cfgErr
	}
	return f.cfg, nil
}

func (f *fakeFetcher) Meta(ctx context.Context) (model.Meta, error) {
	if f.metaErr != nil {
		return model.Meta{}, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeFetcher) Shard(ctx context.Context, n int) ([]model.Post, error) {
	f.shardCalls = append(f.shardCalls, n)
	if err, ok := f.shardErr[n]; ok {
		return nil, fmt.Errorf("%w: shard %d: %v", ErrShardFetch, n, err)
	}
	posts, ok := f.shards[n]
	if !ok {
		return nil, fmt.Errorf("%w: shard %d: missing", ErrShardFetch, n)
	}
	return posts, nil
}

func (f *fakeFetcher) All(ctx context.Context) ([]model.Post, error) {
	if f.allErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrFallbackUnavailable, f.allErr)
	}
	return f.all, nil
}

func (f *fakeFetcher) SetGeneration(gen int64) { f.gen = gen }

func mkPosts(ids ...int64) []model.Post {
	out := make([]model.Post, len(ids))
	for i, id := range ids {
		out[i] = model.Post{ID: model.FlexID(id), Text: fmt.Sprintf("post %d", id)}
	}
	return out
}

// sampleShards 三个分片，id 降序：[[10,9],[8,7],[6,5]]
func sampleShards() map[int][]model.Post {
	return map[int][]model.Post{
		1: mkPosts(10, 9),
		2: mkPosts(8, 7),
		3: mkPosts(6, 5),
	}
}
