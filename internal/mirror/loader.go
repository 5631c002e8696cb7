package mirror

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/d60-Lab/tg-mirror/internal/model"
	"github.com/d60-Lab/tg-mirror/pkg/logger"
)

// LoadSequential 按 1..Count 顺序拉取全部分片并拼接。
// 严格串行：早失败可以少浪费请求，也保证不会出现部分结果。
// 任一分片失败返回错误并丢弃已拉取的内容，由调用方转兜底。
// 成功时结果天然是 id 降序（分片 1 最新），无需重排。
func LoadSequential(ctx context.Context, f Fetcher, idx ShardIndex) ([]model.Post, error) {
	out := make([]model.Post, 0, idx.Size*idx.Count)
	for n := 1; n <= idx.Count; n++ {
		posts, err := f.Shard(ctx, n)
		if err != nil {
			logger.Warn("sequential load aborted", zap.Int("shard", n), zap.Error(err))
			return nil, err
		}
		out = append(out, posts...)
	}
	return out, nil
}

// LoadFallback 拉取单体全量数据。存储顺序是 id 升序（便于发布端追加），
// 对外统一成 id 降序，让下游不感知数据来自分片还是兜底。
func LoadFallback(ctx context.Context, f Fetcher) ([]model.Post, error) {
	posts, err := f.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ID.Int64() > posts[j].ID.Int64()
	})
	return posts, nil
}
