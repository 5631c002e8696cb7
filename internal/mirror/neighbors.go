package mirror

import (
	"context"

	"github.com/d60-Lab/tg-mirror/internal/model"
)

// Neighbors 相邻帖子；nil 表示该方向没有可导航的帖子
type Neighbors struct {
	Newer *model.Post
	Older *model.Post
}

// ResolveNeighbors 在当前 Store 的序列里取前后两条。
// 当 Store 只装了单个分片且目标在分片边上时，额外拉一次相邻分片：
// 取相邻分片的远端一条（更新侧取其最新、更旧侧取其最旧），
// 不保证跨边界严格相邻——这是线上一直以来的行为，改动前需先确认产品预期。
// 相邻分片拉取失败只是禁用该方向的导航，不触发兜底。
func ResolveNeighbors(ctx context.Context, f Fetcher, idx ShardIndex, s *Store, key string) Neighbors {
	i := s.IndexOf(key)
	if i < 0 {
		return Neighbors{}
	}
	var nb Neighbors
	if i > 0 {
		p := s.At(i - 1)
		nb.Newer = &p
	}
	if i < s.Len()-1 {
		p := s.At(i + 1)
		nb.Older = &p
	}
	if s.Origin() != OriginShard || !idx.Enabled() {
		return nb
	}
	if nb.Newer == nil && s.ShardNum() > 1 {
		if posts, err := f.Shard(ctx, s.ShardNum()-1); err == nil && len(posts) > 0 {
			p := posts[0]
			nb.Newer = &p
		}
	}
	if nb.Older == nil && s.ShardNum() < idx.Count {
		if posts, err := f.Shard(ctx, s.ShardNum()+1); err == nil && len(posts) > 0 {
			p := posts[len(posts)-1]
			nb.Older = &p
		}
	}
	return nb
}
