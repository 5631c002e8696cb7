package mirror

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/tg-mirror/internal/model"
	"github.com/d60-Lab/tg-mirror/pkg/logger"
)

// LocateOutcome 点查结果的三种出口；Aborted 是正常路径，调用方转兜底
type LocateOutcome int

const (
	LocateFound LocateOutcome = iota + 1
	LocateNotFound
	LocateAborted
)

// LocateResult 点查结果；Found 时带命中分片号与其全部帖子
type LocateResult struct {
	Outcome LocateOutcome
	Shard   int
	Posts   []model.Post
	Fetches int
}

// Locate 在 [1, idx.Count] 上二分查找包含 id 的分片。
// 相邻分片满足 min(shard_k) > max(shard_{k+1})，分片内按 id 降序，
// 所以探测一个分片的首尾两条就能决定方向。
// 任何一次拉取失败或分片损坏立即放弃整个点查（不重试、不保留部分结果）。
func Locate(ctx context.Context, f Fetcher, idx ShardIndex, id int64) LocateResult {
	low, high := 1, idx.Count
	fetches := 0
	for low <= high {
		mid := (low + high) / 2
		posts, err := f.Shard(ctx, mid)
		fetches++
		if err != nil {
			logger.Debug("locate aborted", zap.Int("shard", mid), zap.Error(err))
			return LocateResult{Outcome: LocateAborted, Fetches: fetches}
		}
		if len(posts) == 0 {
			return LocateResult{Outcome: LocateAborted, Fetches: fetches}
		}
		first := posts[0].ID.Int64()
		last := posts[len(posts)-1].ID.Int64()
		if first == 0 || last == 0 {
			// 边界 id 为 0 说明索引与数据不一致
			return LocateResult{Outcome: LocateAborted, Fetches: fetches}
		}
		switch {
		case id <= first && id >= last:
			return LocateResult{Outcome: LocateFound, Shard: mid, Posts: posts, Fetches: fetches}
		case id > first:
			high = mid - 1
		default:
			low = mid + 1
		}
	}
	return LocateResult{Outcome: LocateNotFound, Fetches: fetches}
}
