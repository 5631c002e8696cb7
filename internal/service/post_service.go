package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/tg-mirror/internal/mirror"
	"github.com/d60-Lab/tg-mirror/internal/model"
	"github.com/d60-Lab/tg-mirror/internal/repository"
	"github.com/d60-Lab/tg-mirror/pkg/logger"
)

// Purger 可清缓存的拉取器（CachedFetcher 实现）
type Purger interface {
	Purge(ctx context.Context) error
}

type generationSetter interface {
	SetGeneration(gen int64)
}

// PostService 读路径编排：分片点查、全量列表、兜底与快照降级。
// 同一时刻只持有一个列表 Store；刷新整体换新，请求只读不改。
type PostService struct {
	fetcher mirror.Fetcher
	archive repository.ArchiveRepository // 可为 nil
	purger  Purger                       // 可为 nil

	mu      sync.Mutex
	current *mirror.Store
	notice  string
	latest  uuid.UUID
}

func NewPostService(fetcher mirror.Fetcher, archive repository.ArchiveRepository, purger Purger) *PostService {
	return &PostService{fetcher: fetcher, archive: archive, purger: purger}
}

// Refresh 重建列表 Store。加载路径：分片顺序拉取 → 单体兜底 → 本地快照 → 空。
// 每次刷新持有自己的令牌，装载时令牌已过期（有更晚的刷新发起）就丢弃结果，
// 慢的陈旧加载永远覆盖不了更新的 Store。
func (s *PostService) Refresh(ctx context.Context) (*mirror.Store, string) {
	token := uuid.New()
	s.mu.Lock()
	s.latest = token
	s.mu.Unlock()

	cfg, meta, metaOK := s.fetchConfigMeta(ctx)
	if metaOK {
		if gs, ok := s.fetcher.(generationSetter); ok {
			gs.SetGeneration(meta.Generation())
		}
	}
	idx := mirror.ResolveIndex(cfg)

	var posts []model.Post
	var origin mirror.Origin
	var notice string

	if idx.Enabled() {
		if loaded, err := mirror.LoadSequential(ctx, s.fetcher, idx); err == nil {
			posts, origin = loaded, mirror.OriginPages
		}
	}
	if origin == "" {
		loaded, err := mirror.LoadFallback(ctx, s.fetcher)
		if err == nil {
			posts, origin = loaded, mirror.OriginFallback
		} else if s.archive != nil {
			if snap, aerr := s.archive.LoadAll(ctx); aerr == nil && len(snap) > 0 {
				posts, origin = snap, mirror.OriginArchive
				notice = "origin unavailable; serving last known snapshot"
			}
		}
	}
	if origin == "" {
		origin = mirror.OriginEmpty
		notice = "mirror data is currently unavailable"
	}
	if s.archive != nil && (origin == mirror.OriginPages || origin == mirror.OriginFallback) {
		if err := s.archive.Replace(ctx, posts); err != nil {
			logger.Warn("archive refresh failed", zap.Error(err))
		}
	}

	store := mirror.NewStore(origin, 0, posts)
	s.mu.Lock()
	if s.latest == token {
		s.current, s.notice = store, notice
	}
	cur, note := s.current, s.notice
	s.mu.Unlock()
	logger.Info("listing refreshed",
		zap.String("origin", string(origin)),
		zap.Int("posts", store.Len()),
		zap.Bool("installed", cur == store),
	)
	return cur, note
}

// Listing 返回当前列表 Store，没有就先刷新一次
func (s *PostService) Listing(ctx context.Context) (*mirror.Store, string) {
	s.mu.Lock()
	cur, note := s.current, s.notice
	s.mu.Unlock()
	if cur != nil {
		return cur, note
	}
	return s.Refresh(ctx)
}

// List 列表 + 可选子串过滤
func (s *PostService) List(ctx context.Context, query string) ([]mirror.Match, string) {
	store, notice := s.Listing(ctx)
	return mirror.FilterMatches(store.Posts(), query), notice
}

// Get 按 id 点查。分片索引可用且 id 是数字时走二分定位，
// 定位被中止（网络/数据问题）时转当前列表兜底；
// 定位明确未命中是终态，直接 not found。
func (s *PostService) Get(ctx context.Context, rawID string) (model.Post, mirror.Neighbors, bool) {
	key := mirror.NormalizeKey(rawID)
	id, numErr := strconv.ParseInt(key, 10, 64)

	cfg, meta, metaOK := s.fetchConfigMeta(ctx)
	if metaOK {
		if gs, ok := s.fetcher.(generationSetter); ok {
			gs.SetGeneration(meta.Generation())
		}
	}
	idx := mirror.ResolveIndex(cfg)

	if idx.Enabled() && numErr == nil {
		res := mirror.Locate(ctx, s.fetcher, idx, id)
		switch res.Outcome {
		case mirror.LocateFound:
			store := mirror.NewStore(mirror.OriginShard, res.Shard, res.Posts)
			post, ok := store.Get(key)
			if !ok {
				return model.Post{}, mirror.Neighbors{}, false
			}
			return post, mirror.ResolveNeighbors(ctx, s.fetcher, idx, store, key), true
		case mirror.LocateNotFound:
			return model.Post{}, mirror.Neighbors{}, false
		}
		// LocateAborted: 转列表兜底
	}

	store, _ := s.Listing(ctx)
	post, ok := store.Get(key)
	if !ok {
		return model.Post{}, mirror.Neighbors{}, false
	}
	return post, mirror.ResolveNeighbors(ctx, s.fetcher, idx, store, key), true
}

// Meta 频道元数据
func (s *PostService) Meta(ctx context.Context) (model.Meta, error) {
	return s.fetcher.Meta(ctx)
}

// ForceRefresh 管理端触发：清缓存后立即重建列表
func (s *PostService) ForceRefresh(ctx context.Context) (*mirror.Store, string, error) {
	if s.purger != nil {
		if err := s.purger.Purge(ctx); err != nil {
			return nil, "", err
		}
	}
	store, notice := s.Refresh(ctx)
	return store, notice, nil
}

// fetchConfigMeta 并发发起 config 与 meta 两个小请求，互不依赖。
// 任一失败都不致命：config 失败走兜底，meta 失败只影响缓存代次。
func (s *PostService) fetchConfigMeta(ctx context.Context) (map[string]any, model.Meta, bool) {
	var (
		wg     sync.WaitGroup
		cfg    map[string]any
		meta   model.Meta
		metaOK bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		c, err := s.fetcher.Config(ctx)
		if err != nil {
			logger.Debug("config fetch failed", zap.Error(err))
			return
		}
		cfg = c
	}()
	go func() {
		defer wg.Done()
		m, err := s.fetcher.Meta(ctx)
		if err != nil {
			logger.Debug("meta fetch failed", zap.Error(err))
			return
		}
		meta, metaOK = m, true
	}()
	wg.Wait()
	return cfg, meta, metaOK
}
