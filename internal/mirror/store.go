package mirror

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/tg-mirror/internal/model"
)

// Origin 标记一个 Store 的数据来源
type Origin string

const (
	OriginShard    Origin = "shard"    // 点查命中的单个分片
	OriginPages    Origin = "pages"    // 顺序拉全部分片
	OriginFallback Origin = "fallback" // 单体兜底数据
	OriginArchive  Origin = "archive"  // 本地最后快照
	OriginEmpty    Origin = "empty"    // 所有来源都不可用
)

// Store 一次加载产出的只读帖子集合：有序序列 + id 索引。
// 构建后不再变更，换页/刷新时整体重建而不是原地更新。
type Store struct {
	id       uuid.UUID
	origin   Origin
	shard    int
	posts    []model.Post
	byKey    map[string]int
	loadedAt time.Time
}

// NewStore 构建 Store；shard 仅在 origin 为 OriginShard 时有意义
func NewStore(origin Origin, shard int, posts []model.Post) *Store {
	s := &Store{
		id:       uuid.New(),
		origin:   origin,
		shard:    shard,
		posts:    posts,
		byKey:    make(map[string]int, len(posts)),
		loadedAt: time.Now(),
	}
	for i, p := range posts {
		s.byKey[p.ID.String()] = i
	}
	return s
}

// NormalizeKey 把外部传入的 id（数字或字符串）归一成十进制字符串键。
// 非数字 token 原样返回（去掉空白），查不到即视为 not found。
func NormalizeKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return raw
}

func (s *Store) ID() uuid.UUID       { return s.id }
func (s *Store) Origin() Origin      { return s.origin }
func (s *Store) ShardNum() int       { return s.shard }
func (s *Store) Len() int            { return len(s.posts) }
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// Posts 返回有序序列（最新在前）；调用方不得修改
func (s *Store) Posts() []model.Post { return s.posts }

// Get 按归一化后的键查找
func (s *Store) Get(key string) (model.Post, bool) {
	i, ok := s.byKey[NormalizeKey(key)]
	if !ok {
		return model.Post{}, false
	}
	return s.posts[i], true
}

// IndexOf 返回键在序列中的位置，未命中返回 -1
func (s *Store) IndexOf(key string) int {
	i, ok := s.byKey[NormalizeKey(key)]
	if !ok {
		return -1
	}
	return i
}

// At 返回序列第 i 条；越界由调用方保证不会发生
func (s *Store) At(i int) model.Post { return s.posts[i] }
