package mirror

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ShardIndex 分片索引；Size/Count 任一非正即视为分片不可用
type ShardIndex struct {
	Size  int
	Count int
}

func (i ShardIndex) Enabled() bool { return i.Size > 0 && i.Count > 0 }

// 发布端历史上用过的字段名，按顺序取第一个命中的
var (
	sizeKeys  = []string{"page_size", "json_page_size", "shard_size"}
	countKeys = []string{"pages_count", "json_pages_count", "total_pages", "shard_count"}
)

// ResolveIndex 从站点配置解析分片索引。
// 配置缺失、字段非数值、非正数都不是错误，只是禁用分片路径。
func ResolveIndex(cfg map[string]any) ShardIndex {
	if cfg == nil {
		return ShardIndex{}
	}
	size := firstPositive(cfg, sizeKeys)
	count := firstPositive(cfg, countKeys)
	if size <= 0 || count <= 0 {
		return ShardIndex{}
	}
	return ShardIndex{Size: size, Count: count}
}

func firstPositive(cfg map[string]any, keys []string) int {
	for _, k := range keys {
		v, ok := cfg[k]
		if !ok {
			continue
		}
		if n := coerceInt(v); n > 0 {
			return n
		}
	}
	return 0
}

func coerceInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return 0
}
