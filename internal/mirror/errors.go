package mirror

import "errors"

// Shard 级错误都在本层就地降级，不向调用方抛异常路径
var (
	// ErrShardFetch 分片拉取失败（网络、状态码、超时）
	ErrShardFetch = errors.New("shard fetch failed")
	// ErrShardMalformed 分片内容损坏（空、非数组、边界 id 为 0）
	ErrShardMalformed = errors.New("shard malformed")
	// ErrFallbackUnavailable 兜底全量数据不可用
	ErrFallbackUnavailable = errors.New("fallback dataset unavailable")
	// ErrNotFound 点查未命中
	ErrNotFound = errors.New("post not found")
)
