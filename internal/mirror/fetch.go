package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/tg-mirror/internal/model"
	"github.com/d60-Lab/tg-mirror/pkg/logger"
)

// 发布端产物的固定路径
const (
	configPath = "data/config.json"
	metaPath   = "data/meta.json"
	postsPath  = "data/posts.json"
	pagePathF  = "data/pages/page-%d.json"
)

// Fetcher 镜像产物拉取接口
type Fetcher interface {
	// Config 返回站点配置原始 JSON 对象
	Config(ctx context.Context) (map[string]any, error)

	// Meta 返回频道元数据
	Meta(ctx context.Context) (model.Meta, error)

	// Shard 返回第 n 个分片（帖子按 id 降序）
	Shard(ctx context.Context, n int) ([]model.Post, error)

	// All 返回单体全量数据，保持存储顺序（id 升序）
	All(ctx context.Context) ([]model.Post, error)
}

// HTTPFetcher 从静态站点源拉取产物
type HTTPFetcher struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPFetcher(baseURL string, timeout time.Duration, perSec float64, burst int) (*HTTPFetcher, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if perSec <= 0 {
		perSec = 20
	}
	if burst <= 0 {
		burst = 10
	}
	return &HTTPFetcher{
		base:    u,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}, nil
}

func (f *HTTPFetcher) getJSON(ctx context.Context, path string, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return err
	}
	target := f.base.ResolveReference(ref).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// 读掉 body 以复用连接
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: status %d", target, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (f *HTTPFetcher) Config(ctx context.Context) (map[string]any, error) {
	var cfg map[string]any
	if err := f.getJSON(ctx, configPath, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *HTTPFetcher) Meta(ctx context.Context) (model.Meta, error) {
	var meta model.Meta
	if err := f.getJSON(ctx, metaPath, &meta); err != nil {
		return model.Meta{}, err
	}
	return meta, nil
}

func (f *HTTPFetcher) Shard(ctx context.Context, n int) ([]model.Post, error) {
	var posts []model.Post
	if err := f.getJSON(ctx, fmt.Sprintf(pagePathF, n), &posts); err != nil {
		logger.Debug("shard fetch failed", zap.Int("shard", n), zap.Error(err))
		if isDecodeError(err) {
			return nil, fmt.Errorf("%w: shard %d: %v", ErrShardMalformed, n, err)
		}
		return nil, fmt.Errorf("%w: shard %d: %v", ErrShardFetch, n, err)
	}
	return posts, nil
}

func (f *HTTPFetcher) All(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	if err := f.getJSON(ctx, postsPath, &posts); err != nil {
		logger.Warn("fallback fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFallbackUnavailable, err)
	}
	return posts, nil
}

// isDecodeError 区分“拿到了响应但不是期望形状”与网络层失败
func isDecodeError(err error) bool {
	switch err.(type) {
	case *json.SyntaxError, *json.UnmarshalTypeError:
		return true
	}
	return false
}
