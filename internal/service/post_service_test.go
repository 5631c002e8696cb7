package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tg-mirror/internal/mirror"
	"github.com/d60-Lab/tg-mirror/internal/model"
)

// stubFetcher 服务层测试替身；allGate 可让第一次 All 调用阻塞
type stubFetcher struct {
	mu sync.Mutex

	cfg      map[string]any
	cfgErr   error
	meta     model.Meta
	metaErr  error
	shards   map[int][]model.Post
	shardErr map[int]error
	all      []model.Post
	allErr   error

	allCalls   int
	allGate    chan struct{}
	allEntered chan struct{}
}

func (f *stubFetcher) Config(ctx context.Context) (map[string]any, error) {
	if f.cfgErr != nil {
		return nil, f.cfgErr
	}
	return f.cfg, nil
}

func (f *stubFetcher) Meta(ctx context.Context) (model.Meta, error) {
	if f.metaErr != nil {
		return model.Meta{}, f.metaErr
	}
	return f.meta, nil
}

func (f *stubFetcher) Shard(ctx context.Context, n int) ([]model.Post, error) {
	if err, ok := f.shardErr[n]; ok {
		return nil, fmt.Errorf("%w: shard %d: %v", mirror.ErrShardFetch, n, err)
	}
	posts, ok := f.shards[n]
	if !ok {
		return nil, fmt.Errorf("%w: shard %d: missing", mirror.ErrShardFetch, n)
	}
	return posts, nil
}

func (f *stubFetcher) All(ctx context.Context) ([]model.Post, error) {
	f.mu.Lock()
	first := f.allCalls == 0
	f.allCalls++
	f.mu.Unlock()
	if first && f.allGate != nil {
		close(f.allEntered)
		<-f.allGate
	}
	if f.allErr != nil {
		return nil, fmt.Errorf("%w: %v", mirror.ErrFallbackUnavailable, f.allErr)
	}
	return f.all, nil
}

// fakeArchive 记录 Replace 的内存快照
type fakeArchive struct {
	mu       sync.Mutex
	snapshot []model.Post
	replaces int
}

func (a *fakeArchive) Replace(ctx context.Context, posts []model.Post) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot = append([]model.Post(nil), posts...)
	a.replaces++
	return nil
}

func (a *fakeArchive) LoadAll(ctx context.Context) ([]model.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Post(nil), a.snapshot...), nil
}

func (a *fakeArchive) Count(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.snapshot)), nil
}

func (a *fakeArchive) Close() error { return nil }

func mkPosts(ids ...int64) []model.Post {
	out := make([]model.Post, len(ids))
	for i, id := range ids {
		out[i] = model.Post{ID: model.FlexID(id), Text: fmt.Sprintf("post %d", id)}
	}
	return out
}

func shardedFetcher() *stubFetcher {
	return &stubFetcher{
		cfg:  map[string]any{"page_size": float64(2), "pages_count": float64(3)},
		meta: model.Meta{Channel: "chan", PostsCount: 6, LastSeenMessageID: 10},
		shards: map[int][]model.Post{
			1: mkPosts(10, 9),
			2: mkPosts(8, 7),
			3: mkPosts(6, 5),
		},
		all: mkPosts(5, 6, 7, 8, 9, 10),
	}
}

func TestRefresh_PrefersShardedListing(t *testing.T) {
	svc := NewPostService(shardedFetcher(), nil, nil)

	store, notice := svc.Refresh(context.Background())

	assert.Equal(t, mirror.OriginPages, store.Origin())
	assert.Empty(t, notice)
	assert.Equal(t, 6, store.Len())
	assert.Equal(t, int64(10), store.At(0).ID.Int64())
}

func TestRefresh_ShardFailureFallsBackWholesale(t *testing.T) {
	f := shardedFetcher()
	f.shardErr = map[int]error{2: errors.New("boom")}
	svc := NewPostService(f, nil, nil)

	store, _ := svc.Refresh(context.Background())

	// 绝不提供部分分片结果：要么全量分片，要么兜底
	assert.Equal(t, mirror.OriginFallback, store.Origin())
	assert.Equal(t, 6, store.Len())
	assert.Equal(t, int64(10), store.At(0).ID.Int64())
}

func TestRefresh_ShardingDisabledUsesFallback(t *testing.T) {
	f := shardedFetcher()
	f.cfg = nil
	svc := NewPostService(f, nil, nil)

	store, _ := svc.Refresh(context.Background())
	assert.Equal(t, mirror.OriginFallback, store.Origin())
}

func TestRefresh_ArchiveServesWhenOriginDead(t *testing.T) {
	f := shardedFetcher()
	f.shardErr = map[int]error{1: errors.New("down")}
	f.allErr = errors.New("down")
	archive := &fakeArchive{snapshot: mkPosts(4, 3)}
	svc := NewPostService(f, archive, nil)

	store, notice := svc.Refresh(context.Background())

	assert.Equal(t, mirror.OriginArchive, store.Origin())
	assert.Equal(t, 2, store.Len())
	assert.NotEmpty(t, notice)
}

func TestRefresh_EmptyWhenEverythingDead(t *testing.T) {
	f := shardedFetcher()
	f.shardErr = map[int]error{1: errors.New("down")}
	f.allErr = errors.New("down")
	svc := NewPostService(f, nil, nil)

	store, notice := svc.Refresh(context.Background())

	assert.Equal(t, mirror.OriginEmpty, store.Origin())
	assert.Zero(t, store.Len())
	assert.NotEmpty(t, notice)
}

func TestRefresh_SuccessfulLoadUpdatesArchive(t *testing.T) {
	archive := &fakeArchive{}
	svc := NewPostService(shardedFetcher(), archive, nil)

	svc.Refresh(context.Background())

	assert.Equal(t, 1, archive.replaces)
	n, _ := archive.Count(context.Background())
	assert.Equal(t, int64(6), n)
}

func TestRefresh_StaleLoadNeverOverwritesNewerStore(t *testing.T) {
	f := shardedFetcher()
	f.cfg = nil // 走兜底路径，第一次 All 会被 gate 卡住
	f.allGate = make(chan struct{})
	f.allEntered = make(chan struct{})
	svc := NewPostService(f, nil, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var slowStore *mirror.Store
	go func() {
		defer wg.Done()
		slowStore, _ = svc.Refresh(context.Background())
	}()

	<-f.allEntered
	// 慢加载还挂着，后发起的刷新先完成
	fastStore, _ := svc.Refresh(context.Background())
	close(f.allGate)
	wg.Wait()

	// 慢加载返回的是当前（更新的）Store，而不是它自己构建的那个
	assert.Equal(t, fastStore.ID(), slowStore.ID())
	cur, _ := svc.Listing(context.Background())
	assert.Equal(t, fastStore.ID(), cur.ID())
}

func TestGet_PointLookupThroughShards(t *testing.T) {
	svc := NewPostService(shardedFetcher(), nil, nil)

	post, nb, ok := svc.Get(context.Background(), "7")

	require.True(t, ok)
	assert.Equal(t, int64(7), post.ID.Int64())
	require.NotNil(t, nb.Newer)
	assert.Equal(t, int64(8), nb.Newer.ID.Int64())
	require.NotNil(t, nb.Older)
	// 跨分片远端行为：older 来自分片 3 的最旧一条
	assert.Equal(t, int64(5), nb.Older.ID.Int64())
}

func TestGet_NumericStringTokens(t *testing.T) {
	svc := NewPostService(shardedFetcher(), nil, nil)

	for _, tok := range []string{"7", " 7", "07"} {
		post, _, ok := svc.Get(context.Background(), tok)
		require.Truef(t, ok, "token %q", tok)
		assert.Equal(t, int64(7), post.ID.Int64())
	}
}

func TestGet_AbsentIDIsNotFound(t *testing.T) {
	svc := NewPostService(shardedFetcher(), nil, nil)

	_, _, ok := svc.Get(context.Background(), "100")
	assert.False(t, ok)
}

func TestGet_LocateAbortRecoversViaListing(t *testing.T) {
	f := shardedFetcher()
	f.shardErr = map[int]error{2: errors.New("boom")}
	svc := NewPostService(f, nil, nil)

	post, nb, ok := svc.Get(context.Background(), "7")

	require.True(t, ok)
	assert.Equal(t, int64(7), post.ID.Int64())
	// 兜底列表是全量的，邻居就是严格相邻的两条
	require.NotNil(t, nb.Newer)
	assert.Equal(t, int64(8), nb.Newer.ID.Int64())
	require.NotNil(t, nb.Older)
	assert.Equal(t, int64(6), nb.Older.ID.Int64())
}

func TestList_FilterAndNotice(t *testing.T) {
	f := shardedFetcher()
	f.shards[2] = []model.Post{
		{ID: 8, Text: "Foo bar"},
		{ID: 7, Text: "baz"},
	}
	svc := NewPostService(f, nil, nil)

	matches, notice := svc.List(context.Background(), "foo")

	assert.Empty(t, notice)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(8), matches[0].Post.ID.Int64())
	require.Len(t, matches[0].Spans, 1)
	assert.Equal(t, mirror.Span{Start: 0, End: 3}, matches[0].Spans[0])
}

func TestForceRefresh_PurgesThenReloads(t *testing.T) {
	purged := 0
	svc := NewPostService(shardedFetcher(), nil, purgeFunc(func(ctx context.Context) error {
		purged++
		return nil
	}))

	store, _, err := svc.ForceRefresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Equal(t, mirror.OriginPages, store.Origin())
}

type purgeFunc func(ctx context.Context) error

func (f purgeFunc) Purge(ctx context.Context) error { return f(ctx) }

func TestRefresher_RunsOnStart(t *testing.T) {
	svc := NewPostService(shardedFetcher(), nil, nil)
	r := NewRefresher(svc, time.Hour)

	stop := r.Start()
	defer func() { _ = stop(context.Background()) }()

	select {
	case d := <-r.Metrics():
		assert.Greater(t, d, time.Duration(0))
	case <-time.After(5 * time.Second):
		t.Fatal("refresher did not run")
	}
	store, _ := svc.Listing(context.Background())
	assert.Equal(t, mirror.OriginPages, store.Origin())
}
