package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/d60-Lab/tg-mirror/internal/mirror"
	"github.com/d60-Lab/tg-mirror/internal/model"
)

const (
	PostCount   = 50000 // total posts in the synthetic mirror
	PageSize    = 500   // posts per shard file
	LookupCount = 2000  // random point lookups per scenario
)

type BenchResult struct {
	Name          string
	Duration      time.Duration
	TotalRequests int64
	OriginFetches int64
	AvgLatency    time.Duration
	P50Latency    time.Duration
	P95Latency    time.Duration
	P99Latency    time.Duration
	Latencies     []time.Duration
}

func main() {
	ctx := context.Background()

	fmt.Println("===== point lookup vs full scan =====")
	fmt.Printf("posts: %d, page size: %d, shards: %d\n", PostCount, PageSize, (PostCount+PageSize-1)/PageSize)
	fmt.Printf("lookups per scenario: %d\n\n", LookupCount)

	origin, fetches, shutdown := startOrigin()
	defer shutdown()

	fetcher, err := mirror.NewHTTPFetcher(origin, 10*time.Second, 100000, 1000)
	if err != nil {
		fmt.Println("fetcher init failed:", err)
		os.Exit(1)
	}
	cfg, err := fetcher.Config(ctx)
	if err != nil {
		fmt.Println("origin not responding:", err)
		os.Exit(1)
	}
	idx := mirror.ResolveIndex(cfg)
	if !idx.Enabled() {
		fmt.Println("shard index unavailable")
		os.Exit(1)
	}

	fmt.Println("===== binary-search point lookup =====")
	printBenchResult(benchLocate(ctx, fetcher, idx, fetches))

	fmt.Println("\n===== sequential full load per lookup =====")
	printBenchResult(benchFullScan(ctx, fetcher, idx, fetches))
}

func benchLocate(ctx context.Context, f mirror.Fetcher, idx mirror.ShardIndex, fetches *atomic.Int64) BenchResult {
	res := BenchResult{Name: "binary search"}
	fetches.Store(0)
	start := time.Now()
	for i := 0; i < LookupCount; i++ {
		id := int64(rand.Intn(PostCount) + 1)
		t0 := time.Now()
		out := mirror.Locate(ctx, f, idx, id)
		res.Latencies = append(res.Latencies, time.Since(t0))
		res.TotalRequests++
		if out.Outcome != mirror.LocateFound {
			fmt.Printf("unexpected outcome %v for id %d\n", out.Outcome, id)
		}
	}
	res.Duration = time.Since(start)
	res.OriginFetches = fetches.Load()
	computePercentiles(&res)
	return res
}

func benchFullScan(ctx context.Context, f mirror.Fetcher, idx mirror.ShardIndex, fetches *atomic.Int64) BenchResult {
	res := BenchResult{Name: "full scan"}
	fetches.Store(0)
	start := time.Now()
	// a handful of iterations is enough, each one fetches every shard
	iters := 20
	for i := 0; i < iters; i++ {
		t0 := time.Now()
		if _, err := mirror.LoadSequential(ctx, f, idx); err != nil {
			fmt.Println("sequential load failed:", err)
			break
		}
		res.Latencies = append(res.Latencies, time.Since(t0))
		res.TotalRequests++
	}
	res.Duration = time.Since(start)
	res.OriginFetches = fetches.Load()
	computePercentiles(&res)
	return res
}

func computePercentiles(res *BenchResult) {
	if len(res.Latencies) == 0 {
		return
	}
	sorted := make([]time.Duration, len(res.Latencies))
	copy(sorted, res.Latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	res.AvgLatency = total / time.Duration(len(sorted))
	res.P50Latency = sorted[len(sorted)*50/100]
	res.P95Latency = sorted[len(sorted)*95/100]
	res.P99Latency = sorted[min(len(sorted)*99/100, len(sorted)-1)]
}

func printBenchResult(res BenchResult) {
	fmt.Printf("%s: %d ops in %v\n", res.Name, res.TotalRequests, res.Duration.Round(time.Millisecond))
	fmt.Printf("  origin fetches: %d (%.2f per op)\n", res.OriginFetches, float64(res.OriginFetches)/float64(max(res.TotalRequests, 1)))
	fmt.Printf("  latency avg=%v p50=%v p95=%v p99=%v\n", res.AvgLatency, res.P50Latency, res.P95Latency, res.P99Latency)
}

// startOrigin serves a synthetic mirror over loopback and counts data fetches.
func startOrigin() (baseURL string, fetches *atomic.Int64, shutdown func()) {
	posts := make([]model.Post, PostCount)
	for i := range posts {
		posts[i] = model.Post{
			ID:   model.FlexID(PostCount - i), // descending, id 1..PostCount
			Date: time.Now().UTC().Format(time.RFC3339),
			Text: fmt.Sprintf("post %d", PostCount-i),
		}
	}
	pages := (PostCount + PageSize - 1) / PageSize

	counter := &atomic.Int64{}
	mux := http.NewServeMux()
	mux.HandleFunc("/data/config.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"page_size": PageSize, "pages_count": pages})
	})
	mux.HandleFunc("/data/meta.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, model.Meta{Channel: "bench", PostsCount: PostCount, LastSeenMessageID: PostCount})
	})
	mux.HandleFunc("/data/pages/", func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/data/pages/page-"), ".json")
		n, err := strconv.Atoi(name)
		if err != nil || n < 1 || n > pages {
			http.NotFound(w, r)
			return
		}
		start := (n - 1) * PageSize
		end := min(start+PageSize, PostCount)
		writeJSON(w, posts[start:end])
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Println("listen failed:", err)
		os.Exit(1)
	}
	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()
	return "http://" + ln.Addr().String() + "/", counter, func() { _ = srv.Close() }
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
