package service

import (
	"context"
	"time"
)

// Refresher 周期性重建列表 Store 的后台 worker
type Refresher struct {
	svc       *PostService
	interval  time.Duration
	metricsCh chan time.Duration
}

func NewRefresher(svc *PostService, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{svc: svc, interval: interval, metricsCh: make(chan time.Duration, 1024)}
}

// Start 启动刷新循环（启动即刷一次）；返回停止函数。
func (r *Refresher) Start() func(context.Context) error {
	stopCh := make(chan struct{})
	go func() {
		r.runOnce()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				r.runOnce()
			}
		}
	}()
	return func(ctx context.Context) error { close(stopCh); return nil }
}

func (r *Refresher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	start := time.Now()
	r.svc.Refresh(ctx)
	select {
	case r.metricsCh <- time.Since(start):
	default:
	}
}

// Metrics 返回每轮刷新耗时的只读通道
func (r *Refresher) Metrics() <-chan time.Duration { return r.metricsCh }
