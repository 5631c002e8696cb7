package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/tg-mirror/internal/api"
	"github.com/d60-Lab/tg-mirror/internal/api/handler"
	"github.com/d60-Lab/tg-mirror/internal/config"
	"github.com/d60-Lab/tg-mirror/internal/mirror"
	"github.com/d60-Lab/tg-mirror/internal/repository"
	"github.com/d60-Lab/tg-mirror/internal/service"
	"github.com/d60-Lab/tg-mirror/pkg/logger"
	"github.com/d60-Lab/tg-mirror/pkg/tracing"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}
	if cfg.Tracing.Endpoint != "" {
		shutdown, err := tracing.Init(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
		if err != nil {
			logger.Warn("tracing init failed", zap.Error(err))
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	httpFetcher, err := mirror.NewHTTPFetcher(cfg.Origin.BaseURL, cfg.Origin.Timeout, cfg.Origin.RatePerSec, cfg.Origin.Burst)
	if err != nil {
		logger.Error("bad origin config", zap.Error(err))
		return
	}

	var fetcher mirror.Fetcher = httpFetcher
	var purger service.Purger
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, shard cache disabled", zap.Error(err))
		} else {
			cached := mirror.NewCachedFetcher(httpFetcher, rdb, 24*time.Hour, time.Minute)
			fetcher, purger = cached, cached
		}
	}

	var archive repository.ArchiveRepository
	if cfg.Archive.Path != "" {
		archive, err = repository.NewArchiveRepository(cfg.Archive.Path)
		if err != nil {
			logger.Warn("archive disabled", zap.Error(err))
			archive = nil
		} else {
			defer archive.Close()
		}
	}

	svc := service.NewPostService(fetcher, archive, purger)
	stopRefresher := service.NewRefresher(svc, cfg.Refresh.Interval).Start()
	defer func() { _ = stopRefresher(context.Background()) }()

	router := api.NewRouter(handler.New(svc), cfg)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
