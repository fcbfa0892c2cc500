// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/recipe-box/internal/config"
	"github.com/yourusername/recipe-box/internal/jobs"
	"github.com/yourusername/recipe-box/internal/logger"
	"github.com/yourusername/recipe-box/internal/metrics"
	"github.com/yourusername/recipe-box/internal/storage"
	"github.com/yourusername/recipe-box/internal/users"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 設定の読み込み（JWT_SECRET がなければここで終了）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := storage.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	userStore := users.NewStore(rdb)

	// ログイン記録のワーカー
	manager, err := jobs.NewManager(cfg.QueueRedisURL, userStore, zlog.Named("jobs"))
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	m, err := metrics.New()
	if err != nil {
		return err
	}

	router, err := newRouter(routerDeps{
		cfg:       cfg,
		logger:    zlog,
		rdb:       rdb,
		userStore: userStore,
		metrics:   m,
		recorder:  manager,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("starting API server", zap.String("addr", srv.Addr), zap.String("mode", cfg.GinMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return manager.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
