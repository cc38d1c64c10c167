package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cleanup"
	"storefront/internal/config"
	"storefront/internal/confirmation"
	"storefront/internal/httpx"
	"storefront/internal/platform/logger"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/queue"
	"storefront/internal/platform/storeapi"
	"storefront/internal/platform/upstream"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title Storefront Messaging API
// @version 1.0
// @description Order confirmation requests.
// @BasePath /
func main() {
	config.LoadEnvFiles()
	cfg := config.LoadMessaging()

	log := logger.Must(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := mustOpenQueue(ctx, cfg.RedisAddr, log)
	store := storeapi.NewClient(cfg.StoreServiceURL, upstream.Options{MaxRetries: 2})

	producer := confirmation.NewProducer(q, cfg.OrderQueue)
	consumer := confirmation.NewConsumer(q, cfg.OrderQueue, store, cfg.ReceiveWait, log)

	job := cleanup.NewJob(store, cfg.CleanupWorkers, log)
	scheduler, err := cleanup.NewScheduler(job, cfg.CleanupSchedule, log)
	if err != nil {
		log.Fatal("invalid cleanup schedule", zap.Error(err))
	}
	scheduler.Start()
	log.Info("cart cleanup scheduled", zap.String("schedule", cfg.CleanupSchedule), zap.Int("workers", cfg.CleanupWorkers))

	srv := httpx.NewServer(cfg.Addr, newRouter(producer, cfg, log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error { return httpx.ListenAndServe(gctx, srv, log) })
	if err := g.Wait(); err != nil {
		log.Error("messaging service stopped with error", zap.Error(err))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(stopCtx)
}

func newRouter(producer *confirmation.Producer, cfg config.Messaging, log *zap.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("GET /metrics", metrics.Handler())

	confirmation.NewHTTPHandler(producer, log).Register(router)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.RecoveryMiddleware(log),
		metrics.InstrumentHandler,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
	)
}

// mustOpenQueue connects to Redis, or falls back to an in-process queue when
// no address is configured.
func mustOpenQueue(ctx context.Context, addr string, log *zap.Logger) queue.Queue {
	if addr == "" {
		log.Warn("REDIS_ADDR not set, using in-memory queue")
		return queue.NewMemoryQueue()
	}
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	client, err := queue.DialRedis(dialCtx, addr)
	if err != nil {
		log.Fatal("cannot connect to redis", zap.String("addr", addr), zap.Error(err))
	}
	log.Info("redis connection OK", zap.String("addr", addr))
	return queue.NewRedisQueue(client)
}
