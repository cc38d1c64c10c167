package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/order"
	"storefront/internal/platform/logger"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// @title Storefront Store API
// @version 1.0
// @description Carts, cart items and orders.
// @BasePath /
func main() {
	config.LoadEnvFiles()
	cfg := config.LoadStoreDB()

	log := logger.Must(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	dbPool := mustOpenDB(cfg.DatabaseDSN, log)
	defer dbPool.Close()

	db := stdlib.OpenDBFromPool(dbPool)
	verifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := migrate.Verify(verifyCtx, db, migrate.Tables); err != nil {
		log.Warn("database schema incomplete, run cmd/migrate", zap.Error(err))
	}
	cancel()
	_ = db.Close()

	cartService := cart.NewService(cart.NewPostgresRepo(dbPool, cfg.DBTimeout))
	orderService := order.NewService(order.NewPostgresRepo(dbPool, cfg.DBTimeout), cartService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpx.NewServer(cfg.Addr, newRouter(cartService, orderService, dbPool, cfg, log))
	if err := httpx.ListenAndServe(ctx, srv, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func newRouter(carts *cart.Service, orders *order.Service, db pinger, cfg config.StoreDB, log *zap.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", metrics.Handler())

	cart.NewHTTPHandler(carts, log).Register(router)
	order.NewHTTPHandler(orders, log).Register(router)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.RecoveryMiddleware(log),
		metrics.InstrumentHandler,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		httpx.RequestSizeLimitMiddleware(1<<20),
	)
}

func mustOpenDB(dsn string, log *zap.Logger) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal("cannot create db pool", zap.Error(err))
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatal("cannot ping database", zap.String("dsn", config.RedactDSN(dsn)), zap.Error(err))
	}
	log.Info("database connection OK")
	return pool
}
