package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/platform/catalogapi"
	"storefront/internal/platform/logger"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/upstream"
	"storefront/internal/web"

	"go.uber.org/zap"
)

const blacklistSweepInterval = 10 * time.Minute

func main() {
	config.LoadEnvFiles()

	bootLog := logger.Must("development", "info")
	cfg, err := config.LoadWeb()
	if err != nil {
		bootLog.Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.Must(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	users, err := web.NewUserStore(cfg.Users)
	if err != nil {
		log.Fatal("cannot load web users", zap.Error(err))
	}
	blacklist := web.NewBlacklist()
	auth := web.NewAuthService(cfg.JWTSecret, cfg.SessionTTL, users, blacklist)

	loginLimiter := httpx.NewRateLimitMiddleware(cfg.LoginRPS, cfg.LoginBurst)
	defer loginLimiter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepBlacklist(ctx, blacklist, blacklistSweepInterval, log)

	deps := web.Deps{
		Auth:         auth,
		Blacklist:    blacklist,
		Catalog:      catalogapi.NewClient(cfg.CatalogServiceURL, upstream.Options{MaxRetries: 2}),
		Secret:       cfg.JWTSecret,
		SecureCookie: cfg.EnableHSTS,
		LoginLimiter: loginLimiter,
		Logger:       log,
	}

	srv := httpx.NewServer(cfg.Addr, newRouter(deps, cfg))
	if err := httpx.ListenAndServe(ctx, srv, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func newRouter(deps web.Deps, cfg config.Web) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("GET /metrics", metrics.Handler())
	router.Handle("/", web.NewRouter(deps))

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(deps.Logger),
		httpx.RecoveryMiddleware(deps.Logger),
		metrics.InstrumentHandler,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.RequestSizeLimitMiddleware(1<<20),
	)
}

// sweepBlacklist drops revoked tokens whose session would have expired anyway.
func sweepBlacklist(ctx context.Context, b *web.Blacklist, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := b.CleanupExpired(); n > 0 {
				log.Debug("expired revoked tokens removed", zap.Int("count", n))
			}
		}
	}
}
