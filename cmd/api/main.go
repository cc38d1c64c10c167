package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/card"
	"storefront/internal/config"
	"storefront/internal/httpx"
	"storefront/internal/platform/logger"
	"storefront/internal/platform/metrics"

	"go.uber.org/zap"
)

// @title Pioneer Cards Catalog API
// @version 1.0
// @description Read-only trading card catalog: paging, filtering and search.
// @BasePath /
func main() {
	config.LoadEnvFiles()
	cfg := config.LoadAPI()

	log := logger.Must(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	catalog := loadCatalog(cfg.CatalogCSV, log)
	metrics.SetCatalogCards(catalog.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpx.NewServer(cfg.Addr, newRouter(catalog, cfg, log))
	if err := httpx.ListenAndServe(ctx, srv, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

// loadCatalog serves whatever the CSV yields. Load errors are logged and the
// service starts anyway; /readyz stays 503 while the catalog is empty.
func loadCatalog(path string, log *zap.Logger) *card.Catalog {
	cards, err := card.LoadFile(path)
	switch {
	case err != nil && len(cards) == 0:
		log.Error("catalog not loaded, serving an empty catalog", zap.String("path", path), zap.Error(err))
	case err != nil:
		log.Warn("catalog partially loaded", zap.String("path", path), zap.Int("cards", len(cards)), zap.Error(err))
	default:
		log.Info("catalog loaded", zap.String("path", path), zap.Int("cards", len(cards)))
	}
	return card.NewCatalog(cards)
}

func newRouter(catalog *card.Catalog, cfg config.API, log *zap.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if catalog.Len() == 0 {
			http.Error(w, "catalog empty", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", metrics.Handler())

	card.NewHTTPHandler(catalog).Register(router)

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
