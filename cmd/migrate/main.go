package main

import (
	"context"
	"flag"
	"time"

	"storefront/internal/config"
	"storefront/internal/platform/logger"
	"storefront/internal/platform/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create, verify")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg := config.LoadMigrate()
	log := logger.Must("development", "info")
	defer func() { _ = log.Sync() }()

	if *command == "create" {
		if err := migrate.Run(nil, cfg.MigrationsDir, *command, *name); err != nil {
			log.Fatal("failed to create migration", zap.Error(err))
		}
		log.Info("migration created", zap.String("name", *name))
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.String("dsn", config.RedactDSN(cfg.DatabaseDSN)), zap.Error(err))
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if *command == "verify" {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := migrate.Verify(verifyCtx, db, migrate.Tables); err != nil {
			log.Fatal("schema check failed", zap.Error(err))
		}
		log.Info("schema is up to date")
		return
	}

	if err := migrate.Run(db, cfg.MigrationsDir, *command, *name); err != nil {
		log.Fatal("migration failed", zap.String("command", *command), zap.Error(err))
	}
	log.Info("migration command finished", zap.String("command", *command))
}
