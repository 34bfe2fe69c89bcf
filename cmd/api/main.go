// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api runs the sample film-rental API on the restkit core.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to Redis (session store).
//  4. Optionally connect to PostgreSQL and run migrations.
//  5. Declare the sample endpoints on the registry.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/restkit/internal/api"
	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/config"
	"github.com/taibuivan/restkit/internal/platform/constants"
	"github.com/taibuivan/restkit/internal/platform/migration"
	pgstore "github.com/taibuivan/restkit/internal/platform/postgres"
	redisstore "github.com/taibuivan/restkit/internal/platform/redis"
	"github.com/taibuivan/restkit/internal/rest"
	"github.com/taibuivan/restkit/internal/sakila"
	"github.com/taibuivan/restkit/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Redis (session store) ──────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	sessions := session.NewManager(
		session.NewRedisStore(rdb, constants.RedisPrefixSession),
		[]byte(cfg.SessionSecret),
	)

	// ── 4. Sample Application ─────────────────────────────────────────────
	app := sakila.New(sessions)
	health := api.HealthDependencies{
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}

	// Without a database the catalogue runs on the seeded in-memory models.
	if cfg.DatabaseURL != "" {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing postgres pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		app.Actors = model.NewPostgresModel(pool, "actor", "actor", "actor_id",
			[]string{"actor_id", "first_name", "last_name"})
		app.Films = model.NewPostgresModel(pool, "film", "film", "film_id",
			[]string{"film_id", "title", "slug", "description", "release_year"})
		app.Staff = model.NewPostgresModel(pool, "staff", "staff", "staff_id",
			[]string{"staff_id", "username", "email", "_password"})
		health.CheckDatabase = func() error {
			return pgstore.Ping(context.Background(), pool)
		}
	}

	// ── 5. Endpoint Registry ──────────────────────────────────────────────
	registry := rest.NewRegistry(sessions)
	app.Mount(registry)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, registry, health)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
