package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/authbase/internal/auth"
	"github.com/geocoder89/authbase/internal/config"
	"github.com/geocoder89/authbase/internal/db"
	httpx "github.com/geocoder89/authbase/internal/http"
	"github.com/geocoder89/authbase/internal/http/handlers"
	"github.com/geocoder89/authbase/internal/observability"
	"github.com/geocoder89/authbase/internal/ratelimit"
	"github.com/geocoder89/authbase/internal/redisclient"
	"github.com/geocoder89/authbase/internal/repo/memory"
	"github.com/geocoder89/authbase/internal/repo/postgres"
	"github.com/geocoder89/authbase/internal/security"
	"github.com/joho/godotenv"
)

// userStore is what the service, the admin seed and /ready need from a store.
type userStore interface {
	auth.UserStore
	db.AdminStore
	handlers.Pinger
}

func main() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Version:     handlers.Version,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	prom := observability.NewProm()
	hasher := security.NewHasher(security.DefaultCost)

	ttl, err := auth.ParseTTL(cfg.JWTExpire)
	if err != nil {
		return fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	tokens := auth.NewManager(cfg.JWTSecret, ttl)

	checks := map[string]handlers.Pinger{}

	var store userStore

	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory user store, data is lost on restart")
		store = memory.NewUsersRepo()
	case "postgres":
		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if cfg.DBAutoMigrate {
			if err := db.Migrate(cfg.DBURL); err != nil {
				return err
			}
			log.Info("migrations applied")
		}

		store = postgres.NewUsersRepo(pool, prom)
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	checks["database"] = store

	created, err := db.EnsureAdminUser(ctx, store, hasher, cfg)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	var limiter ratelimit.Limiter = ratelimit.Noop{}

	switch {
	case cfg.AuthRateLimitPerMin <= 0:
		log.Info("auth rate limiting disabled")
	case cfg.RedisAddr != "":
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()

		checks["redis"] = rc
		limiter = ratelimit.NewRedis(rc.Raw(), cfg.AuthRateLimitPerMin, time.Minute)
	default:
		limiter = ratelimit.NewMemory(cfg.AuthRateLimitPerMin, time.Minute)
	}

	var draining atomic.Bool

	router := httpx.NewRouter(cfg, log, httpx.Deps{
		Auth:     auth.NewService(store, tokens, hasher),
		Verifier: tokens,
		Limiter:  limiter,
		Prom:     prom,
		Checks:   checks,
		Draining: draining.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"docs", fmt.Sprintf("http://localhost:%d/api-docs", cfg.Port),
			"health", fmt.Sprintf("http://localhost:%d%s/health", cfg.Port, cfg.APIPrefix),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}

	log.Info("server shutting down")

	if err := drainAndShutdown(srv, &draining, cfg.ShutdownDrainDelay, 10*time.Second, stop, log); err != nil {
		return err
	}

	log.Info("shutdown complete")
	return nil
}
