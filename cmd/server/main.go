package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"journey/internal/audit"
	kafkastore "journey/internal/audit/store/kafka"
	memorystore "journey/internal/audit/store/memory"
	postgresstore "journey/internal/audit/store/postgres"
	jwttoken "journey/internal/jwt_token"
	"journey/internal/platform/config"
	"journey/internal/platform/httpserver"
	"journey/internal/platform/logger"
	"journey/internal/platform/metrics"
	platformredis "journey/internal/platform/redis"
	"journey/internal/ratelimit"
	httptransport "journey/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)
	m := metrics.New()
	auditMetrics := audit.NewMetrics()

	store, cleanup, err := newAuditStore(ctx, cfg.Audit)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	defer cleanup()

	auditSvc := audit.NewService(cfg.Audit.BufferSize, log, auditMetrics)
	breaker := audit.NewCircuitBreaker(5, time.Minute)
	worker := audit.NewWorker(auditSvc.Buffer(), store, breaker, auditMetrics, log,
		cfg.Audit.FlushInterval, cfg.Audit.BatchSize)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL, cfg.RefreshGrace)

	limiter, redisClient, err := newLimiter(cfg, log)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:  log,
		Metrics: m,
		Tokens:  tokens,
		Audit:   auditSvc,
		Limiter: limiter,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting journey",
		"addr", cfg.Addr,
		"audit_backend", cfg.Audit.Backend,
		"rate_limit_enabled", limiter != nil,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// newAuditStore builds the persistence backend for security events. The
// returned cleanup releases backend connections and is safe to call once.
func newAuditStore(ctx context.Context, cfg config.Audit) (audit.Store, func(), error) {
	switch cfg.Backend {
	case "postgres":
		db, err := postgresstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgresstore.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil

	case "kafka":
		store, err := kafkastore.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureTopic(ctx, 3, 1); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil

	case "memory", "":
		return memorystore.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// newLimiter picks the window store. Redis keeps counters shared across
// replicas; without it each instance counts on its own.
func newLimiter(cfg config.Server, log *slog.Logger) (*ratelimit.Limiter, *platformredis.Client, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil, nil
	}

	var store ratelimit.WindowStore = ratelimit.NewInMemoryWindowStore()
	var redisClient *platformredis.Client
	if cfg.Redis.URL != "" {
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client != nil {
			store = ratelimit.NewRedisWindowStore(client)
			redisClient = client
			log.Info("rate limiting backed by redis")
		}
	}

	limiter := ratelimit.NewLimiter(store, cfg.RateLimit.Window, cfg.RateLimit.PerWindow, cfg.RateLimit.AuthPerWindow)
	return limiter, redisClient, nil
}
