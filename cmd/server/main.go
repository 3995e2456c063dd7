package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "shareledger/internal/jwt_token"
	"shareledger/internal/platform/config"
	"shareledger/internal/platform/httpserver"
	"shareledger/internal/platform/logger"
	"shareledger/internal/platform/metrics"
	"shareledger/internal/platform/middleware"
	"shareledger/internal/platform/redis"
	"shareledger/internal/registry/cache"
	"shareledger/internal/registry/handler"
	registrymetrics "shareledger/internal/registry/metrics"
	"shareledger/internal/registry/service"
	"shareledger/internal/registry/store"
	"shareledger/internal/registry/store/bolt"
	"shareledger/internal/registry/store/memory"
	"shareledger/internal/registry/store/postgres"
	"shareledger/pkg/domain"
	"shareledger/pkg/platform/audit"
	"shareledger/pkg/platform/audit/publisher"
	"shareledger/pkg/platform/audit/store/kafka"
	auditmemory "shareledger/pkg/platform/audit/store/memory"
)

const (
	jwtAudience     = "shareledger-api"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("shareledger stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deployer, err := domain.ParseIdentity(cfg.Deployer)
	if err != nil {
		return fmt.Errorf("SHARELEDGER_DEPLOYER: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	registryMetrics := registrymetrics.New(reg)

	registryStore, checks, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	auditStore, closeAudit, err := openAuditSink(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	if pinger, ok := auditStore.(interface{ Ping(context.Context) error }); ok {
		checks["audit"] = pinger.Ping
	}

	pubOpts := []publisher.Option{publisher.WithLogger(log)}
	if cfg.Audit.AsyncBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer))
	}
	auditPublisher := publisher.NewPublisher(auditStore, pubOpts...)
	// Registered after closeAudit so the buffer drains before the sink closes.
	defer auditPublisher.Close()

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(registryMetrics),
		service.WithAuditPublisher(auditPublisher),
	}
	if reader, ok := auditStore.(service.AuditReader); ok {
		svcOpts = append(svcOpts, service.WithAuditReader(reader))
	}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
		svcOpts = append(svcOpts, service.WithShareCache(cache.NewShareCache(redisClient.Client, cache.WithTTL(cfg.Redis.CacheTTL))))
		log.Info("share cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	registry := service.New(registryStore, svcOpts...)
	if err := registry.Deploy(ctx, deployer); err != nil {
		return fmt.Errorf("deploy registry: %w", err)
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, jwtAudience)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Latency(httpMetrics))
	router.Use(middleware.Timeout(requestTimeout))
	router.Get("/healthz", httpserver.Health(2*time.Second, checks))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(registry, log, jwttoken.NewJWTServiceAdapter(jwtService)).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting shareledger", "addr", cfg.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openStore builds the configured registry store and its health checks.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.TxStore, map[string]httpserver.HealthCheck, func(), error) {
	checks := map[string]httpserver.HealthCheck{}
	switch cfg.Driver {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		pg := postgres.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		checks["store"] = pg.Ping
		return pg, checks, func() { _ = db.Close() }, nil
	case config.StoreBolt:
		b, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, nil, err
		}
		checks["store"] = b.Ping
		return b, checks, func() { _ = b.Close() }, nil
	default:
		checks["store"] = func(context.Context) error { return nil }
		return memory.NewInMemory(), checks, func() {}, nil
	}
}

// openAuditSink returns the Kafka sink when brokers are configured and an
// in-memory store otherwise.
func openAuditSink(ctx context.Context, cfg config.AuditConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("audit events kept in memory")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	sink, err := kafka.New(cfg.KafkaBrokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
		sink.Close()
		return nil, nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	log.Info("audit events forwarded to kafka", "topic", cfg.Topic)
	return sink, sink.Close, nil
}
