// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
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

	"github.com/jackc/pgx/v5/pgxpool"

	"tierboard/internal/audit"
	audithandler "tierboard/internal/audit/handler"
	auditmetrics "tierboard/internal/audit/metrics"
	auditmemory "tierboard/internal/audit/store/memory"
	auditmonthlog "tierboard/internal/audit/store/monthlog"
	auditpostgres "tierboard/internal/audit/store/postgres"
	"tierboard/internal/certification/analytics"
	certhandler "tierboard/internal/certification/handler"
	certmetrics "tierboard/internal/certification/metrics"
	"tierboard/internal/certification/models"
	"tierboard/internal/certification/progression"
	"tierboard/internal/certification/service"
	"tierboard/internal/certification/store"
	"tierboard/internal/platform/config"
	"tierboard/internal/platform/httpserver"
	"tierboard/internal/platform/logger"
	"tierboard/internal/platform/postgres"
	platformredis "tierboard/internal/platform/redis"
	httptransport "tierboard/internal/transport/http"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage.
	var (
		records  service.RecordStore
		advisors service.AdvisorStore
		pool     *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL, cfg.PoolMaxConns)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		records, advisors = pg, pg
	} else {
		log.Warn("DATABASE_URL not set, running with in-memory storage")
		mem := store.NewMemory()
		records, advisors = mem, mem
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Audit backend is selected once at startup and immutable for the
	// process lifetime.
	trail := selectTrail(ctx, cfg, pool, redisClient, log)
	writer := audit.NewWriter(trail,
		audit.WithLogger(log),
		audit.WithMetrics(auditmetrics.New()),
	)

	eval := progression.New(progression.WithSLAs(slasFromConfig(cfg)))
	svc := service.New(records, advisors, trail, writer,
		service.WithLogger(log),
		service.WithMetrics(certmetrics.New()),
		service.WithEvaluator(eval),
		service.WithCache(analytics.NewResultCache(cfg.CacheTTL)),
	)

	router := httptransport.NewRouter(
		httptransport.Options{
			Logger:         log,
			AllowedActors:  cfg.AllowedActors,
			RequestTimeout: cfg.RequestTimeout,
		},
		certhandler.New(svc, log),
		audithandler.New(svc, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting tierboard", "addr", cfg.Addr, "audit_backend", cfg.AuditBackend)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// selectTrail picks the audit backend from configuration, falling back to the
// in-memory trail with a warning when the configured backend's store is not
// reachable from this process.
func selectTrail(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, redisClient *platformredis.Client, log *slog.Logger) audit.Trail {
	switch cfg.AuditBackend {
	case "postgres":
		if pool != nil {
			pg := auditpostgres.New(pool)
			if err := pg.EnsureSchema(ctx); err != nil {
				log.Error("audit schema migration failed", "error", err)
				os.Exit(1)
			}
			return pg
		}
		log.Warn("postgres audit backend configured without DATABASE_URL, using in-memory trail")
	case "monthlog":
		if redisClient != nil {
			return auditmonthlog.New(redisClient.Client, cfg.AuditKeyPrefix)
		}
		log.Warn("monthlog audit backend configured without REDIS_URL, using in-memory trail")
	case "memory":
	default:
		log.Warn("unknown audit backend, using in-memory trail", "backend", cfg.AuditBackend)
	}
	return auditmemory.New()
}

func slasFromConfig(cfg config.Config) progression.SLAs {
	return progression.SLAs{
		models.Tier1: cfg.Tier1SLA,
		models.Tier2: cfg.Tier2SLA,
		models.Tier3: cfg.Tier3SLA,
		models.Tier4: cfg.Tier4SLA,
		models.Tier5: cfg.Tier5SLA,
	}
}
