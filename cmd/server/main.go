// Command server runs the matching service: an authenticated HTTP trigger
// for matching runs plus health and metrics endpoints.
//
// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tandem/internal/audit"
	matchhandler "tandem/internal/matching/handler"
	"tandem/internal/matching/metrics"
	"tandem/internal/matching/service"
	"tandem/internal/matching/tracer"
	"tandem/internal/notification"
	"tandem/internal/platform/config"
	"tandem/internal/platform/database"
	"tandem/internal/platform/health"
	"tandem/internal/platform/httpserver"
	"tandem/internal/platform/kafka"
	"tandem/internal/platform/logger"
	"tandem/internal/platform/middleware"
	platformredis "tandem/internal/platform/redis"
	"tandem/internal/platform/runlock"
	"tandem/internal/report/store"
	"tandem/migrations"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing tandem",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Without DATABASE_URL everything runs in memory, which is
	// enough for local development.
	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	var recordStore store.Store
	var auditStore audit.Store
	if pool != nil {
		if err := migrations.Apply(ctx, pool.DB()); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		recordStore = store.NewPostgres(pool.DB())
		auditStore = audit.NewPostgres(pool.DB())
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		recordStore = store.New()
		auditStore = audit.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}

	var locker runlock.Locker = runlock.NewLocal()
	if redisClient != nil {
		locker = runlock.NewRedis(redisClient.Client, "tandem:matching:run", cfg.RunLockTTL)
	}

	auditOpts := []audit.PublisherOption{audit.WithPublisherLogger(log)}
	if cfg.AuditBufferSize > 0 {
		// Buffered emits trade durability for latency: a failed append is
		// logged, not surfaced. Leave unset where every eval row must stick.
		auditOpts = append(auditOpts, audit.WithAsyncBuffer(cfg.AuditBufferSize))
	}
	var producer *kafka.Producer
	if cfg.KafkaBrokers != "" {
		producer, err = kafka.NewProducer(kafka.Config{
			Brokers:         cfg.KafkaBrokers,
			Retries:         3,
			DeliveryTimeout: 10 * time.Second,
		}, log)
		if err != nil {
			log.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, audit.WithKafkaSink(producer, cfg.AuditTopic))
	}
	auditor := audit.NewPublisher(auditStore, auditOpts...)

	var notifier notification.Notifier
	if cfg.NotifyBaseURL != "" {
		notifier = notification.NewAPIClient(cfg.NotifyBaseURL, cfg.NotifyToken, cfg.NotifyTimeout)
	} else {
		log.Warn("NOTIFY_BASE_URL not set, notifications are log only")
		notifier = notification.NewLogNotifier(log)
	}

	svc := service.NewService(recordStore, auditor, notifier, log,
		service.WithMetrics(metrics.New()),
		service.WithTracer(tracer.NewOTel()),
	)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(checkCtx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(checkCtx)
		})
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(60 * time.Second))

	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.JWTSigningKey, log))
		r.Use(middleware.ContentTypeJSON)
		matchhandler.New(svc, locker, auditor, log).RegisterRoutes(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if redisClient != nil {
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					redisClient.RecordPoolStats()
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	auditor.Close()
	if producer != nil {
		_ = producer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		_ = pool.Close()
	}

	log.Info("server stopped")
}
