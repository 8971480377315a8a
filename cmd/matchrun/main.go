// Command matchrun executes a single matching pass and exits. It is meant
// for cron style scheduling next to the long-running server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"tandem/internal/audit"
	"tandem/internal/matching/metrics"
	"tandem/internal/matching/service"
	"tandem/internal/notification"
	"tandem/internal/platform/config"
	"tandem/internal/platform/database"
	"tandem/internal/platform/logger"
	platformredis "tandem/internal/platform/redis"
	"tandem/internal/platform/runlock"
	"tandem/internal/report/store"
	"tandem/migrations"
)

func main() {
	os.Exit(run())
}

// run carries the whole job so deferred cleanup fires on every exit path;
// os.Exit lives only in main.
func run() int {
	identifierList := flag.String("identifiers", "", "comma separated identifiers to check instead of deriving from unseen records")
	timeout := flag.Duration("timeout", 10*time.Minute, "abort the run after this long")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		return 1
	}
	if pool == nil {
		log.Error("DATABASE_URL is required for matchrun")
		return 1
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool.DB()); err != nil {
		log.Error("migrations failed", "error", err)
		return 1
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		return 1
	}
	var locker runlock.Locker = runlock.NewLocal()
	if redisClient != nil {
		defer redisClient.Close()
		locker = runlock.NewRedis(redisClient.Client, "tandem:matching:run", cfg.RunLockTTL)
	}

	var notifier notification.Notifier
	if cfg.NotifyBaseURL != "" {
		notifier = notification.NewAPIClient(cfg.NotifyBaseURL, cfg.NotifyToken, cfg.NotifyTimeout)
	} else {
		log.Warn("NOTIFY_BASE_URL not set, notifications are log only")
		notifier = notification.NewLogNotifier(log)
	}

	auditor := audit.NewPublisher(audit.NewPostgres(pool.DB()), audit.WithPublisherLogger(log))
	svc := service.NewService(store.NewPostgres(pool.DB()), auditor, notifier, log,
		service.WithMetrics(metrics.New()),
	)

	return executeRun(ctx, svc, locker, log, parseIdentifiers(*identifierList))
}

// executeRun performs one lock-guarded matching pass. The lock is released
// on every path, including a failed run, so the next scheduled invocation is
// not blocked until the lock TTL expires.
func executeRun(ctx context.Context, svc *service.Service, locker runlock.Locker, log *slog.Logger, identifiers []string) int {
	release, err := locker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			log.Warn("another matching run is in progress, skipping")
			return 0
		}
		log.Error("failed to acquire run lock", "error", err)
		return 1
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			log.Warn("failed to release run lock", "error", err)
		}
	}()

	summary, err := svc.Run(ctx, identifiers, nil)
	if err != nil {
		log.Error("matching run failed", "error", err)
		return 1
	}

	log.Info("matching run finished",
		"run_id", summary.RunID,
		"identifiers_checked", summary.IdentifiersChecked,
		"new_match_groups", summary.NewMatchGroups,
		"notifications_sent", summary.NotificationsSent,
		"school_reports_sent", summary.SchoolReportsSent,
		"records_marked_seen", summary.RecordsMarkedSeen,
	)
	return 0
}

func parseIdentifiers(list string) []string {
	if list == "" {
		return nil
	}
	var identifiers []string
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			identifiers = append(identifiers, id)
		}
	}
	return identifiers
}
