package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	pgRepo "opensox-api/internal/infra/adapter/persistence/postgres"
	"opensox-api/internal/infra/cache"
	"opensox-api/internal/infra/db"
	"opensox-api/internal/infra/newsfeed"
	workerPkg "opensox-api/internal/infra/worker"
	"opensox-api/internal/observability/logging"
	"opensox-api/internal/resilience/circuitbreaker"
	nlUC "opensox-api/internal/usecase/newsletter"
	subUC "opensox-api/internal/usecase/subscription"
	tmUC "opensox-api/internal/usecase/testimonial"
)

func main() {
	logger, logCloser := logging.NewLoggerWithOptions(logging.OptionsFromEnv())
	slog.SetDefault(logger)
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := workerPkg.NewMetrics(prometheus.DefaultRegisterer)
	cfg, results := workerPkg.LoadConfigFromEnv()
	metrics.Config.Observe(results...)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Duration("run_timeout", cfg.RunTimeout),
		slog.Int("health_port", cfg.HealthPort),
		slog.Int("metrics_port", cfg.MetricsPort))

	database := initDatabase(ctx, logger)
	defer closeQuietly(logger, database)

	health := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	metricsServer := workerPkg.NewMetricsServer(fmt.Sprintf(":%d", cfg.MetricsPort), logger)

	scheduler, err := workerPkg.NewScheduler(cfg, logger, metrics, health, buildTasks(logger, database)...)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return health.Start(gctx) })
	g.Go(func() error { return metricsServer.Start(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("worker exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}

// initDatabase opens the database and waits for the API to have applied
// the migrations.
func initDatabase(ctx context.Context, logger *slog.Logger) *sql.DB {
	database, err := db.OpenFromEnv(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	waitForMigrations(ctx, logger, database)
	return database
}

func waitForMigrations(ctx context.Context, logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1 FROM subscriptions LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.ExecContext(ctx, probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		select {
		case <-ctx.Done():
			os.Exit(1)
		case <-time.After(3 * time.Second):
		}
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

// buildTasks returns the scheduled steps in run order: expire overdue
// subscriptions, then warm the testimonials cache, then refresh the
// newsletter feed. The cache is the worker's own; the API process keeps a
// separate one.
func buildTasks(logger *slog.Logger, database *sql.DB) []workerPkg.Task {
	dbBreaker := circuitbreaker.NewDBCircuitBreaker(database)
	memCache := cache.NewMemory(cache.MemoryConfig{})

	subSvc := &subUC.Service{Repo: pgRepo.NewSubscriptionRepo(dbBreaker)}
	testimonialSvc := &tmUC.Service{
		Repo:  pgRepo.NewTestimonialRepo(dbBreaker),
		Subs:  subSvc,
		Cache: memCache,
	}

	tasks := []workerPkg.Task{
		{Name: "expire_subscriptions", Run: func(ctx context.Context) error {
			n, err := subSvc.ExpireOverdue(ctx)
			if err == nil {
				logger.Info("subscriptions expired", slog.Int64("count", n))
			}
			return err
		}},
		{Name: "warm_testimonials", Run: func(ctx context.Context) error {
			n, err := testimonialSvc.WarmCache(ctx)
			if err == nil {
				logger.Info("testimonials cache warmed", slog.Int("count", n))
			}
			return err
		}},
	}

	feedCfg, _ := newsfeed.LoadConfigFromEnv()
	if feedCfg.FeedURL == "" {
		logger.Info("newsletter refresh disabled: NEWSLETTER_FEED_URL is not set")
		return tasks
	}
	newsletterSvc := &nlUC.Service{
		Feed:     newsfeed.NewReader(feedCfg, nil),
		Cache:    memCache,
		CacheTTL: feedCfg.CacheTTL,
	}
	return append(tasks, workerPkg.Task{Name: "refresh_newsletters", Run: func(ctx context.Context) error {
		n, err := newsletterSvc.Refresh(ctx)
		if err == nil {
			logger.Info("newsletter feed refreshed", slog.Int("items", n))
		}
		return err
	}})
}

func closeQuietly(logger *slog.Logger, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close database", slog.Any("error", err))
	}
}
