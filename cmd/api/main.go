package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"opensox-api/internal/common/pagination"
	hhttp "opensox-api/internal/handler/http"
	"opensox-api/internal/handler/http/auth"
	"opensox-api/internal/handler/http/middleware"
	pgRepo "opensox-api/internal/infra/adapter/persistence/postgres"
	"opensox-api/internal/infra/avatar"
	"opensox-api/internal/infra/cache"
	"opensox-api/internal/infra/db"
	"opensox-api/internal/infra/newsfeed"
	"opensox-api/internal/observability/logging"
	"opensox-api/internal/observability/tracing"
	"opensox-api/internal/pkg/config"
	"opensox-api/internal/resilience/circuitbreaker"

	nlUC "opensox-api/internal/usecase/newsletter"
	sessUC "opensox-api/internal/usecase/session"
	subUC "opensox-api/internal/usecase/subscription"
	tmUC "opensox-api/internal/usecase/testimonial"
	userUC "opensox-api/internal/usecase/user"

	_ "opensox-api/docs" // swagger docs
)

// @title           Opensox API
// @version         1.0
// @description     Testimonials, onboarding progress, weekly sessions and the newsletter reader for Opensox users.
// @description     Avatar URLs are checked against an allowlist and probed before a testimonial is stored.

// @contact.name   API Support
// @contact.url    https://github.com/apsinghdev/opensox

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT (HS256) whose sub claim is the user ID. Send "Bearer {token}".

func main() {
	logger, logCloser := initLogger()
	defer closeQuietly(logger, "log file", logCloser)

	configMetrics := config.NewConfigMetrics("api")
	secret := validateJWTSecret(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := initTracing(logger, configMetrics)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	database := initDatabase(ctx, logger)
	defer closeQuietly(logger, "database", database)

	handler := setupServer(ctx, logger, database, secret, configMetrics)
	runServer(ctx, logger, handler)
}

// initLogger builds the JSON logger from LOG_LEVEL, LOG_FORMAT and LOG_FILE
// and installs it as the default.
func initLogger() (*slog.Logger, io.Closer) {
	logger, closer := logging.NewLoggerWithOptions(logging.OptionsFromEnv())
	slog.SetDefault(logger)
	return logger, closer
}

// validateJWTSecret refuses to start with a missing or weak secret.
func validateJWTSecret(logger *slog.Logger) string {
	secret := os.Getenv("JWT_SECRET")
	if err := auth.ValidateSecret(secret); err != nil {
		logger.Error("JWT_SECRET validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	return secret
}

func initTracing(logger *slog.Logger, configMetrics *config.ConfigMetrics) func(context.Context) error {
	cfg, results := tracing.LoadConfigFromEnv()
	configMetrics.Observe(results...)

	shutdown, err := tracing.Setup(cfg)
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("tracing configured",
		slog.String("service", cfg.ServiceName),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return shutdown
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(ctx context.Context, logger *slog.Logger) *sql.DB {
	database, err := db.OpenFromEnv(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupServer wires repositories, usecases and handlers. Background loops
// (cache janitor, rate limiter eviction) stop when ctx is cancelled.
func setupServer(ctx context.Context, logger *slog.Logger, database *sql.DB, secret string, configMetrics *config.ConfigMetrics) http.Handler {
	dbBreaker := circuitbreaker.NewDBCircuitBreaker(database)

	userRepo := pgRepo.NewUserRepo(dbBreaker)
	subRepo := pgRepo.NewSubscriptionRepo(dbBreaker)
	sessionRepo := pgRepo.NewSessionRepo(dbBreaker)
	testimonialRepo := pgRepo.NewTestimonialRepo(dbBreaker)

	memCache := cache.NewMemory(cache.MemoryConfig{
		MaxEntries: config.LoadEnvInt("CACHE_MAX_ENTRIES", 1000, func(v int) error {
			return config.ValidateIntRange(v, 10, 1_000_000)
		}).Value,
	})
	go memCache.Run(ctx, time.Minute)

	avatarCfg, err := avatar.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load avatar configuration", slog.Any("error", err))
		os.Exit(1)
	}
	avatars, err := avatar.New(avatarCfg)
	if err != nil {
		logger.Error("invalid avatar configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("avatar validation configured",
		slog.Any("allowed_hosts", avatars.AllowedHosts()),
		slog.Bool("guard_resolved_addrs", avatarCfg.GuardResolvedAddrs))

	feedCfg, feedResults := newsfeed.LoadConfigFromEnv()
	pageCfg, pageResults := pagination.LoadFromEnv()
	limitCfg, limitResults := middleware.LoadRateLimitConfig("testimonial_submit")
	securityCfg, securityResults := middleware.LoadSecurityHeadersConfig()
	requestTimeout := config.LoadEnvDuration("SERVER_REQUEST_TIMEOUT", 20*time.Second, config.ValidatePositiveDuration)
	swaggerEnabled := config.LoadEnvBool("SWAGGER_ENABLED", true)

	observed := append(feedResults, pageResults...)
	observed = append(observed, limitResults...)
	observed = append(observed, securityResults...)
	observed = append(observed, requestTimeout, swaggerEnabled)
	configMetrics.Observe(observed...)

	if feedCfg.FeedURL == "" {
		logger.Warn("NEWSLETTER_FEED_URL is not set, newsletter endpoints will fail")
	}
	feedReader := newsfeed.NewReader(feedCfg, nil)
	var content nlUC.ContentSource
	var contentFetcher *newsfeed.ContentFetcher
	if feedCfg.ContentFetchEnabled {
		contentFetcher = newsfeed.NewContentFetcher(feedCfg)
		content = contentFetcher
	}

	subSvc := &subUC.Service{Repo: subRepo}
	testimonialSvc := &tmUC.Service{
		Repo:    testimonialRepo,
		Subs:    subSvc,
		Avatars: avatars,
		Cache:   memCache,
	}
	userSvc := &userUC.Service{Repo: userRepo, Subscriptions: subSvc}
	sessionSvc := &sessUC.Service{Repo: sessionRepo, Subscriptions: subRepo}
	newsletterSvc := &nlUC.Service{
		Feed:       feedReader,
		Content:    content,
		Subs:       subSvc,
		Cache:      memCache,
		CacheTTL:   feedCfg.CacheTTL,
		Pagination: &pageCfg,
	}

	corsCfg, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", corsCfg.AllowedOrigins),
		slog.Any("allowed_methods", corsCfg.AllowedMethods),
		slog.Int("max_age", corsCfg.MaxAge))

	// Keyed on the authenticated user, so it must run inside auth.Require.
	submitLimiter := middleware.NewUserRateLimiter(limitCfg, func(r *http.Request) string {
		return auth.UserID(r.Context())
	})
	go submitLimiter.Run(ctx, time.Minute)
	logger.Info("testimonial rate limit configured",
		slog.Int("requests", limitCfg.Requests),
		slog.Duration("window", limitCfg.Window))

	breakers := []hhttp.BreakerState{dbBreaker, feedReader.Breaker()}
	if contentFetcher != nil {
		breakers = append(breakers, contentFetcher.Breaker())
	}

	return hhttp.NewRouter(hhttp.RouterDeps{
		Logger:         logger,
		Auth:           auth.NewAuthenticator(secret, auth.WithUserLookup(userRepo)),
		Testimonials:   testimonialSvc,
		Users:          userSvc,
		Sessions:       sessionSvc,
		Newsletters:    newsletterSvc,
		Pagination:     pageCfg,
		SubmitLimit:    submitLimiter.Middleware,
		CORS:           corsCfg,
		Security:       securityCfg,
		Limits:         hhttp.DefaultInputLimits(),
		RequestTimeout: requestTimeout.Value,
		Health: &hhttp.HealthHandler{
			DB:       database,
			Breakers: breakers,
			Version:  getVersion(),
		},
		Ready:   &hhttp.ReadyHandler{DB: database},
		Swagger: swaggerEnabled.Value,
	})
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	return config.LoadEnvString("APP_VERSION", "dev")
}

// runServer serves until ctx is cancelled and then drains in-flight
// requests.
func runServer(ctx context.Context, logger *slog.Logger, handler http.Handler) {
	addr := ":" + config.LoadEnvString("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("version", getVersion()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		return
	}
	logger.Info("server stopped")
}

func closeQuietly(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+name, slog.Any("error", err))
	}
}
