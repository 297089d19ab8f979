// Package worker runs the scheduled maintenance jobs: subscription expiry,
// testimonial cache warm-up and newsletter refresh. It also serves the
// worker's health and metrics endpoints.
package worker

import (
	"errors"
	"fmt"
	"time"

	"opensox-api/internal/pkg/config"
)

// Config holds the worker settings.
//
// Environment variables:
//   - CRON_SCHEDULE: five-field cron expression (default "*/15 * * * *")
//   - WORKER_TIMEZONE: IANA zone the schedule runs in (default "UTC")
//   - WORKER_RUN_TIMEOUT: deadline for one full run (default 5m, 10s-1h)
//   - WORKER_RUN_ON_START: run once before the first tick (default true)
//   - WORKER_HEALTH_PORT: health server port (default 9091)
//   - METRICS_PORT: Prometheus server port (default 9090)
type Config struct {
	CronSchedule string
	Timezone     string
	RunTimeout   time.Duration
	RunOnStart   bool
	HealthPort   int
	MetricsPort  int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CronSchedule: "*/15 * * * *",
		Timezone:     "UTC",
		RunTimeout:   5 * time.Minute,
		RunOnStart:   true,
		HealthPort:   9091,
		MetricsPort:  9090,
	}
}

func validatePort(p int) error {
	return config.ValidateIntRange(p, 1024, 65535)
}

func validateRunTimeout(d time.Duration) error {
	return config.ValidateDuration(d, 10*time.Second, time.Hour)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateRunTimeout(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := validatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := validatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health and metrics ports must differ (both %d)", c.HealthPort))
	}
	return errors.Join(errs...)
}

// LoadConfigFromEnv never fails: an invalid value falls back to its default
// and is reported in the returned results so the caller can log it and
// record the fallback metrics.
func LoadConfigFromEnv() (Config, []config.Observed) {
	cfg := DefaultConfig()

	schedule := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	tz := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	timeout := config.LoadEnvDuration("WORKER_RUN_TIMEOUT", cfg.RunTimeout, validateRunTimeout)
	onStart := config.LoadEnvBool("WORKER_RUN_ON_START", cfg.RunOnStart)
	health := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, validatePort)
	metricsPort := config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, validatePort)

	cfg.CronSchedule = schedule.Value
	cfg.Timezone = tz.Value
	cfg.RunTimeout = timeout.Value
	cfg.RunOnStart = onStart.Value
	cfg.HealthPort = health.Value
	cfg.MetricsPort = metricsPort.Value

	return cfg, []config.Observed{schedule, tz, timeout, onStart, health, metricsPort}
}
