package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensox-api/internal/pkg/config"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "*/15 * * * *", cfg.CronSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.True(t, cfg.RunOnStart)
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Config{
		CronSchedule: "every minute",
		Timezone:     "Mars/Olympus",
		RunTimeout:   time.Second,
		HealthPort:   80,
		MetricsPort:  80,
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"cron schedule", "timezone", "run timeout", "health port", "metrics port", "must differ"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CRON_SCHEDULE", "0 * * * *")
		t.Setenv("WORKER_TIMEZONE", "Asia/Kolkata")
		t.Setenv("WORKER_RUN_TIMEOUT", "2m")
		t.Setenv("WORKER_RUN_ON_START", "false")
		t.Setenv("WORKER_HEALTH_PORT", "9191")

		cfg, results := LoadConfigFromEnv()
		assert.Equal(t, "0 * * * *", cfg.CronSchedule)
		assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
		assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
		assert.False(t, cfg.RunOnStart)
		assert.Equal(t, 9191, cfg.HealthPort)
		assert.Empty(t, config.Warnings(results...))
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		t.Setenv("CRON_SCHEDULE", "not a cron")
		t.Setenv("WORKER_RUN_TIMEOUT", "3h")
		t.Setenv("METRICS_PORT", "22")

		cfg, results := LoadConfigFromEnv()
		def := DefaultConfig()
		assert.Equal(t, def.CronSchedule, cfg.CronSchedule)
		assert.Equal(t, def.RunTimeout, cfg.RunTimeout)
		assert.Equal(t, def.MetricsPort, cfg.MetricsPort)
		assert.Len(t, config.Warnings(results...), 3)
	})
}
