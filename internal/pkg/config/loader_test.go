package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// LoadEnvString / LoadEnvWithFallback
// ============================================================================

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "custom_value")
	assert.Equal(t, "custom_value", LoadEnvString("TEST_STRING", "default_value"))

	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "default_value", LoadEnvString("TEST_STRING", "default_value"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         string
		wantFallback bool
	}{
		{"valid cron", "0 6 * * *", "0 6 * * *", false},
		{"unset", "", "*/15 * * * *", false},
		{"invalid cron", "not a cron", "*/15 * * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CRON", tt.value)

			res := LoadEnvWithFallback("TEST_CRON", "*/15 * * * *", ValidateCronSchedule)

			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.wantFallback, res.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, res.Warnings, 1)
				assert.Contains(t, res.Warnings[0], "TEST_CRON")
			} else {
				assert.Empty(t, res.Warnings)
			}
		})
	}
}

// ============================================================================
// Typed loaders
// ============================================================================

func TestLoadEnvDuration(t *testing.T) {
	t.Setenv("TEST_TTL", "90s")
	res := LoadEnvDuration("TEST_TTL", time.Minute, ValidatePositiveDuration)
	assert.Equal(t, 90*time.Second, res.Value)
	assert.False(t, res.FallbackApplied)

	t.Setenv("TEST_TTL", "soon")
	res = LoadEnvDuration("TEST_TTL", time.Minute, ValidatePositiveDuration)
	assert.Equal(t, time.Minute, res.Value)
	assert.True(t, res.FallbackApplied)

	t.Setenv("TEST_TTL", "-5s")
	res = LoadEnvDuration("TEST_TTL", time.Minute, ValidatePositiveDuration)
	assert.Equal(t, time.Minute, res.Value)
	assert.True(t, res.FallbackApplied)
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1, 10) }

	t.Setenv("TEST_INT", "7")
	assert.Equal(t, 7, LoadEnvInt("TEST_INT", 3, inRange).Value)

	t.Setenv("TEST_INT", "70")
	res := LoadEnvInt("TEST_INT", 3, inRange)
	assert.Equal(t, 3, res.Value)
	assert.True(t, res.FallbackApplied)

	t.Setenv("TEST_INT", "seven")
	assert.Equal(t, 3, LoadEnvInt("TEST_INT", 3, nil).Value)
}

func TestLoadEnvInt64(t *testing.T) {
	t.Setenv("TEST_BYTES", "5242880")
	assert.Equal(t, int64(5242880), LoadEnvInt64("TEST_BYTES", 1, nil).Value)
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		value        string
		want         bool
		wantFallback bool
	}{
		{"true", true, false},
		{"1", true, false},
		{"FALSE", false, false},
		{"yes", true, true},
		{"", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			res := LoadEnvBool("TEST_BOOL", true)
			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.wantFallback, res.FallbackApplied)
		})
	}
}

func TestLoadEnvStringList(t *testing.T) {
	def := []string{"a"}

	t.Setenv("TEST_LIST", " https://opensox.ai , ,https://www.opensox.ai")
	assert.Equal(t, []string{"https://opensox.ai", "https://www.opensox.ai"}, LoadEnvStringList("TEST_LIST", def))

	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, def, LoadEnvStringList("TEST_LIST", def))

	t.Setenv("TEST_LIST", "")
	assert.Equal(t, def, LoadEnvStringList("TEST_LIST", def))
}

func TestWarnings(t *testing.T) {
	t.Setenv("TEST_A", "bad")
	t.Setenv("TEST_B", "also-bad")

	ws := Warnings(
		LoadEnvInt("TEST_A", 1, nil),
		LoadEnvDuration("TEST_B", time.Second, nil),
		LoadEnvBool("TEST_UNSET", false),
	)
	assert.Len(t, ws, 2)
}
