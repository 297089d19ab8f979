package config

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics exposes configuration health for one component, e.g.
// "api" or "worker".
type ConfigMetrics struct {
	// LoadTimestamp is the Unix time of the last load.
	LoadTimestamp prometheus.Gauge
	// ValidationErrorsTotal counts rejected values by field.
	ValidationErrorsTotal *prometheus.CounterVec
	// FallbacksTotal counts defaults applied by field.
	FallbacksTotal *prometheus.CounterVec
	// FallbackActive is 1 while any field runs on a fallback.
	FallbackActive prometheus.Gauge

	componentName string
}

// NewConfigMetrics registers the metrics for componentName. Call it once per
// component; promauto panics on duplicate registration.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return newConfigMetrics(componentName, promauto.With(prometheus.DefaultRegisterer))
}

// NewConfigMetricsWith registers the metrics on reg instead of the default
// registry.
func NewConfigMetricsWith(componentName string, reg prometheus.Registerer) *ConfigMetrics {
	return newConfigMetrics(componentName, promauto.With(reg))
}

func newConfigMetrics(componentName string, factory promauto.Factory) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),
		ValidationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),
		componentName: componentName,
	}
}

// RecordLoadTimestamp sets the load timestamp to now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a rejected value for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a default applied for field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive flips the fallback gauge.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}

// Observe records the outcome of a batch of loads: one fallback per result
// that fell back, the active gauge, the load timestamp, and a warning log
// line per fallback.
func (m *ConfigMetrics) Observe(results ...Observed) {
	active := false
	for _, r := range results {
		key, warnings, fellBack := r.observed()
		if !fellBack {
			continue
		}
		active = true
		m.RecordValidationError(key)
		m.RecordFallback(key)
		for _, w := range warnings {
			slog.Warn("configuration fallback applied",
				slog.String("component", m.componentName),
				slog.String("field", key),
				slog.String("warning", w))
		}
	}
	m.SetFallbackActive(active)
	m.RecordLoadTimestamp()
}

// Observed is implemented by every Result.
type Observed interface {
	observed() (key string, warnings []string, fellBack bool)
}

func (r Result[T]) observed() (string, []string, bool) {
	return r.Key, r.Warnings, r.FallbackApplied
}
