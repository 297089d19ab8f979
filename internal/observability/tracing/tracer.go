package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"opensox-api/internal/pkg/config"
)

// TracerName identifies spans created by this service.
const TracerName = "opensox-api"

// GetTracer returns the service tracer from the provider installed
// globally at call time. Before Setup it returns a no-op tracer.
func GetTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Config controls the tracer provider.
type Config struct {
	ServiceName string
	Version     string

	// SampleRatio is the fraction of root spans kept, in [0, 1].
	// Parent decisions are always honoured.
	SampleRatio float64

	// LogSpans emits finished spans through slog at debug level.
	LogSpans bool

	// Exporter, when set, receives finished spans in batches.
	Exporter sdktrace.SpanExporter
}

// LoadConfigFromEnv reads OTEL_SERVICE_NAME, TRACING_SAMPLE_RATIO and
// TRACING_LOG_SPANS.
func LoadConfigFromEnv() (Config, []config.Observed) {
	ratio := config.LoadEnvWithFallback("TRACING_SAMPLE_RATIO", "1", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("must be between 0 and 1")
		}
		return nil
	})
	logSpans := config.LoadEnvBool("TRACING_LOG_SPANS", false)

	sample, _ := strconv.ParseFloat(ratio.Value, 64)
	return Config{
		ServiceName: config.LoadEnvString("OTEL_SERVICE_NAME", TracerName),
		Version:     config.LoadEnvString("APP_VERSION", "dev"),
		SampleRatio: sample,
		LogSpans:    logSpans.Value,
	}, []config.Observed{ratio, logSpans}
}

// Setup installs the global tracer provider and propagators. The returned
// function flushes and stops the provider.
func Setup(cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = TracerName
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("tracing: sample ratio %v out of range", cfg.SampleRatio)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}
	if cfg.Exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(cfg.Exporter))
	}
	if cfg.LogSpans {
		opts = append(opts, sdktrace.WithSyncer(NewLogExporter(slog.Default())))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}
