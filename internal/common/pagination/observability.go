package pagination

import (
	"log/slog"
	"time"
)

// LogResponse logs a served page.
func LogResponse(logger *slog.Logger, resource string, params Params, returned int, duration time.Duration) {
	logger.Info("paginated response",
		slog.String("resource", resource),
		slog.Int("page", params.Page),
		slog.Int("limit", params.Limit),
		slog.Int("returned_count", returned),
		slog.Int64("duration_ms", duration.Milliseconds()))
}

// LogError logs rejected pagination parameters.
func LogError(logger *slog.Logger, resource string, params Params, err error) {
	logger.Warn("pagination error",
		slog.String("resource", resource),
		slog.Int("page", params.Page),
		slog.Int("limit", params.Limit),
		slog.Any("error", err))
}
