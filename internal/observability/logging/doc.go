// Package logging provides structured logging utilities with context propagation.
//
// Loggers write JSON (or text) to stdout and, when LOG_FILE is set, to a
// size-rotated file as well.
//
// Example usage:
//
//	import "opensox-api/internal/observability/logging"
//
//	func main() {
//	    logger, closer := logging.NewLoggerWithOptions(logging.OptionsFromEnv())
//	    defer closer.Close()
//	    slog.SetDefault(logger)
//	}
//
//	func handleRequest(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, slog.Default())
//	    logger.Info("processing request")
//	}
package logging
