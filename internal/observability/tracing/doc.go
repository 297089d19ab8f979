// Package tracing wires OpenTelemetry into the API.
//
// Setup installs a global TracerProvider and the W3C trace-context and
// baggage propagators. Middleware starts one server span per request and
// names it after the matched route once the mux has run.
//
//	shutdown, err := tracing.Setup(tracing.LoadConfigFromEnv())
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.GetTracer().Start(ctx, "testimonial.submit")
//	defer span.End()
package tracing
