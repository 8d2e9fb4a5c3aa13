// Package observability wires reqkit into OpenTelemetry: tracer and
// meter initialization with OTLP HTTP export, plus the span and metric
// helpers used by the req tracing and metrics middleware.
//
// Initialization is owned by the application, not by backends:
//
//	tp, _ := observability.InitTracer(ctx, observability.DefaultTracerConfig("checkout"))
//	defer tp.Shutdown(ctx)
package observability
