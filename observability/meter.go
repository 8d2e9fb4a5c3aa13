package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the global OpenTelemetry meter provider.
// The returned provider should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(newResource(config.ServiceName, config.ServiceVersion, config.Environment)),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	)

	otel.SetMeterProvider(mp)
	return mp, nil
}

// Metrics holds the client-side instruments recorded by the req
// metrics middleware: request count, duration, and error count, all
// labelled by backend and method.
type Metrics struct {
	requests  metric.Int64Counter
	durations metric.Float64Histogram
	errors    metric.Int64Counter
}

// NewMetrics creates the reqkit client instruments on the globally
// registered meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(tracerName)

	requests, err := meter.Int64Counter("reqkit.client.requests",
		metric.WithDescription("Completed HTTP exchanges"))
	if err != nil {
		return nil, err
	}
	durations, err := meter.Float64Histogram("reqkit.client.request.duration",
		metric.WithDescription("HTTP exchange duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("reqkit.client.errors",
		metric.WithDescription("Failed HTTP exchanges"))
	if err != nil {
		return nil, err
	}

	return &Metrics{requests: requests, durations: durations, errors: errs}, nil
}

// RecordRequest records one completed exchange.
func (m *Metrics) RecordRequest(ctx context.Context, backend, method, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("method", method),
		attribute.String("status", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.durations.Record(ctx, d.Seconds(), attrs)
}

// RecordError records one failed exchange.
func (m *Metrics) RecordError(ctx context.Context, backend, code string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("error_code", code),
	))
}
