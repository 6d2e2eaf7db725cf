// Package observer provides OTEL-based observability for served agents.
//
// It wraps the Agent Protocol handler with a middleware that emits a span
// and metrics for every query. Users export to any OTEL-compatible backend
// by setting standard OTEL env vars.
package observer

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/fixieai/agents-go/observer"

// Instruments holds all OTEL instruments used by the query middleware.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter

	Queries       metric.Int64Counter
	QueryDuration metric.Float64Histogram
	QueryFailures metric.Int64Counter
}

// Init sets up OTEL trace and metric providers with OTLP HTTP exporters.
// Configuration comes from standard OTEL env vars (OTEL_EXPORTER_OTLP_ENDPOINT, etc.).
// Returns a shutdown function that must be called on application exit.
func Init(ctx context.Context, serviceName string) (*Instruments, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	// Trace provider
	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	// Metric provider
	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	inst, err := NewInstruments()
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tp.Shutdown(ctx),
			mp.Shutdown(ctx),
		)
	}

	return inst, shutdown, nil
}

// NewInstruments builds Instruments from the globally registered providers.
// Used directly in tests; applications normally call Init.
func NewInstruments() (*Instruments, error) {
	tracer := otel.Tracer(scopeName)
	meter := otel.Meter(scopeName)

	queries, err := meter.Int64Counter("agent.queries",
		metric.WithDescription("Served agent queries"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, err
	}

	queryDuration, err := meter.Float64Histogram("agent.query.duration",
		metric.WithDescription("Query handling duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	queryFailures, err := meter.Int64Counter("agent.query.failures",
		metric.WithDescription("Queries answered with a non-2xx status"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:        tracer,
		Meter:         meter,
		Queries:       queries,
		QueryDuration: queryDuration,
		QueryFailures: queryFailures,
	}, nil
}
