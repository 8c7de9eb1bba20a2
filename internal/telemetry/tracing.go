package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"recipefinder/internal/config"
)

// Tracer returns a named tracer from the global provider. Spans are dropped unless Setup
// installed an exporter.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("recipefinder/" + name)
}

// Setup installs an OTLP/HTTP trace exporter when an endpoint is configured. The returned
// shutdown flushes pending spans and is always safe to call.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	slog.InfoContext(ctx, "tracing enabled", "endpoint", cfg.OTLPEndpoint)
	return tp.Shutdown, nil
}
