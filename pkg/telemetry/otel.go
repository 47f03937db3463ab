package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Shutdown flushes and stops the tracer provider installed by Init.
type Shutdown func(ctx context.Context) error

// Init wires up a TracerProvider for serviceName.
//
// When OTEL_EXPORTER_OTLP_ENDPOINT is set it ships spans via OTLP/gRPC;
// otherwise it falls back to a stdout exporter so the pipeline remains
// observable with zero external dependencies during local development.
func Init(ctx context.Context, serviceName string) (trace.Tracer, Shutdown, error) {
	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		return otel.Tracer(serviceName), func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	exporter, err := newExporter(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Tracer(serviceName), tp.Shutdown, nil
}

func newExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	}
	return stdouttrace.New(stdouttrace.WithoutTimestamps())
}

// NoopTracer returns a Tracer that produces spans which are never exported,
// for callers that never invoked Init (e.g. unit tests).
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("noop")
}
