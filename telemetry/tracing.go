package telemetry

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/securethebag/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// InitTracing exports spans over OTLP/HTTP to endpoint, e.g.
// http://localhost:4318, and installs the provider globally. With an empty
// endpoint tracing stays disabled and the returned ShutdownFunc does nothing.
func InitTracing(ctx context.Context, endpoint, service, version string) (ShutdownFunc, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter %s: %w", endpoint, err)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", service),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info(log.CLIMonitoring, "tracing enabled", "endpoint", endpoint, "service", service)
	return tp.Shutdown, nil
}
