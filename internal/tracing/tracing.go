// Package tracing installs the OpenTelemetry tracer provider and the W3C
// trace-context propagator used between the events service and the stats
// collector.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Shivanand-hulikatti/explore-events/internal/config"
)

// NewProvider builds a tracer provider for cfg. stdout spans are written to
// w. With the none exporter it returns nil and spans stay no-ops.
func NewProvider(ctx context.Context, cfg config.Tracing, service string, w io.Writer) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case config.TracingNone, "":
		return nil, nil
	case config.TracingStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case config.TracingOTLP:
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s span exporter: %w", cfg.Exporter, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	), nil
}

// Install makes tp the global tracer provider and registers the W3C
// propagator. A nil tp only registers the propagator.
func Install(tp *sdktrace.TracerProvider) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if tp != nil {
		otel.SetTracerProvider(tp)
	}
}
