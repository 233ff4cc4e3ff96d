package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Resource describes this service to exporters.
func Resource(serviceName, version string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
}

// SetupTracing installs a tracer provider that writes finished spans to w.
// The returned function flushes and stops the provider.
func SetupTracing(res *resource.Resource, w io.Writer) (func(context.Context) error, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
	}
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// SetupMetrics bridges OpenTelemetry instruments onto reg and installs the
// meter provider globally.
func SetupMetrics(res *resource.Resource, reg prometheus.Registerer) (*metric.MeterProvider, error) {
	mp, err := NewMeterProvider(res, reg)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)
	return mp, nil
}

// NewMeterProvider builds a meter provider exporting to reg.
func NewMeterProvider(res *resource.Resource, reg prometheus.Registerer) (*metric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	return metric.NewMeterProvider(metric.WithReader(exp), metric.WithResource(res)), nil
}

// MetricsHandler serves everything registered with g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
