// Package telemetry configures OpenTelemetry tracing and metrics for the process.
package telemetry

import (
	"context"
	"net/http"

	"github.com/abgdnv/storefront/pkg/config"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// ShutdownFunc flushes and stops a provider.
type ShutdownFunc func(ctx context.Context) error

func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
}

// NewTracerProvider installs the global tracer provider and W3C propagators.
// When tracing is disabled only the propagators are installed and the returned shutdown is a no-op.
func NewTracerProvider(ctx context.Context, serviceName string, cfg config.TracesConfig) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	collectorOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.OtlpHttp.Endpoint),
		otlptracehttp.WithTimeout(cfg.OtlpHttp.Timeout),
	}
	if cfg.OtlpHttp.Insecure {
		collectorOpts = append(collectorOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, collectorOpts...)
	if err != nil {
		return nil, err
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(newResource(serviceName)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewMeterProvider installs a global meter provider backed by a Prometheus exporter
// registered on its own registry, and returns the scrape handler for that registry.
func NewMeterProvider(serviceName string) (http.Handler, ShutdownFunc, error) {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName)),
	)
	otel.SetMeterProvider(mp)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), mp.Shutdown, nil
}
