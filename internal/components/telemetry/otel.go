package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"
	"wilma-backend/internal/components/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const ConfigFile = "telemetry.json5"

// Config is the contents of telemetry.json5, an empty endpoint disables
// that signal.
type Config struct {
	// Protocol is "http" (default) or "grpc".
	Protocol              string            `json:"protocol"`
	TracesEndpoint        string            `json:"traces_endpoint"`
	MetricsEndpoint       string            `json:"metrics_endpoint"`
	Headers               map[string]string `json:"headers"`
	MetricIntervalSeconds int               `json:"metric_interval_seconds"`
}

// Telemetry holds the installed providers, either may be nil.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Resource names the process for every exported span and metric.
func Resource(serviceName string, attrs ...attribute.KeyValue) (*resource.Resource, error) {
	attrs = append([]attribute.KeyValue{semconv.ServiceName(serviceName)}, attrs...)
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}

func newSpanExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Protocol {
	case "", "http":
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.TracesEndpoint),
			otlptracehttp.WithHeaders(cfg.Headers),
		)
	case "grpc":
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.TracesEndpoint),
			otlptracegrpc.WithHeaders(cfg.Headers),
		)
	}
	return nil, fmt.Errorf("unknown otlp protocol %q", cfg.Protocol)
}

func newMetricExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	switch cfg.Protocol {
	case "", "http":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpointURL(cfg.MetricsEndpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		)
	case "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpointURL(cfg.MetricsEndpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		)
	}
	return nil, fmt.Errorf("unknown otlp protocol %q", cfg.Protocol)
}

// Setup installs global otlp providers for the signals cfg has an
// endpoint for.
func Setup(ctx context.Context, res *resource.Resource, cfg Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	var out Telemetry
	if cfg.TracesEndpoint != "" {
		exporter, err := newSpanExporter(ctx, cfg)
		if err != nil {
			return Telemetry{}, fmt.Errorf("trace exporter: %w", err)
		}
		out.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(out.TracerProvider)
	}

	if cfg.MetricsEndpoint != "" {
		exporter, err := newMetricExporter(ctx, cfg)
		if err != nil {
			return Telemetry{}, errors.Join(fmt.Errorf("metric exporter: %w", err), out.Shutdown(ctx))
		}
		interval := time.Duration(cfg.MetricIntervalSeconds) * time.Second
		if interval <= 0 {
			interval = time.Second * 15
		}
		out.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(out.MeterProvider)
	}
	return out, nil
}

// SetupFromEnv finds telemetry.json5 in the working directory or one of its
// parents and calls Setup with it.
func SetupFromEnv(ctx context.Context, res *resource.Resource) (Telemetry, error) {
	cfg, err := configutil.ReadRecursively[Config](ConfigFile)
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, res, cfg)
}

// SetupRecording installs a tracer provider that keeps every finished span
// in memory, it is meant for tests.
func SetupRecording(res *resource.Resource) (Telemetry, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return Telemetry{TracerProvider: provider}, exporter
}
