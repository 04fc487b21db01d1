package infra

import (
	"context"
	"log"

	"github.com/baysideportal/media-gateway/config"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryClient owns the trace and metric providers plus the gateway's
// own counters. Without an OTLP endpoint it degrades to the global no-op
// providers so callers never need nil checks.
type TelemetryClient struct {
	Tracer trace.Tracer

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	proxyHits    metric.Int64Counter
	placeholders metric.Int64Counter
	probeErrors  metric.Int64Counter
}

func InitTelemetryClient(cfg *config.EnvConfig) *TelemetryClient {
	t := &TelemetryClient{}

	if cfg.Grafana.OTLPEndpoint != "" {
		ctx := context.Background()
		res := resource.NewSchemaless(
			attribute.String("service.name", cfg.Grafana.ServiceName),
			attribute.String("deployment.environment", cfg.Environment.Mode),
		)

		traceExporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
		))
		if err != nil {
			log.Printf("Warning: OTLP trace exporter init failed: %v", err)
		} else {
			t.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(traceExporter),
				sdktrace.WithResource(res),
			)
			otel.SetTracerProvider(t.tracerProvider)
		}

		metricExporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
		)
		if err != nil {
			log.Printf("Warning: OTLP metric exporter init failed: %v", err)
		} else {
			t.meterProvider = sdkmetric.NewMeterProvider(
				sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
				sdkmetric.WithResource(res),
			)
			otel.SetMeterProvider(t.meterProvider)

			if err := runtime.Start(runtime.WithMeterProvider(t.meterProvider)); err != nil {
				log.Printf("Warning: runtime instrumentation failed: %v", err)
			}
		}
	}

	t.Tracer = otel.Tracer("media-gateway")

	meter := otel.Meter("media-gateway")
	var err error
	if t.proxyHits, err = meter.Int64Counter("media_proxy_hits_total",
		metric.WithDescription("Proxy requests satisfied by a real candidate, by backend"),
	); err != nil {
		log.Printf("Warning: counter init failed: %v", err)
	}
	if t.placeholders, err = meter.Int64Counter("media_proxy_placeholders_total",
		metric.WithDescription("Proxy requests that exhausted every candidate and served the placeholder"),
	); err != nil {
		log.Printf("Warning: counter init failed: %v", err)
	}
	if t.probeErrors, err = meter.Int64Counter("media_probe_errors_total",
		metric.WithDescription("Candidate probes that failed or timed out"),
	); err != nil {
		log.Printf("Warning: counter init failed: %v", err)
	}

	return t
}

func (t *TelemetryClient) RecordProxyHit(ctx context.Context, backend string) {
	if t.proxyHits != nil {
		t.proxyHits.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
	}
}

func (t *TelemetryClient) RecordPlaceholder(ctx context.Context) {
	if t.placeholders != nil {
		t.placeholders.Add(ctx, 1)
	}
}

func (t *TelemetryClient) RecordProbeError(ctx context.Context, backend string) {
	if t.probeErrors != nil {
		t.probeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend)))
	}
}

func (t *TelemetryClient) Shutdown(ctx context.Context) {
	if t.tracerProvider != nil {
		_ = t.tracerProvider.Shutdown(ctx)
	}
	if t.meterProvider != nil {
		_ = t.meterProvider.Shutdown(ctx)
	}
}
