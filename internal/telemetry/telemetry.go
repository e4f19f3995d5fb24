package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// a build is short lived, flush well before the process exits
const (
	spanFlushInterval   = 2 * time.Second
	metricFlushInterval = 5 * time.Second
)

// ShutdownFunc flushes and stops a provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Config controls the telemetry providers.
type Config struct {
	ServiceName string
	Version     string
	// SampleRatio is the fraction of root spans recorded, values of 1 or more record everything.
	SampleRatio float64
}

func (c Config) sampler() sdktrace.Sampler {
	if c.SampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
}

// InitTelemetry installs the global trace and meter providers for build passes. Exporters take
// their endpoint and headers from the standard OTEL_EXPORTER_OTLP_* variables. A provider
// that cannot start is skipped so the build still runs.
func InitTelemetry(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOSType(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traces, err := startTracing(ctx, res, cfg.sampler())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Tracing disabled")
		traces = noopShutdown
	}

	metrics, err := startMetrics(ctx, res)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Build metrics disabled")
		metrics = noopShutdown
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	zerolog.Ctx(ctx).Debug().
		Str("service", cfg.ServiceName).
		Str("version", cfg.Version).
		Msg("Telemetry started")

	return joinShutdown(map[string]ShutdownFunc{"traces": traces, "metrics": metrics}), nil
}

// joinShutdown runs every provider shutdown and reports all failures together.
func joinShutdown(providers map[string]ShutdownFunc) ShutdownFunc {
	return func(ctx context.Context) error {
		var errs []error
		for name, shutdown := range providers {
			if err := shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
		return errors.Join(errs...)
	}
}

func startTracing(ctx context.Context, res *resource.Resource, sampler sdktrace.Sampler) (ShutdownFunc, error) {
	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(spanFlushInterval)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func startMetrics(ctx context.Context, res *resource.Resource) (ShutdownFunc, error) {
	exporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricFlushInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}
