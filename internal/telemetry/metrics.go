package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/buildpreset"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Pass metrics
	PassesBuiltTotal  metric.Int64Counter
	PassErrorsTotal   metric.Int64Counter
	PassWarningsTotal metric.Int64Counter
	PassDuration      metric.Float64Histogram
	OutputBytes       metric.Int64Counter

	// Watch metrics
	RebuildsTotal     metric.Int64Counter
	LiveReloadClients metric.Int64UpDownCounter

	// Copy metrics
	FilesCopiedTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.PassesBuiltTotal, _ = meter.Int64Counter(
		"buildpreset.passes.built.total",
		metric.WithDescription("Total number of bundling passes completed"),
		metric.WithUnit("{pass}"),
	)

	m.PassErrorsTotal, _ = meter.Int64Counter(
		"buildpreset.passes.errors.total",
		metric.WithDescription("Total number of bundling passes that failed"),
		metric.WithUnit("{error}"),
	)

	m.PassWarningsTotal, _ = meter.Int64Counter(
		"buildpreset.passes.warnings.total",
		metric.WithDescription("Total number of warnings forwarded by the pass warning handler"),
		metric.WithUnit("{warning}"),
	)

	m.PassDuration, _ = meter.Float64Histogram(
		"buildpreset.passes.duration",
		metric.WithDescription("Duration of bundling passes"),
		metric.WithUnit("ms"),
	)

	m.OutputBytes, _ = meter.Int64Counter(
		"buildpreset.output.bytes",
		metric.WithDescription("Total bytes written to pass output directories"),
		metric.WithUnit("By"),
	)

	m.RebuildsTotal, _ = meter.Int64Counter(
		"buildpreset.watch.rebuilds.total",
		metric.WithDescription("Total number of rebuilds triggered in watch mode"),
		metric.WithUnit("{rebuild}"),
	)

	m.LiveReloadClients, _ = meter.Int64UpDownCounter(
		"buildpreset.livereload.clients",
		metric.WithDescription("Number of connected live reload clients"),
		metric.WithUnit("{client}"),
	)

	m.FilesCopiedTotal, _ = meter.Int64Counter(
		"buildpreset.copy.files.total",
		metric.WithDescription("Total number of files copied into output directories"),
		metric.WithUnit("{file}"),
	)

	return m
}
