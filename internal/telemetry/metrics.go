package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/sessionkit"
)

// Metrics holds all the OpenTelemetry metric instruments. Instruments are
// registered against the global meter provider, exporter wiring belongs to
// the host application.
type Metrics struct {
	// Refresh metrics
	RefreshTotal       metric.Int64Counter
	RefreshErrorsTotal metric.Int64Counter
	RefreshJoinedTotal metric.Int64Counter
	RefreshDuration    metric.Float64Histogram

	// Storage metrics
	SessionLoadsTotal  metric.Int64Counter
	SessionSavesTotal  metric.Int64Counter
	StorageErrorsTotal metric.Int64Counter
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

	m.RefreshTotal, _ = meter.Int64Counter(
		"sessionkit.refresh.total",
		metric.WithDescription("Total number of session refresh attempts"),
		metric.WithUnit("{refresh}"),
	)

	m.RefreshErrorsTotal, _ = meter.Int64Counter(
		"sessionkit.refresh.errors.total",
		metric.WithDescription("Total number of failed session refresh attempts"),
		metric.WithUnit("{error}"),
	)

	m.RefreshJoinedTotal, _ = meter.Int64Counter(
		"sessionkit.refresh.joined.total",
		metric.WithDescription("Total number of callers that joined an in-flight refresh"),
		metric.WithUnit("{caller}"),
	)

	m.RefreshDuration, _ = meter.Float64Histogram(
		"sessionkit.refresh.duration",
		metric.WithDescription("Duration of session refresh calls"),
		metric.WithUnit("ms"),
	)

	m.SessionLoadsTotal, _ = meter.Int64Counter(
		"sessionkit.storage.loads.total",
		metric.WithDescription("Total number of session loads from storage"),
		metric.WithUnit("{load}"),
	)

	m.SessionSavesTotal, _ = meter.Int64Counter(
		"sessionkit.storage.saves.total",
		metric.WithDescription("Total number of session saves to storage"),
		metric.WithUnit("{save}"),
	)

	m.StorageErrorsTotal, _ = meter.Int64Counter(
		"sessionkit.storage.errors.total",
		metric.WithDescription("Total number of storage operation errors"),
		metric.WithUnit("{error}"),
	)

	return m
}
