// Package observe provides application-wide observability primitives for
// paniwala: OpenTelemetry metrics, tracing, structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all paniwala metrics.
const meterName = "github.com/hbashir/paniwala"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// CommandDuration tracks the time from a voice session's first
	// transcript to command finalization.
	CommandDuration metric.Float64Histogram

	// CommandsFinalized counts finalized voice commands. Use with
	// attributes: attribute.String("mode", ...), attribute.String("status", ...)
	CommandsFinalized metric.Int64Counter

	// CommandsAborted counts commands abandoned without the mandatory
	// slots. Use with attribute: attribute.String("reason", ...)
	CommandsAborted metric.Int64Counter

	// EntityMisses counts failed entity resolutions. Use with attribute:
	//   attribute.String("kind", "customer"|"product")
	EntityMisses metric.Int64Counter

	// TransactionsPosted counts ledger writes. Use with attributes:
	//   attribute.String("type", ...), attribute.String("method", ...)
	TransactionsPosted metric.Int64Counter

	// ActiveSessions tracks the number of live voice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Voice
// commands settle on debounce windows of a few seconds, so the upper
// buckets are wider than typical HTTP latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CommandDuration, err = m.Float64Histogram("paniwala.command.duration",
		metric.WithDescription("Time from first transcript to command finalization."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CommandsFinalized, err = m.Int64Counter("paniwala.commands.finalized",
		metric.WithDescription("Total finalized voice commands by mode and status."),
	); err != nil {
		return nil, err
	}
	if met.CommandsAborted, err = m.Int64Counter("paniwala.commands.aborted",
		metric.WithDescription("Total abandoned voice commands by reason."),
	); err != nil {
		return nil, err
	}
	if met.EntityMisses, err = m.Int64Counter("paniwala.entity.misses",
		metric.WithDescription("Total failed customer/product resolutions by kind."),
	); err != nil {
		return nil, err
	}
	if met.TransactionsPosted, err = m.Int64Counter("paniwala.transactions.posted",
		metric.WithDescription("Total ledger transactions by type and payment method."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("paniwala.active_sessions",
		metric.WithDescription("Number of live voice sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("paniwala.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordCommand records one finalized or failed voice command with its
// latency.
func (m *Metrics) RecordCommand(ctx context.Context, mode, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	)
	m.CommandsFinalized.Add(ctx, 1, attrs)
	m.CommandDuration.Record(ctx, seconds, attrs)
}

// RecordAbort records one abandoned voice command.
func (m *Metrics) RecordAbort(ctx context.Context, reason string) {
	m.CommandsAborted.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordEntityMiss records one failed customer or product resolution.
func (m *Metrics) RecordEntityMiss(ctx context.Context, kind string) {
	m.EntityMisses.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordTransaction records one posted ledger transaction.
func (m *Metrics) RecordTransaction(ctx context.Context, txType, method string) {
	m.TransactionsPosted.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", txType),
			attribute.String("method", method),
		),
	)
}
