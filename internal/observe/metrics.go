// Package observe provides application-wide observability primitives for
// echoscribe: OpenTelemetry metrics, tracing, structured logging, and HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
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

// meterName is the instrumentation scope name used for all echoscribe metrics.
const meterName = "github.com/hvngan/echoscribe"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Distributions per attempt ---

	// AttemptAccuracy tracks the accuracy of every scored attempt (0-100).
	AttemptAccuracy metric.Float64Histogram

	// AttemptTypingSpeed tracks the typing speed of every attempt in WPM.
	AttemptTypingSpeed metric.Float64Histogram

	// AttemptDuration tracks how long each attempt took.
	AttemptDuration metric.Float64Histogram

	// --- Counters ---

	// AttemptsRecorded counts scored attempts. Use with attribute:
	//   attribute.Bool("completed", ...)
	AttemptsRecorded metric.Int64Counter

	// SegmentsCompleted counts segments that reached the completion threshold
	// for the first time.
	SegmentsCompleted metric.Int64Counter

	// SessionsCreated counts newly created practice sessions.
	SessionsCreated metric.Int64Counter

	// StoreErrors counts failed persistence operations. Use with attribute:
	//   attribute.String("key", ...)
	StoreErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of currently loaded sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// accuracyBuckets defines histogram bucket boundaries for the 0-100
// accuracy scale.
var accuracyBuckets = []float64{
	10, 25, 50, 70, 80, 90, 95, 99, 100,
}

// durationBuckets defines histogram bucket boundaries (in seconds) for
// per-attempt transcription times.
var durationBuckets = []float64{
	5, 10, 20, 30, 45, 60, 90, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.AttemptAccuracy, err = m.Float64Histogram("echoscribe.attempt.accuracy",
		metric.WithDescription("Accuracy of scored attempts."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(accuracyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AttemptTypingSpeed, err = m.Float64Histogram("echoscribe.attempt.typing_speed",
		metric.WithDescription("Typing speed of attempts in words per minute."),
	); err != nil {
		return nil, err
	}
	if met.AttemptDuration, err = m.Float64Histogram("echoscribe.attempt.duration",
		metric.WithDescription("Time taken per attempt."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.AttemptsRecorded, err = m.Int64Counter("echoscribe.attempts.recorded",
		metric.WithDescription("Total scored attempts by completion outcome."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsCompleted, err = m.Int64Counter("echoscribe.segments.completed",
		metric.WithDescription("Segments that reached the completion threshold for the first time."),
	); err != nil {
		return nil, err
	}
	if met.SessionsCreated, err = m.Int64Counter("echoscribe.sessions.created",
		metric.WithDescription("Total practice sessions created."),
	); err != nil {
		return nil, err
	}
	if met.StoreErrors, err = m.Int64Counter("echoscribe.store.errors",
		metric.WithDescription("Failed persistence operations by document key."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("echoscribe.active_sessions",
		metric.WithDescription("Number of currently loaded practice sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("echoscribe.http.request.duration",
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAttempt records the per-attempt distributions and the attempts
// counter in one call.
func (m *Metrics) RecordAttempt(ctx context.Context, accuracy, typingSpeed, timeTaken float64, completed bool) {
	m.AttemptAccuracy.Record(ctx, accuracy)
	m.AttemptTypingSpeed.Record(ctx, typingSpeed)
	m.AttemptDuration.Record(ctx, timeTaken)
	m.AttemptsRecorded.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("completed", completed)),
	)
}

// RecordSegmentCompleted increments the completed-segments counter.
func (m *Metrics) RecordSegmentCompleted(ctx context.Context) {
	m.SegmentsCompleted.Add(ctx, 1)
}

// RecordSessionCreated increments the sessions counter and the active
// session gauge.
func (m *Metrics) RecordSessionCreated(ctx context.Context) {
	m.SessionsCreated.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
}

// RecordStoreError increments the persistence error counter for key.
func (m *Metrics) RecordStoreError(ctx context.Context, key string) {
	m.StoreErrors.Add(ctx, 1,
		metric.WithAttributes(Attr("key", key)),
	)
}
