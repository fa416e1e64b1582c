// Package ratingmetrics instruments the rating module.
package ratingmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RatingMetrics records the rating module's operational signals.
type RatingMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, d time.Duration)
	RecordRoundSkipped(ctx context.Context, reason string)
	RecordDegradedDefault(ctx context.Context)
	RecordLedgerAppend(ctx context.Context)
	RecordLedgerTrim(ctx context.Context, removed int)
}

type prometheusMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	skipped   *prometheus.CounterVec
	degraded  prometheus.Counter
	appends   prometheus.Counter
	trimmed   prometheus.Counter
}

// NewPrometheusMetrics registers the rating collectors on the given registry.
func NewPrometheusMetrics(reg prometheus.Registerer) RatingMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_operation_attempts_total",
			Help: "Rating operations started, by operation.",
		}, []string{"operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_operation_success_total",
			Help: "Rating operations completed successfully, by operation.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_operation_failure_total",
			Help: "Rating operations failed, by operation.",
		}, []string{"operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rating_operation_duration_seconds",
			Help:    "Rating operation duration, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_rounds_skipped_total",
			Help: "Rounds excluded from rating processing, by reason.",
		}, []string{"reason"}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rating_degraded_default_total",
			Help: "As-of queries answered with the default rating because no history qualified.",
		}),
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rating_ledger_appends_total",
			Help: "Ledger entries appended.",
		}),
		trimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rating_ledger_trimmed_total",
			Help: "Ledger entries removed by retention cleanup.",
		}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.skipped, m.degraded, m.appends, m.trimmed)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, op string) {
	m.attempts.WithLabelValues(op).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, op string) {
	m.successes.WithLabelValues(op).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, op string) {
	m.failures.WithLabelValues(op).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, op string, d time.Duration) {
	m.durations.WithLabelValues(op).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordRoundSkipped(_ context.Context, reason string) {
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *prometheusMetrics) RecordDegradedDefault(_ context.Context) { m.degraded.Inc() }
func (m *prometheusMetrics) RecordLedgerAppend(_ context.Context)    { m.appends.Inc() }

func (m *prometheusMetrics) RecordLedgerTrim(_ context.Context, removed int) {
	m.trimmed.Add(float64(removed))
}

// NoOpMetrics satisfies RatingMetrics without recording anything. Used in tests.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string)                {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string)                {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string)                {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordRoundSkipped(context.Context, string)                    {}
func (NoOpMetrics) RecordDegradedDefault(context.Context)                         {}
func (NoOpMetrics) RecordLedgerAppend(context.Context)                            {}
func (NoOpMetrics) RecordLedgerTrim(context.Context, int)                         {}
