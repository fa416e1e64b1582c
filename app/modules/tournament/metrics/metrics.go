// Package tournamentmetrics instruments the tournament module.
package tournamentmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TournamentMetrics records the tournament module's operational signals.
type TournamentMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, d time.Duration)
	RecordFinalization(ctx context.Context, outcome string)
	RecordRoundSkipped(ctx context.Context, reason string)
	RecordRankingExport(ctx context.Context)
}

type prometheusMetrics struct {
	attempts      *prometheus.CounterVec
	successes     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	finalizations *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	exports       prometheus.Counter
}

// NewPrometheusMetrics registers the tournament collectors on the given registry.
func NewPrometheusMetrics(reg prometheus.Registerer) TournamentMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tournament_operation_attempts_total",
			Help: "Tournament operations started, by operation.",
		}, []string{"operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tournament_operation_success_total",
			Help: "Tournament operations completed successfully, by operation.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tournament_operation_failure_total",
			Help: "Tournament operations failed, by operation.",
		}, []string{"operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tournament_operation_duration_seconds",
			Help:    "Tournament operation duration, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		finalizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tournament_finalizations_total",
			Help: "Finalization runs, by outcome.",
		}, []string{"outcome"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tournament_rounds_skipped_total",
			Help: "Rounds excluded from aggregation, by reason.",
		}, []string{"reason"}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tournament_ranking_exports_total",
			Help: "Ranking spreadsheets exported.",
		}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.finalizations, m.skipped, m.exports)
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

func (m *prometheusMetrics) RecordFinalization(_ context.Context, outcome string) {
	m.finalizations.WithLabelValues(outcome).Inc()
}

func (m *prometheusMetrics) RecordRoundSkipped(_ context.Context, reason string) {
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *prometheusMetrics) RecordRankingExport(_ context.Context) { m.exports.Inc() }

// NoOpMetrics satisfies TournamentMetrics without recording anything. Used in tests.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordFinalization(context.Context, string)                     {}
func (NoOpMetrics) RecordRoundSkipped(context.Context, string)                     {}
func (NoOpMetrics) RecordRankingExport(context.Context)                            {}
