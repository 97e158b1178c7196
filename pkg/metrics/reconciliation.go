package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records import, preview and apply activity.
type ReconciliationMetrics struct {
	rows          *prometheus.CounterVec
	applyDuration prometheus.Histogram
	applyOutcome  *prometheus.CounterVec
	rowFailures   prometheus.Counter
}

// NewReconciliationMetrics registers the reconciliation metrics on reg.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_rows_total",
		Help: "Imported sales rows by match classification.",
	}, []string{"status"})
	applyDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconciliation_apply_duration_seconds",
		Help:    "Duration of reconciliation apply runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	applyOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_apply_total",
		Help: "Reconciliation apply runs by outcome.",
	}, []string{"outcome"})
	rowFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_row_failures_total",
		Help: "Approved rows that failed to persist during apply.",
	})
	reg.MustRegister(rows, applyDuration, applyOutcome, rowFailures)
	return &ReconciliationMetrics{
		rows:          rows,
		applyDuration: applyDuration,
		applyOutcome:  applyOutcome,
		rowFailures:   rowFailures,
	}
}

// ObserveRows adds classified row counts, keyed by status.
func (m *ReconciliationMetrics) ObserveRows(counts map[string]int) {
	if m == nil || m.rows == nil {
		return
	}
	for status, n := range counts {
		if n <= 0 {
			continue
		}
		m.rows.WithLabelValues(normalizeLabel(status)).Add(float64(n))
	}
}

// ObserveApply records one apply run.
func (m *ReconciliationMetrics) ObserveApply(outcome string, duration time.Duration, failedRows int) {
	if m == nil || m.applyOutcome == nil {
		return
	}
	m.applyDuration.Observe(duration.Seconds())
	m.applyOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
	if failedRows > 0 {
		m.rowFailures.Add(float64(failedRows))
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
