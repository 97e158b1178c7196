package metrics

import "github.com/prometheus/client_golang/prometheus"

// CalculatorMetrics counts calculator invocations and rejected inputs.
type CalculatorMetrics struct {
	runs     *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func NewCalculatorMetrics(reg prometheus.Registerer) *CalculatorMetrics {
	if reg == nil {
		return &CalculatorMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_runs_total",
		Help: "Calculator invocations by calculator name.",
	}, []string{"calculator"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calculator_rejected_total",
		Help: "Calculator invocations rejected for out-of-range input.",
	}, []string{"calculator"})
	reg.MustRegister(runs, rejected)
	return &CalculatorMetrics{runs: runs, rejected: rejected}
}

// Observe records a run and, when err is non-nil, a rejection.
func (m *CalculatorMetrics) Observe(calculator string, err error) {
	if m == nil || m.runs == nil {
		return
	}
	label := normalizeLabel(calculator)
	m.runs.WithLabelValues(label).Inc()
	if err != nil {
		m.rejected.WithLabelValues(label).Inc()
	}
}
