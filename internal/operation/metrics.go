package operation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts executor activity. A nil *Metrics records nothing.
type Metrics struct {
	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	recovered *prometheus.CounterVec
}

// NewMetrics creates the executor counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "operations",
			Name:      "submitted_total",
			Help:      "Operation submissions by method and whether they inserted a new row.",
		}, []string{"method", "result"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "operations",
			Name:      "completed_total",
			Help:      "Operations that reached a terminal status.",
		}, []string{"method", "status"}),
		recovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "operations",
			Name:      "recovered_total",
			Help:      "In-progress operations re-driven by the recovery pass.",
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.submitted, m.completed, m.recovered)
	}
	return m
}

func (m *Metrics) observeSubmit(method string, inserted bool) {
	if m == nil {
		return
	}
	result := "duplicate"
	if inserted {
		result = "new"
	}
	m.submitted.WithLabelValues(method, result).Inc()
}

func (m *Metrics) observeComplete(method, status string) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(method, status).Inc()
}

func (m *Metrics) observeRecovered(method string) {
	if m == nil {
		return
	}
	m.recovered.WithLabelValues(method).Inc()
}
