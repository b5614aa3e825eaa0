// Package metrics holds the Prometheus instruments for the pipeline. A nil
// *Set is valid and records nothing, so instrumentation stays optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Set struct {
	compileTotal   *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	decideLatency  prometheus.Histogram
	statusOutcomes *prometheus.CounterVec
}

// New registers the instrument set on reg (use prometheus.DefaultRegisterer
// in production, a fresh registry in tests).
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		compileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadpilot_compile_total",
			Help: "Rule compilations by result code (ok or error code).",
		}, []string{"result"}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadpilot_decisions_total",
			Help: "Decisions by final action and fallback flag.",
		}, []string{"action", "fallback"}),
		decideLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadpilot_decide_latency_seconds",
			Help:    "End-to-end decide() latency including the oracle call.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		statusOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadpilot_status_recommendations_total",
			Help: "Status recommendation outcomes by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(s.compileTotal, s.decisionsTotal, s.decideLatency, s.statusOutcomes)
	return s
}

func (s *Set) ObserveCompile(result string) {
	if s == nil {
		return
	}
	s.compileTotal.WithLabelValues(result).Inc()
}

func (s *Set) ObserveDecision(action string, fallback bool, latency time.Duration) {
	if s == nil {
		return
	}
	fb := "false"
	if fallback {
		fb = "true"
	}
	s.decisionsTotal.WithLabelValues(action, fb).Inc()
	s.decideLatency.Observe(latency.Seconds())
}

func (s *Set) ObserveStatusOutcome(reason string) {
	if s == nil {
		return
	}
	s.statusOutcomes.WithLabelValues(reason).Inc()
}
