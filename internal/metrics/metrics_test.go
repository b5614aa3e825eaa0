package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"leadpilot/internal/metrics"
)

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := map[string]float64{}
	for _, mf := range mfs {
		var sum float64
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				sum += c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				sum += float64(h.GetSampleCount())
			}
		}
		out[mf.GetName()] = sum
	}
	return out
}

func TestSetRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := metrics.New(reg)

	s.ObserveCompile("ok")
	s.ObserveCompile("EmptyInput")
	s.ObserveDecision("ask_question", true, 120*time.Millisecond)
	s.ObserveStatusOutcome("applied")

	got := gatherNames(t, reg)
	if got["leadpilot_compile_total"] != 2 {
		t.Fatalf("compile counter = %v, want 2", got["leadpilot_compile_total"])
	}
	if got["leadpilot_decisions_total"] != 1 {
		t.Fatalf("decisions counter = %v, want 1", got["leadpilot_decisions_total"])
	}
	if got["leadpilot_decide_latency_seconds"] != 1 {
		t.Fatalf("latency histogram samples = %v, want 1", got["leadpilot_decide_latency_seconds"])
	}
	if got["leadpilot_status_recommendations_total"] != 1 {
		t.Fatalf("status outcomes counter = %v, want 1", got["leadpilot_status_recommendations_total"])
	}
}

func TestNilSetIsInert(t *testing.T) {
	var s *metrics.Set
	s.ObserveCompile("ok")
	s.ObserveDecision("ask_question", false, time.Second)
	s.ObserveStatusOutcome("applied")
}
