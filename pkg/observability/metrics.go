package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors.
type Metrics struct {
	GenerationRequests *prometheus.CounterVec
	GenerationLatency  *prometheus.HistogramVec
	FallbackResponses  *prometheus.CounterVec
	SettingsWrites     *prometheus.CounterVec
	SignIns            *prometheus.CounterVec
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide collectors, registering them on first use.
func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			GenerationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "companion_chat",
				Name:      "generation_requests_total",
				Help:      "Generator calls by flow and outcome",
			}, []string{"flow", "outcome"}),
			GenerationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "companion_chat",
				Name:      "generation_duration_seconds",
				Help:      "Generator call latency by flow",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
			}, []string{"flow"}),
			FallbackResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "companion_chat",
				Name:      "fallback_responses_total",
				Help:      "Canned responses served instead of model output",
			}, []string{"flow", "language"}),
			SettingsWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "companion_chat",
				Name:      "settings_writes_total",
				Help:      "Settings saves by outcome",
			}, []string{"outcome"}),
			SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "companion_chat",
				Name:      "sign_ins_total",
				Help:      "Completed sign-ins by method",
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			global.GenerationRequests,
			global.GenerationLatency,
			global.FallbackResponses,
			global.SettingsWrites,
			global.SignIns,
		)
	})
	return global
}
