package ai

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records upstream call latency and outcomes.
type Metrics struct {
	callDuration *prometheus.HistogramVec
	callResults  *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns collectors registered once with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg, reusing existing ones.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	callDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solo_persona",
			Subsystem: "gemini",
			Name:      "call_duration_seconds",
			Help:      "Latency of generative-language calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
		[]string{"kind", "model"},
	)
	callResults := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solo_persona",
			Subsystem: "gemini",
			Name:      "calls_total",
			Help:      "Generative-language calls by outcome.",
		},
		[]string{"kind", "outcome"},
	)

	if err := reg.Register(callDuration); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		callDuration = already.ExistingCollector.(*prometheus.HistogramVec)
	}
	if err := reg.Register(callResults); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		callResults = already.ExistingCollector.(*prometheus.CounterVec)
	}

	return &Metrics{callDuration: callDuration, callResults: callResults}
}

func (m *Metrics) observe(kind, model string, seconds float64, outcome string) {
	if m == nil {
		return
	}
	m.callDuration.WithLabelValues(kind, model).Observe(seconds)
	m.callResults.WithLabelValues(kind, outcome).Inc()
}
