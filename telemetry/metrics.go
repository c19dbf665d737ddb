package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the negotiation counters. Constructed once and passed in
// explicitly; nothing registers against a package-global registry.
type Metrics struct {
	Exchanges       *prometheus.CounterVec
	Deals           prometheus.Counter
	BackendFailures prometheus.Counter
	BackendLatency  prometheus.Histogram
}

// NewMetrics registers the negotiation metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Exchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tawarin_exchanges_total",
			Help: "Completed negotiation exchanges by decision.",
		}, []string{"decision"}),
		Deals: factory.NewCounter(prometheus.CounterOpts{
			Name: "tawarin_deals_total",
			Help: "Agreements recorded.",
		}),
		BackendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tawarin_backend_failures_total",
			Help: "Generation backend errors and timeouts.",
		}),
		BackendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tawarin_backend_latency_seconds",
			Help:    "Generation backend call latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
