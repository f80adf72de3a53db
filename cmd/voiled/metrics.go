// metrics.go - Prometheus metrics for the voiled verifier daemon.
package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "voiled"

// Metrics holds the daemon's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	ProofsVerified   prometheus.Counter
	ProofsRejected   *prometheus.CounterVec
	ProofsSpent      prometheus.Counter
	VerifyDuration   prometheus.Histogram
	NullifierSetSize prometheus.GaugeFunc
	RateLimited      prometheus.Counter
}

// NewMetrics creates and registers the daemon metrics. nullifierCount feeds
// the set-size gauge on scrape.
func NewMetrics(nullifierCount func() float64) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ProofsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proofs_verified_total",
			Help:      "Number of exit proofs that passed verification.",
		}),
		ProofsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proofs_rejected_total",
			Help:      "Number of exit proofs rejected, by reason.",
		}, []string{"reason"}),
		ProofsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proofs_spent_total",
			Help:      "Number of exit proofs spent (nullifier marked used).",
		}),
		VerifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "verify_duration_seconds",
			Help:      "Time spent verifying a single exit proof.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
		NullifierSetSize: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "nullifier_set_size",
			Help:      "Number of used nullifiers tracked by this verifier.",
		}, nullifierCount),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_rate_limited_total",
			Help:      "Number of requests dropped by the rate limiter.",
		}),
	}

	registry.MustRegister(
		m.ProofsVerified,
		m.ProofsRejected,
		m.ProofsSpent,
		m.VerifyDuration,
		m.NullifierSetSize,
		m.RateLimited,
	)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
