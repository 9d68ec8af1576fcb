package keypool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	selectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keypool_selections_total",
			Help: "Total number of credential selections",
		},
		[]string{"service"},
	)

	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keypool_attempts_total",
			Help: "Total operation attempts by outcome",
		},
		[]string{"service", "outcome"},
	)

	quarantinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keypool_quarantines_total",
			Help: "Total credential quarantine events",
		},
		[]string{"service"},
	)

	operationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keypool_operation_latency_seconds",
			Help:    "Wrapped operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	quarantinedKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keypool_quarantined_keys",
			Help: "Credentials currently quarantined per service",
		},
		[]string{"service"},
	)

	availableKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keypool_available_keys",
			Help: "Credentials currently eligible for selection per service",
		},
		[]string{"service"},
	)
)

// PublishGauges pushes a snapshot's counts to the per-service gauges.
// Called periodically by the control loop.
func PublishGauges(service string, snap Snapshot) {
	quarantinedKeys.WithLabelValues(service).Set(float64(snap.Quarantined))
	availableKeys.WithLabelValues(service).Set(float64(snap.Available))
}
