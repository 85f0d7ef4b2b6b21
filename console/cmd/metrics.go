package cmd

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luno/optconsole"
)

var (
	backendRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "optconsole",
		Subsystem: "backend",
		Name:      "requests_total",
	})

	backendUnavailable = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "optconsole",
		Subsystem: "backend",
		Name:      "unavailable_total",
	})

	backendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "optconsole",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
)

func init() {
	prometheus.MustRegister(
		backendRequests,
		backendUnavailable,
		backendLatency,
	)
}

func clientMetrics() optconsole.Metrics {
	return optconsole.Metrics{
		Requests:       backendRequests,
		Unavailable:    backendUnavailable,
		RequestLatency: backendLatency,
	}
}
