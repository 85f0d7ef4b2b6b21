package handlers

import "github.com/prometheus/client_golang/prometheus"

var (
	httpHandle = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "optconsole",
		Subsystem: "dashboard",
		Name:      "http_handled_seconds",
		Help:      "Handled HTTP request latency",
	}, []string{"path"})

	streamViewers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "optconsole",
		Subsystem: "dashboard",
		Name:      "stream_viewers",
		Help:      "Connected websocket viewers",
	})
)

func init() {
	prometheus.MustRegister(httpHandle, streamViewers)
}
