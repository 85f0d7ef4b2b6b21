package ops

import "github.com/prometheus/client_golang/prometheus"

var (
	pollTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "optconsole",
		Subsystem: "poller",
		Name:      "ticks_total",
		Help:      "Status polls by message category",
	}, []string{"category"})

	pollerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "optconsole",
		Subsystem: "poller",
		Name:      "state",
		Help:      "Current poller state, 1 for the active state",
	}, []string{"state"})

	syncRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "optconsole",
		Subsystem: "sync",
		Name:      "refreshes_total",
		Help:      "Graph refreshes by outcome",
	}, []string{"result"})

	syncPatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "optconsole",
		Subsystem: "sync",
		Name:      "patches_total",
		Help:      "Element patches applied to the canvas",
	})

	resultRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "optconsole",
		Subsystem: "results",
		Name:      "refreshes_total",
		Help:      "Result refreshes by outcome",
	}, []string{"result"})

	commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "optconsole",
		Subsystem: "controller",
		Name:      "commands_total",
		Help:      "Job commands sent to the backend",
	}, []string{"command", "result"})
)

func init() {
	prometheus.MustRegister(pollTicks, pollerState, syncRefreshes, syncPatches, resultRefreshes, commands)
}
