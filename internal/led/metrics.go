package led

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doorlight",
		Subsystem: "indicator",
		Name:      "pushes_total",
		Help:      "Actions pushed onto indicator queues",
	}, []string{"action"})

	overflowEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "doorlight",
		Subsystem: "indicator",
		Name:      "overflow_evictions_total",
		Help:      "Pending actions evicted by a push into a full queue",
	})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doorlight",
		Subsystem: "indicator",
		Name:      "dropped_total",
		Help:      "Queued actions dropped by the engine",
	}, []string{"reason"})

	exhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "doorlight",
		Subsystem: "indicator",
		Name:      "exhausted_total",
		Help:      "Blink actions that ran out of repeats",
	})

	writesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "doorlight",
		Subsystem: "indicator",
		Name:      "writes_total",
		Help:      "Output level writes",
	})

	writeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "doorlight",
		Subsystem: "indicator",
		Name:      "write_errors_total",
		Help:      "Output level writes rejected by the pin driver",
	})

	loopsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "doorlight",
		Subsystem: "indicator",
		Name:      "loops",
		Help:      "Scheduler loops currently running",
	})
)
