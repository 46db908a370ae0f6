package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagecapture",
		Name:      "screenshots_queued_total",
		Help:      "Screenshots taken and queued for transmission.",
	})
	metricSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagecapture",
		Name:      "screenshots_sent_total",
		Help:      "Screenshots delivered to the capture transport.",
	})
	metricFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagecapture",
		Name:      "screenshots_failed_total",
		Help:      "Screenshots that could not be taken, prepared or sent.",
	})
	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagecapture",
		Name:      "screenshots_dropped_total",
		Help:      "Screenshots dropped because the dispatch queue was full.",
	})
)
