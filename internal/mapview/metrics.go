package mapview

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var markerOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "travelmap",
		Subsystem: "map",
		Name:      "marker_ops_total",
		Help:      "Renderer operations applied, by op and result.",
	},
	[]string{"op", "result"},
)
