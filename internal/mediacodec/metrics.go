package mediacodec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var filesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "travelmap",
		Subsystem: "media",
		Name:      "files_total",
		Help:      "Media files processed by the codec, by kind and result.",
	},
	[]string{"kind", "result"},
)
