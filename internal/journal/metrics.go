package journal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	memoriesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "travelmap",
			Subsystem: "journal",
			Name:      "memories",
			Help:      "Memories currently held by the journal.",
		},
	)

	persistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "travelmap",
			Subsystem: "journal",
			Name:      "persist_failures_total",
			Help:      "Writes to the durable slot that failed.",
		},
	)

	droppedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "travelmap",
			Subsystem: "journal",
			Name:      "load_dropped_records_total",
			Help:      "Stored records left out of the journal at load because they were unusable.",
		},
	)
)
