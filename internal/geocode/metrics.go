package geocode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelmap",
			Subsystem: "geocode",
			Name:      "requests_total",
			Help:      "Geocode resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "travelmap",
			Subsystem: "geocode",
			Name:      "breaker_open",
			Help:      "1 while the geocoder circuit breaker is open.",
		},
	)
)
