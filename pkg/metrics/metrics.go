// Package metrics exposes the Prometheus collectors for the proxy
// engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for RequestsTotal.
const (
	OutcomeMocked      = "mocked"
	OutcomePassthrough = "passthrough"
	OutcomeBlocked     = "blocked"
	OutcomeError       = "error"
)

// Prometheus metrics
var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intercept_requests_total",
			Help: "Total number of intercepted requests by verb and outcome",
		},
		[]string{"verb", "outcome"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intercept_request_duration_seconds",
			Help:    "Time spent answering intercepted requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)
	RoutesRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "intercept_routes_registered",
			Help: "Number of handler registrations on the engine",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Repeated
// calls are no-ops so tests can assemble more than one server.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(RoutesRegistered)
	})
}

// Handler returns the HTTP handler that serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
