// Package metrics exposes msaada's Prometheus counters and histograms,
// grounded in the teacher's own promauto usage (cache.go) but measuring
// msaada's request pipeline instead of a redirect cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "msaada_requests_total",
			Help: "Number of HTTP requests handled, by method and status.",
		},
		[]string{"method", "status"},
	)
	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "msaada_request_duration_milliseconds",
			Help: "Request latency in milliseconds.",
		},
	)
	selfTestInvocations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "msaada_self_test_invocations_total",
			Help: "Number of times the self-test endpoint has been invoked.",
		},
	)
	portSwitches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "msaada_port_switches_total",
			Help: "Number of times the server switched away from the requested port.",
		},
	)
)

// RecordRequest records one completed request's method, status, and
// latency in milliseconds.
func RecordRequest(method, status string, elapsedMillis float64) {
	requestsTotal.With(prometheus.Labels{"method": method, "status": status}).Inc()
	requestDuration.Observe(elapsedMillis)
}

// RecordSelfTest records one self-test endpoint invocation.
func RecordSelfTest() {
	selfTestInvocations.Inc()
}

// RecordPortSwitch records one auto-switch away from the requested port.
func RecordPortSwitch() {
	portSwitches.Inc()
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
