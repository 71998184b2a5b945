// Package metrics provides Prometheus instrumentation for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestLatency tracks end-to-end request latency in seconds.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_latency_seconds",
			Help:    "End-to-end HTTP request latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route"},
	)

	// RequestsTotal tracks total HTTP requests by route and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	// ActiveRequests tracks the number of currently in-flight requests.
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_active_requests",
			Help: "Number of currently in-flight HTTP requests.",
		},
	)

	// ProviderRequestsTotal tracks outbound AI provider calls by outcome.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_provider_requests_total",
			Help: "Total number of outbound AI provider calls by status.",
		},
		[]string{"provider", "status"}, // status: "success" or "error"
	)

	// OAuthExchangesTotal tracks authorization-code exchanges by platform.
	OAuthExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_oauth_exchanges_total",
			Help: "Total number of OAuth2 code exchanges by platform and status.",
		},
		[]string{"platform", "status"},
	)
)

// RecordProviderCall records the outcome of one outbound provider call.
func RecordProviderCall(provider string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
}
