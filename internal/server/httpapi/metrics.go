package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors recorded by the HTTP API.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthFailures    *prometheus.CounterVec
	Logins          *prometheus.CounterVec
}

// NewMetrics creates the API metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appli_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "appli_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appli_auth_failures_total",
				Help: "Requests rejected by authentication or authorization, by reason",
			},
			[]string{"reason"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appli_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.AuthFailures, m.Logins)

	return m
}
