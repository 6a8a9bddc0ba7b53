package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics of the backend
type Registry struct {
	registry *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Session & counter metrics
	CounterIncrementsTotal prometheus.Counter
	RateLimitedTotal       prometheus.Counter
	SessionsStartedTotal   prometheus.Counter
	SessionsCleanedTotal   prometheus.Counter
	SessionsActive         prometheus.Gauge
}

// NewRegistry creates a private registry with Go/process collectors and all metrics
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dgtt_http_requests_total",
				Help: "Total HTTP requests processed by route, method, and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dgtt_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		HTTPRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dgtt_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"route"},
		),

		CounterIncrementsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dgtt_counter_increments_total",
			Help: "Total counter button clicks across all sessions",
		}),
		RateLimitedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dgtt_counter_rate_limited_total",
			Help: "Counter increments rejected by the per-session rate limit",
		}),
		SessionsStartedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dgtt_sessions_started_total",
			Help: "Total sessions started",
		}),
		SessionsCleanedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dgtt_sessions_cleaned_total",
			Help: "Total expired sessions removed by the cleanup job",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "dgtt_sessions_active",
			Help: "Sessions still within their lifetime after the last cleanup sweep",
		}),
	}
}

// Handler returns the /metrics HTTP handler
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
