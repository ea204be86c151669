// Package monitoring exposes Prometheus metrics for pollers, backend calls,
// the HTTP server and persisted wizard sessions.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// pollAttempts counts status checks per poller name.
	pollAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voc_poll_attempts_total",
			Help: "Status checks issued by job pollers.",
		},
		[]string{"poller"},
	)

	// pollOutcomes counts terminal poller results.
	pollOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voc_poll_outcomes_total",
			Help: "Terminal results of job pollers.",
		},
		[]string{"poller", "outcome"},
	)

	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voc_backend_requests_total",
			Help: "Requests sent to the analysis backend.",
		},
		[]string{"op", "status"},
	)

	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voc_http_requests_total",
			Help: "HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)

	// httpLat omits status to keep cardinality down.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voc_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Poll outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeStopped   = "stopped"
)

func init() {
	prometheus.MustRegister(pollAttempts, pollOutcomes, backendCalls, httpReqs, httpLat)
}

// RecordPollAttempt counts one status check.
func RecordPollAttempt(poller string) {
	pollAttempts.WithLabelValues(label(poller)).Inc()
}

// RecordPollOutcome counts one terminal poller result.
func RecordPollOutcome(poller, outcome string) {
	pollOutcomes.WithLabelValues(label(poller), outcome).Inc()
}

// RecordBackendCall counts one backend request. status is 0 for transport
// failures.
func RecordBackendCall(op string, status int) {
	backendCalls.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

func label(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpReqs.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpLat.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
