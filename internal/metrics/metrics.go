// Package metrics holds the Prometheus collectors for the blog.
//
// All collectors are registered on the default registry through promauto,
// so promhttp.Handler() at /metrics exposes them without further wiring.
// Callers use the Record* helpers rather than touching collectors directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// HTTP request metrics. path is the chi route pattern ("/item/{id}"),
	// never the raw URL, to keep label cardinality bounded.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blog_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// Business metrics
	articleOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_article_operations_total",
			Help: "Article mutations by operation and outcome",
		},
		[]string{"op", "result"}, // op: create | update | delete
	)

	signupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_signups_total",
			Help: "Account registrations by outcome",
		},
		[]string{"result"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"},
	)

	forbiddenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_forbidden_attempts_total",
			Help: "Attempts to change an article the caller does not own",
		},
		[]string{"op"},
	)

	sessionsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blog_sessions_purged_total",
			Help: "Expired session rows removed",
		},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// InFlightInc marks a request as started.
func InFlightInc() { httpRequestsInFlight.Inc() }

// InFlightDec marks a request as finished.
func InFlightDec() { httpRequestsInFlight.Dec() }

// RecordArticleOp records the outcome of an article create, update or delete.
func RecordArticleOp(op, result string) {
	articleOpsTotal.WithLabelValues(op, result).Inc()
}

// RecordSignup records the outcome of a registration.
func RecordSignup(result string) {
	signupsTotal.WithLabelValues(result).Inc()
}

// RecordLogin records the outcome of a credential check.
func RecordLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// RecordForbidden records a refused update or delete.
func RecordForbidden(op string) {
	forbiddenTotal.WithLabelValues(op).Inc()
}

// RecordSessionsPurged adds n to the purged-sessions counter.
func RecordSessionsPurged(n int64) {
	if n > 0 {
		sessionsPurged.Add(float64(n))
	}
}
