package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/metrics"
)

// Metrics records request count, latency and in-flight requests.
//
// The path label is chi's matched route pattern ("/item/{id}"), read after
// the handler ran, when routing has filled it in. Requests that matched no
// route are grouped under "unmatched" so random URLs can't blow up the
// number of time series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.InFlightInc()
		defer metrics.InFlightDec()

		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(
			r.Method,
			routePattern(r),
			strconv.Itoa(wrapped.statusCode),
			time.Since(start).Seconds(),
		)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
