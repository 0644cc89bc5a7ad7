package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/timetable-api/internal/metrics"
)

// unmatchedRoute labels requests no route claimed, so scans of random paths
// cannot grow the label set.
const unmatchedRoute = "unmatched"

// Prometheus records duration and count per chi route pattern, such as
// /subjects/{id}. Scrapes of /metrics are not counted.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := routeLabel(r)
		if route == "/metrics" {
			return
		}
		metrics.RecordRequest(r.Method, route, sw.status, time.Since(start).Seconds())
	})
}

// routeLabel prefers the matched chi pattern. Outside a chi router the raw
// path is used and metrics.RecordRequest folds ids into {id}.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
