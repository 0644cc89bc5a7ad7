package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/timetable-api/internal/metrics"
)

// Recoverer answers a panic with a JSON 500 unless the handler already started
// the response. The log line carries the request id and, once JWTMiddleware
// has run, the caller's user id. http.ErrAbortHandler is re-raised so the
// server drops the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, user := withLogUser(r)
		tw := &startedWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			metrics.IncPanics()
			attrs := []any{
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"panic", rec,
			}
			if user.id != "" {
				attrs = append(attrs, "user_id", user.id)
			}
			slog.Error("panic recovered", append(attrs, "stack", string(debug.Stack()))...)
			if !tw.started {
				writeError(tw, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(tw, r)
	})
}

// startedWriter notes whether a status line has gone out.
type startedWriter struct {
	http.ResponseWriter
	started bool
}

func (w *startedWriter) WriteHeader(code int) {
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *startedWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}
