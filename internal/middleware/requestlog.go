package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

const logUserKey key = "log_user"

// logUser is filled in by JWTMiddleware further down the chain.
type logUser struct {
	id string
}

// withLogUser returns r carrying a caller holder, reusing one installed by an
// outer middleware so Recoverer and RequestLog see the same caller.
func withLogUser(r *http.Request) (*http.Request, *logUser) {
	if u, ok := r.Context().Value(logUserKey).(*logUser); ok {
		return r, u
	}
	u := &logUser{}
	return r.WithContext(context.WithValue(r.Context(), logUserKey, u)), u
}

// noteUser records the caller for the enclosing RequestLog line, if any.
func noteUser(ctx context.Context, id string) {
	if u, ok := ctx.Value(logUserKey).(*logUser); ok {
		u.id = id
	}
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// RequestLog logs each request with request_id, method, path, status, duration, size
// and, when authenticated, user_id.
// Use after RequestID middleware so the ID is available. Uses slog for structured logging.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		r, user := withLogUser(r)
		next.ServeHTTP(wrap, r)
		dur := time.Since(start)
		attrs := []any{
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrap.status,
			"duration_ms", dur.Milliseconds(),
			"size", wrap.size,
		}
		if user.id != "" {
			attrs = append(attrs, "user_id", user.id)
		}
		level := slog.LevelInfo
		if wrap.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "request", attrs...)
	})
}
