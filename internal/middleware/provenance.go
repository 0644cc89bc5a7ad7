package middleware

import (
	"net/http"

	"github.com/crucial707/timetable-api/internal/audit"
)

// Provenance stores the client IP and user agent in the request context so
// audit entries written while serving the request carry them.
func Provenance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithProvenance(r.Context(), audit.RequestProvenance(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
