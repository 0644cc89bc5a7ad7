package middleware

import (
	"fmt"
	"net/http"
)

// DefaultMaxBodyBytes is used when MAX_BODY_BYTES is unset or not positive.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes caps the bodies of POST, PUT and PATCH requests. A declared
// Content-Length over the cap is refused with 413 before the handler runs.
// Chunked bodies are wrapped in http.MaxBytesReader, and handlers map the
// resulting *http.MaxBytesError to 413 while decoding.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	tooLarge := fmt.Sprintf("request body exceeds %d bytes", maxBytes)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !carriesBody(r.Method) || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeError(w, tooLarge, http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
