package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Provenance identifies where a request came from.
type Provenance struct {
	IPAddress string
	UserAgent string
}

type provenanceKey struct{}

// WithProvenance stores p on ctx for later Record calls.
func WithProvenance(ctx context.Context, p Provenance) context.Context {
	return context.WithValue(ctx, provenanceKey{}, p)
}

// ProvenanceFrom returns the provenance stored on ctx, if any.
func ProvenanceFrom(ctx context.Context) (Provenance, bool) {
	p, ok := ctx.Value(provenanceKey{}).(Provenance)
	return p, ok
}

// RequestProvenance extracts the client address and user agent from r.
// X-Forwarded-For and X-Real-IP win over RemoteAddr.
func RequestProvenance(r *http.Request) Provenance {
	return Provenance{IPAddress: ClientIP(r), UserAgent: r.UserAgent()}
}

// ClientIP returns the originating client address for r without a port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
