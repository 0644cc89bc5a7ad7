package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuditEntriesTotal counts audit entries written, by action.
	AuditEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries recorded",
		},
		[]string{"action"},
	)

	// AuditWriteFailuresTotal counts audit entries that passed validation but
	// could not be stored.
	AuditWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Total number of audit entries the store rejected",
		},
	)

	// PanicsTotal counts handler panics turned into 500s.
	PanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Total number of handler panics recovered",
		},
	)

	// AuditExportedTotal counts entries copied to the audit archive.
	AuditExportedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_export_entries_total",
			Help: "Total number of audit entries written to the archive",
		},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/([0-9]+|[0-9a-fA-F]{24})(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuditEntriesTotal, AuditWriteFailuresTotal, AuditExportedTotal, PanicsTotal)
	})
}

// NormalizePath reduces cardinality by replacing numeric and object-id path segments with {id}.
// E.g. /subjects/65f1c0ffee0ddba11ad5eed1 -> /subjects/{id}.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncAuditEntries(action string) {
	AuditEntriesTotal.WithLabelValues(action).Inc()
}

func IncAuditWriteFailures() {
	AuditWriteFailuresTotal.Inc()
}

func AddAuditExported(n int) {
	AuditExportedTotal.Add(float64(n))
}

func IncPanics() {
	PanicsTotal.Inc()
}
