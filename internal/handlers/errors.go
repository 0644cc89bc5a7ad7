package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/timetable-api/internal/accounts"
	"github.com/crucial707/timetable-api/internal/catalog"
	"github.com/crucial707/timetable-api/internal/models"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	json.NewEncoder(w).Encode(out)
}

// WriteError maps service errors to status codes. A validation error made only
// of unique violations is a conflict; any other validation error is a bad
// request. Unknown errors are logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.Only(models.RuleUnique) {
			status = http.StatusConflict
		}
		JSONValidationError(w, verr.Error(), verr.Fields(), status)
	case errors.Is(err, models.ErrNotFound):
		JSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrInUse):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, accounts.ErrInvalidCredentials):
		JSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, accounts.ErrInactive):
		JSONError(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &maxErr):
		JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
	default:
		slog.Error("request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
