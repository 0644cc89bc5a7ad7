package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/middleware"
	"github.com/crucial707/timetable-api/internal/models"
)

// Pagination bounds for list endpoints.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is the envelope of every list response.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the body into v and answers the request itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		JSONError(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// parsePage reads limit and offset. Missing or invalid values fall back to the
// defaults and limit is capped at MaxLimit.
func parsePage(r *http.Request) (limit, offset int) {
	limit = DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = min(val, MaxLimit)
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}
	return limit, offset
}

// pathID parses the {id} URL parameter. A malformed id cannot match any
// document, so it is answered with 404.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "not found", http.StatusNotFound)
		return primitive.NilObjectID, false
	}
	return id, true
}

// actor returns the authenticated caller.
func actor(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	return id, true
}

// queryParams collects filter parse failures as one ValidationError.
type queryParams struct {
	r    *http.Request
	verr *models.ValidationError
}

func newQueryParams(r *http.Request, entity string) *queryParams {
	return &queryParams{r: r, verr: &models.ValidationError{Entity: entity}}
}

func (q *queryParams) fail(field, rule, msg string) {
	q.verr.Violations = append(q.verr.Violations, models.Violation{Field: field, Rule: rule, Message: msg})
}

func (q *queryParams) objectID(name string) *primitive.ObjectID {
	v := q.r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		q.fail(name, models.RuleFormat, name+" must be a 24-character hex id")
		return nil
	}
	return &id
}

func (q *queryParams) int(name string) int {
	v := q.r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.fail(name, models.RuleFormat, name+" must be an integer")
		return 0
	}
	return n
}

func (q *queryParams) bool(name string) *bool {
	v := q.r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.fail(name, models.RuleFormat, name+" must be true or false")
		return nil
	}
	return &b
}

func (q *queryParams) time(name string) time.Time {
	v := q.r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		q.fail(name, models.RuleFormat, name+" must be an RFC 3339 timestamp")
		return time.Time{}
	}
	return t
}

func (q *queryParams) string(name string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(name))
}

// err returns the collected failures, or nil.
func (q *queryParams) err() error {
	if len(q.verr.Violations) == 0 {
		return nil
	}
	return q.verr
}
