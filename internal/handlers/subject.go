package handlers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

// SubjectService is the catalog surface the subject routes need.
type SubjectService interface {
	CreateSubject(ctx context.Context, actor primitive.ObjectID, in models.SubjectInput) (*models.Subject, error)
	GetSubject(ctx context.Context, id primitive.ObjectID) (*models.Subject, error)
	ListSubjects(ctx context.Context, f models.SubjectFilter) ([]models.Subject, int64, error)
	UpdateSubject(ctx context.Context, actor, id primitive.ObjectID, patch models.SubjectInput) (*models.Subject, error)
	DeleteSubject(ctx context.Context, actor, id primitive.ObjectID) error
}

type SubjectHandler struct {
	Catalog SubjectService
}

//
// ==========================
// Create Subject
// ==========================
//

func (h *SubjectHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	var input models.SubjectInput
	if !decodeJSON(w, r, &input) {
		return
	}

	subject, err := h.Catalog.CreateSubject(r.Context(), by, input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

//
// ==========================
// List Subjects
// ==========================
//

func (h *SubjectHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r, models.EntitySubject)
	f := models.SubjectFilter{
		Department:    q.objectID("department"),
		Semester:      q.int("semester"),
		IsLab:         q.bool("isLab"),
		ElectiveGroup: q.string("electiveGroup"),
	}
	if err := q.err(); err != nil {
		WriteError(w, r, err)
		return
	}
	f.Limit, f.Offset = parsePage(r)

	items, total, err := h.Catalog.ListSubjects(r.Context(), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Subject{}
	}
	writeJSON(w, http.StatusOK, Page[models.Subject]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

//
// ==========================
// Get Subject
// ==========================
//

func (h *SubjectHandler) GetSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	subject, err := h.Catalog.GetSubject(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

//
// ==========================
// Update Subject
// ==========================
//

// UpdateSubject merges the body over the stored subject; absent fields keep their values.
func (h *SubjectHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.SubjectInput
	if !decodeJSON(w, r, &patch) {
		return
	}

	subject, err := h.Catalog.UpdateSubject(r.Context(), by, id, patch)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

//
// ==========================
// Delete Subject
// ==========================
//

func (h *SubjectHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteSubject(r.Context(), by, id); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
