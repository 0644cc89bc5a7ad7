package handlers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

type DepartmentService interface {
	CreateDepartment(ctx context.Context, actor primitive.ObjectID, in models.DepartmentInput) (*models.Department, error)
	GetDepartment(ctx context.Context, id primitive.ObjectID) (*models.Department, error)
	ListDepartments(ctx context.Context, limit, offset int) ([]models.Department, int64, error)
	UpdateDepartment(ctx context.Context, actor, id primitive.ObjectID, patch models.DepartmentInput) (*models.Department, error)
	DeleteDepartment(ctx context.Context, actor, id primitive.ObjectID) error
}

type DepartmentHandler struct {
	Catalog DepartmentService
}

func (h *DepartmentHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	var input models.DepartmentInput
	if !decodeJSON(w, r, &input) {
		return
	}
	dept, err := h.Catalog.CreateDepartment(r.Context(), by, input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dept)
}

func (h *DepartmentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	items, total, err := h.Catalog.ListDepartments(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Department{}
	}
	writeJSON(w, http.StatusOK, Page[models.Department]{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *DepartmentHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dept, err := h.Catalog.GetDepartment(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

// UpdateDepartment merges the body over the stored department. "hod": "" clears the head of department.
func (h *DepartmentHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.DepartmentInput
	if !decodeJSON(w, r, &patch) {
		return
	}
	dept, err := h.Catalog.UpdateDepartment(r.Context(), by, id, patch)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

// DeleteDepartment answers 409 while subjects still reference the department.
func (h *DepartmentHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteDepartment(r.Context(), by, id); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
