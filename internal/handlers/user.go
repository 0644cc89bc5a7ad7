package handlers

import (
	"net/http"

	"github.com/crucial707/timetable-api/internal/models"
)

// UserHandler serves the admin user routes.
type UserHandler struct {
	Accounts AccountService
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	items, total, err := h.Accounts.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if items == nil {
		items = []models.User{}
	}
	writeJSON(w, http.StatusOK, Page[models.User]{Items: items, Total: total, Limit: limit, Offset: offset})
}

// CreateUser registers a user on behalf of an admin, so any role is allowed.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	var input models.UserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	user, err := h.Accounts.Register(r.Context(), &by, input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input struct {
		IsActive *bool `json:"isActive"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.IsActive == nil {
		WriteError(w, r, models.Invalid(models.EntityUser, "isActive", models.RuleRequired, "isActive is required"))
		return
	}
	user, err := h.Accounts.SetActive(r.Context(), by, id, *input.IsActive)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
