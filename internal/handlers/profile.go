package handlers

import (
	"net/http"

	"github.com/crucial707/timetable-api/internal/models"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	Accounts AccountService
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	user, err := h.Accounts.Get(r.Context(), by)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	var input models.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}
	user, err := h.Accounts.UpdateProfile(r.Context(), by, input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UpdatePicture(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	var input models.PictureInput
	if !decodeJSON(w, r, &input) {
		return
	}
	user, err := h.Accounts.UpdatePicture(r.Context(), by, input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword answers 401 when the current password is wrong.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	var input models.PasswordChange
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.Accounts.ChangePassword(r.Context(), by, input); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
