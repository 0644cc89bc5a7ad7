package handlers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/middleware"
	"github.com/crucial707/timetable-api/internal/models"
)

// AccountService is implemented by accounts.Service.
type AccountService interface {
	Register(ctx context.Context, actor *primitive.ObjectID, in models.UserInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context, userID primitive.ObjectID)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	SetActive(ctx context.Context, actor, id primitive.ObjectID, active bool) (*models.User, error)
	Session(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, in models.ProfileInput) (*models.User, error)
	UpdatePicture(ctx context.Context, id primitive.ObjectID, in models.PictureInput) (*models.User, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, in models.PasswordChange) error
}

type AuthHandler struct {
	Accounts AccountService
	Secret   []byte
	TokenTTL time.Duration
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

//
// ==========================
// Register (self-service)
// ==========================
//

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.UserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	user, err := h.Accounts.Register(r.Context(), nil, input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

//
// ==========================
// Login
// ==========================
//

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Email == "" || input.Password == "" {
		JSONError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.Accounts.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeToken(w, r, user)
}

//
// ==========================
// Refresh
// ==========================
//

// Refresh swaps a still-valid token for a fresh one carrying the user's
// current role.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	user, err := h.Accounts.Session(r.Context(), by)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeToken(w, r, user)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := middleware.IssueToken(h.Secret, user.ID, user.Role, h.TokenTTL)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

//
// ==========================
// Logout
// ==========================
//

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	by, ok := actor(w, r)
	if !ok {
		return
	}
	h.Accounts.Logout(r.Context(), by)
	w.WriteHeader(http.StatusNoContent)
}
