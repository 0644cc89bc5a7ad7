package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/accounts"
	"github.com/crucial707/timetable-api/internal/models"
)

type key string

const (
	UserIDKey key = "user_id"
	RoleKey   key = "role"
)

// Claims is the token payload: the user id as hex and the user's role.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the user that expires after ttl.
func IssueToken(secret []byte, userID primitive.ObjectID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// SessionLoader reloads the user a token was issued to. It returns
// models.ErrNotFound for a deleted user and accounts.ErrInactive for a
// deactivated one.
type SessionLoader interface {
	Session(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// JWTMiddleware rejects requests without a valid bearer token and stores the
// caller's id and role in the request context. When sessions is set the user
// is reloaded on every request: a deleted user gets 401, a deactivated one
// 403, and the stored role replaces the one in the token.
func JWTMiddleware(secret []byte, sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			var claims Claims
			token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				unauthorized(w, "invalid token claims")
				return
			}

			role := claims.Role
			if sessions != nil {
				u, err := sessions.Session(r.Context(), userID)
				switch {
				case errors.Is(err, models.ErrNotFound):
					unauthorized(w, "user no longer exists")
					return
				case errors.Is(err, accounts.ErrInactive):
					writeError(w, accounts.ErrInactive.Error(), http.StatusForbidden)
					return
				case err != nil:
					slog.Error("session lookup failed",
						"request_id", chimw.GetReqID(r.Context()),
						"user_id", claims.UserID,
						"error", err)
					writeError(w, "internal server error", http.StatusInternalServerError)
					return
				}
				role = u.Role
			}

			noteUser(r.Context(), claims.UserID)
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user's id.
func GetUserID(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(UserIDKey).(primitive.ObjectID)
	return id, ok
}

// GetRole returns the authenticated user's role.
func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

// RequireRole allows the request through only when the caller has one of roles.
// Use after JWTMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[GetRole(r.Context())] {
				writeError(w, "insufficient role", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, msg, http.StatusUnauthorized)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
