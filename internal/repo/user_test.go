package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

var userCols = []string{"id", "email", "password_hash", "role", "first_name", "last_name", "phone", "department", "is_active", "last_login", "profile_picture", "created_at", "updated_at"}

func TestUserRepo_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	u := &models.User{Email: "alice@example.edu", PasswordHash: "x", Role: models.RoleTeacher, FirstName: "Alice", LastName: "Liddell", IsActive: true}
	if err := repo.Insert(context.Background(), u); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if u.ID.IsZero() {
		t.Error("expected id to be assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Insert_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	repo := NewUserRepo(db)
	err = repo.Insert(context.Background(), &models.User{Email: "alice@example.edu"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) || !verr.Has("email", models.RuleUnique) {
		t.Fatalf("expected unique violation on email, got %v", err)
	}
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := primitive.NewObjectID()
	dept := primitive.NewObjectID()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, email, password_hash, role.* FROM users WHERE email = \$1`).
		WithArgs("bob@example.edu").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(id.Hex(), "bob@example.edu", "hash", "teacher", "Bob", "Builder", "", dept.Hex(), true, nil, "", now, now))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "bob@example.edu")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != id || u.Role != models.RoleTeacher || u.Department == nil || *u.Department != dept {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.LastLogin != nil {
		t.Errorf("expected no last login, got %v", u.LastLogin)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	if _, err := repo.Get(context.Background(), primitive.NewObjectID()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestUserRepo_SetActive_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	id := primitive.NewObjectID()
	mock.ExpectExec(`UPDATE users SET is_active`).
		WithArgs(id.Hex(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	if err := repo.SetActive(context.Background(), id, false, time.Now()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestUserRepo_SaveProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	u := &models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      "Asha",
		LastName:       "Rao",
		Phone:          "9876543210",
		ProfilePicture: "https://img.example/asha.png",
		PasswordHash:   "hash",
		UpdatedAt:      at,
	}
	mock.ExpectExec(`UPDATE users SET first_name = \$2, last_name = \$3, phone = \$4, profile_picture = \$5, password_hash = \$6, updated_at = \$7 WHERE id = \$1`).
		WithArgs(u.ID.Hex(), "Asha", "Rao", "9876543210", "https://img.example/asha.png", "hash", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET first_name`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	if err := repo.SaveProfile(context.Background(), u); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := repo.SaveProfile(context.Background(), u); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
