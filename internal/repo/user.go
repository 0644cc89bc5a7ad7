package repo

import (
	"context"
	"database/sql"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

const userColumns = `id, email, password_hash, role, first_name, last_name, phone, department, is_active, last_login, profile_picture, created_at, updated_at`

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// ==========================
// Insert
// ==========================
func (r *UserRepo) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		u.ID.Hex(), u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.Phone,
		nullableID(u.Department), u.IsActive, u.LastLogin, u.ProfilePicture, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err, models.EntityUser, "users")
	}
	return nil
}

// ==========================
// Lookups
// ==========================
func (r *UserRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.getBy(ctx, "id", id.Hex())
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *UserRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id.Hex()).Scan(&ok)
	return ok, err
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	w := &where{}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`+w.page(limit, offset), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// ==========================
// Updates
// ==========================
func (r *UserRepo) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id.Hex(), at)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *UserRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`, id.Hex(), active, at)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *UserRepo) SaveProfile(ctx context.Context, u *models.User) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, phone = $4, profile_picture = $5, password_hash = $6, updated_at = $7 WHERE id = $1`,
		u.ID.Hex(), u.FirstName, u.LastName, u.Phone, u.ProfilePicture, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u         models.User
		id        string
		dept      sql.NullString
		lastLogin sql.NullTime
	)
	if err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.Phone,
		&dept, &u.IsActive, &lastLogin, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if u.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if u.Department, err = parseNullableID(dept); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}
