package repo

import (
	"context"
	"database/sql"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

const departmentColumns = `id, name, code, hod, description, established_date, created_at, updated_at`

// DepartmentRepo persists departments.
type DepartmentRepo struct {
	db *sql.DB
}

func NewDepartmentRepo(db *sql.DB) *DepartmentRepo {
	return &DepartmentRepo{db: db}
}

func (r *DepartmentRepo) Insert(ctx context.Context, d *models.Department) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO departments (`+departmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID.Hex(), d.Name, d.Code, nullableID(d.HOD), d.Description, d.EstablishedDate, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err, models.EntityDepartment, "departments")
	}
	return nil
}

func (r *DepartmentRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id.Hex())
	d, err := scanDepartment(row)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (r *DepartmentRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id.Hex()).Scan(&ok)
	return ok, err
}

// List returns departments ordered by name.
func (r *DepartmentRepo) List(ctx context.Context, limit, offset int) ([]models.Department, error) {
	w := &where{}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+departmentColumns+` FROM departments ORDER BY name`+w.page(limit, offset), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

func (r *DepartmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&n)
	return n, err
}

func (r *DepartmentRepo) Replace(ctx context.Context, d *models.Department) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE departments SET name = $2, code = $3, hod = $4, description = $5,
			established_date = $6, created_at = $7, updated_at = $8
		WHERE id = $1`,
		d.ID.Hex(), d.Name, d.Code, nullableID(d.HOD), d.Description, d.EstablishedDate, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err, models.EntityDepartment, "departments")
	}
	return affected(res)
}

func (r *DepartmentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id.Hex())
	if err != nil {
		return err
	}
	return affected(res)
}

func scanDepartment(row scanner) (*models.Department, error) {
	var (
		d           models.Department
		id          string
		hod         sql.NullString
		established sql.NullTime
	)
	if err := row.Scan(&id, &d.Name, &d.Code, &hod, &d.Description, &established, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if d.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if d.HOD, err = parseNullableID(hod); err != nil {
		return nil, err
	}
	if established.Valid {
		t := established.Time
		d.EstablishedDate = &t
	}
	return &d, nil
}
