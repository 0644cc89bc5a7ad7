package repo

import (
	"context"
	"database/sql"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

const subjectColumns = `id, code, name, department, semester, credits, hours_per_week, is_lab, elective_group, created_at, updated_at`

// SubjectRepo persists catalog subjects.
type SubjectRepo struct {
	db *sql.DB
}

func NewSubjectRepo(db *sql.DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

// Insert stores s. A code already in use yields a unique violation on "code".
func (r *SubjectRepo) Insert(ctx context.Context, s *models.Subject) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subjects (`+subjectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID.Hex(), s.Code, s.Name, s.Department.Hex(), s.Semester, s.Credits, s.HoursPerWeek,
		s.IsLab, s.ElectiveGroup, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err, models.EntitySubject, "subjects")
	}
	return nil
}

func (r *SubjectRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Subject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id.Hex())
	s, err := scanSubject(row)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// List returns subjects ordered by semester then code.
func (r *SubjectRepo) List(ctx context.Context, f models.SubjectFilter) ([]models.Subject, error) {
	w := subjectWhere(f)
	query := `SELECT ` + subjectColumns + ` FROM subjects` + w.String() + ` ORDER BY semester, code` + w.page(f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, *s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepo) Count(ctx context.Context, f models.SubjectFilter) (int64, error) {
	w := subjectWhere(f)
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subjects`+w.String(), w.args...).Scan(&n)
	return n, err
}

// Replace overwrites every column of the stored row with s.
func (r *SubjectRepo) Replace(ctx context.Context, s *models.Subject) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subjects SET code = $2, name = $3, department = $4, semester = $5, credits = $6,
			hours_per_week = $7, is_lab = $8, elective_group = $9, created_at = $10, updated_at = $11
		WHERE id = $1`,
		s.ID.Hex(), s.Code, s.Name, s.Department.Hex(), s.Semester, s.Credits, s.HoursPerWeek,
		s.IsLab, s.ElectiveGroup, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err, models.EntitySubject, "subjects")
	}
	return affected(res)
}

func (r *SubjectRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id.Hex())
	if err != nil {
		return err
	}
	return affected(res)
}

func subjectWhere(f models.SubjectFilter) *where {
	w := &where{}
	if f.Department != nil {
		w.add("department = $%d", f.Department.Hex())
	}
	if f.Semester > 0 {
		w.add("semester = $%d", f.Semester)
	}
	if f.IsLab != nil {
		w.add("is_lab = $%d", *f.IsLab)
	}
	if f.ElectiveGroup != "" {
		w.add("elective_group = $%d", f.ElectiveGroup)
	}
	return w
}

func scanSubject(row scanner) (*models.Subject, error) {
	var (
		s        models.Subject
		id, dept string
	)
	if err := row.Scan(&id, &s.Code, &s.Name, &dept, &s.Semester, &s.Credits, &s.HoursPerWeek,
		&s.IsLab, &s.ElectiveGroup, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if s.Department, err = parseID(dept); err != nil {
		return nil, err
	}
	return &s, nil
}
