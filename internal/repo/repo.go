// Package repo keeps catalog, user and audit records in Postgres. Document ids
// are stored as their 24 character hex form so both stores share one id space.
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

// Store bundles the repositories of one database.
type Store struct {
	DB          *sql.DB
	Audit       *AuditRepo
	Subjects    *SubjectRepo
	Departments *DepartmentRepo
	Users       *UserRepo
}

func New(db *sql.DB) *Store {
	return &Store{
		DB:          db,
		Audit:       NewAuditRepo(db),
		Subjects:    NewSubjectRepo(db),
		Departments: NewDepartmentRepo(db),
		Users:       NewUserRepo(db),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

// uniqueViolation maps a unique constraint error ("<table>_<field>_key") to a
// ValidationError on that field.
func uniqueViolation(err error, entity, table string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	field := strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, table+"_"), "_key")
	return models.Duplicate(entity, field)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func nullableID(id *primitive.ObjectID) any {
	if id == nil {
		return nil
	}
	return id.Hex()
}

func parseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("stored id %q: %w", s, err)
	}
	return id, nil
}

func parseNullableID(s sql.NullString) (*primitive.ObjectID, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	id, err := parseID(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func encodeState(s models.State) (any, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func decodeState(b []byte) (models.State, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var s models.State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// where accumulates AND-ed conditions with numbered placeholders.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders. A non-positive limit means no limit.
func (w *where) page(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		w.args = append(w.args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(w.args))
	}
	return b.String()
}
