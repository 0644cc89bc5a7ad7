package repo

import (
	"context"
	"database/sql"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

const auditColumns = `id, action, entity, entity_id, performed_by, previous_state, new_state, ip_address, user_agent, created_at, updated_at`

// AuditRepo appends and reads audit entries. The table rejects updates and
// deletes, so there is no write path besides Insert.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert records an entry, assigning its id when unset.
func (r *AuditRepo) Insert(ctx context.Context, e *models.AuditLog) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	prev, err := encodeState(e.PreviousState)
	if err != nil {
		return err
	}
	next, err := encodeState(e.NewState)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID.Hex(), string(e.Action), e.Entity, nullableID(e.EntityID), e.PerformedBy.Hex(),
		prev, next, e.IPAddress, e.UserAgent, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *AuditRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audit_logs WHERE id = $1`, id.Hex())
	e, err := scanAudit(row)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// List returns matching entries, newest first.
func (r *AuditRepo) List(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error) {
	w := auditWhere(f)
	query := `SELECT ` + auditColumns + ` FROM audit_logs` + w.String() + ` ORDER BY created_at DESC, id DESC` + w.page(f.Limit, f.Offset)
	return r.query(ctx, query, w.args...)
}

func (r *AuditRepo) Count(ctx context.Context, f models.AuditFilter) (int64, error) {
	w := auditWhere(f)
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+w.String(), w.args...).Scan(&n)
	return n, err
}

// ListAfter returns up to limit entries strictly after the cursor, oldest first.
func (r *AuditRepo) ListAfter(ctx context.Context, after models.AuditCursor, limit int) ([]models.AuditLog, error) {
	return r.query(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE (created_at, id) > ($1, $2) ORDER BY created_at, id LIMIT $3`,
		after.CreatedAt, after.ID.Hex(), limit,
	)
}

func (r *AuditRepo) query(ctx context.Context, query string, args ...any) ([]models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditLog{}
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func auditWhere(f models.AuditFilter) *where {
	w := &where{}
	if f.Entity != "" {
		w.add("entity = $%d", f.Entity)
	}
	if f.EntityID != nil {
		w.add("entity_id = $%d", f.EntityID.Hex())
	}
	if f.PerformedBy != nil {
		w.add("performed_by = $%d", f.PerformedBy.Hex())
	}
	if f.Action != "" {
		w.add("action = $%d", string(f.Action))
	}
	if !f.From.IsZero() {
		w.add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		w.add("created_at <= $%d", f.To)
	}
	return w
}

func scanAudit(row scanner) (*models.AuditLog, error) {
	var (
		e                 models.AuditLog
		id, performedBy   string
		action            string
		entityID          sql.NullString
		prevJSON, newJSON []byte
	)
	if err := row.Scan(&id, &action, &e.Entity, &entityID, &performedBy, &prevJSON, &newJSON,
		&e.IPAddress, &e.UserAgent, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if e.ID, err = parseID(id); err != nil {
		return nil, err
	}
	if e.PerformedBy, err = parseID(performedBy); err != nil {
		return nil, err
	}
	if e.EntityID, err = parseNullableID(entityID); err != nil {
		return nil, err
	}
	if e.PreviousState, err = decodeState(prevJSON); err != nil {
		return nil, err
	}
	if e.NewState, err = decodeState(newJSON); err != nil {
		return nil, err
	}
	e.Action = models.Action(action)
	return &e, nil
}
