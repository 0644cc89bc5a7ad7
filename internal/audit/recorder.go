// Package audit records and exposes the append-only audit trail.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/metrics"
	"github.com/crucial707/timetable-api/internal/models"
)

const entityName = models.EntityAuditLog

// Store persists audit entries. It offers no update or delete.
type Store interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error)
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error)
	Count(ctx context.Context, f models.AuditFilter) (int64, error)
}

// UserLookup resolves the performedBy reference.
type UserLookup interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Entry is one mutating operation to record. Previous and New are snapshotted
// with models.StateOf; nil means no snapshot. Provenance, when nil, is taken
// from the context.
type Entry struct {
	Action      models.Action
	Entity      string
	EntityID    *primitive.ObjectID
	PerformedBy primitive.ObjectID
	Previous    any
	New         any
	Provenance  *Provenance
}

// Recorder appends validated entries to the audit store.
type Recorder struct {
	store Store
	users UserLookup
	clock Clock
	log   *slog.Logger
}

type Option func(*Recorder)

func WithClock(c Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

func NewRecorder(store Store, users UserLookup, opts ...Option) *Recorder {
	r := &Recorder{
		store: store,
		users: users,
		clock: NewMonotonicClock(nil),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record validates e and appends exactly one audit entry. It fails when the
// action is outside the fixed set, when entity is empty, or when performedBy
// is missing or does not resolve to a user. Store errors are returned wrapped.
func (r *Recorder) Record(ctx context.Context, e Entry) (*models.AuditLog, error) {
	prev, err := models.StateOf(e.Previous)
	if err != nil {
		return nil, fmt.Errorf("audit: previous state: %w", err)
	}
	next, err := models.StateOf(e.New)
	if err != nil {
		return nil, fmt.Errorf("audit: new state: %w", err)
	}

	entry := &models.AuditLog{
		Action:        e.Action,
		Entity:        e.Entity,
		EntityID:      e.EntityID,
		PerformedBy:   e.PerformedBy,
		PreviousState: prev,
		NewState:      next,
	}
	prov := e.Provenance
	if prov == nil {
		if p, ok := ProvenanceFrom(ctx); ok {
			prov = &p
		}
	}
	if prov != nil {
		entry.IPAddress = prov.IPAddress
		entry.UserAgent = prov.UserAgent
	}

	if err := models.Validate(entityName, entry); err != nil {
		return nil, err
	}
	ok, err := r.users.Exists(ctx, entry.PerformedBy)
	if err != nil {
		return nil, fmt.Errorf("audit: resolve performedBy: %w", err)
	}
	if !ok {
		return nil, models.Unresolved(entityName, "performedBy", models.EntityUser)
	}

	now := r.clock.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if err := r.store.Insert(ctx, entry); err != nil {
		metrics.IncAuditWriteFailures()
		return nil, fmt.Errorf("audit: insert: %w", err)
	}
	metrics.IncAuditEntries(string(entry.Action))
	r.log.Debug("audit entry recorded",
		"id", entry.ID.Hex(),
		"action", entry.Action,
		"entity", entry.Entity,
		"performed_by", entry.PerformedBy.Hex())
	return entry, nil
}

// Get returns one audit entry.
func (r *Recorder) Get(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error) {
	return r.store.Get(ctx, id)
}

// List returns entries matching f, newest first, with the total match count.
func (r *Recorder) List(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, int64, error) {
	entries, err := r.store.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list: %w", err)
	}
	total, err := r.store.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}
	return entries, total, nil
}
