// Package catalog validates and stores subjects and departments, recording an
// audit entry for every change.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/models"
)

// ErrInUse is returned when deleting a department that subjects still reference.
var ErrInUse = errors.New("department still has subjects")

type SubjectStore interface {
	Insert(ctx context.Context, s *models.Subject) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Subject, error)
	List(ctx context.Context, f models.SubjectFilter) ([]models.Subject, error)
	Count(ctx context.Context, f models.SubjectFilter) (int64, error)
	Replace(ctx context.Context, s *models.Subject) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type DepartmentStore interface {
	Insert(ctx context.Context, d *models.Department) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Department, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Department, error)
	Count(ctx context.Context) (int64, error)
	Replace(ctx context.Context, d *models.Department) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserGetter resolves head-of-department references.
type UserGetter interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// AuditRecorder is satisfied by *audit.Recorder.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) (*models.AuditLog, error)
}

type Service struct {
	subjects    SubjectStore
	departments DepartmentStore
	users       UserGetter
	audit       AuditRecorder
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Service)

// WithNow overrides the time source used for createdAt/updatedAt.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(subjects SubjectStore, departments DepartmentStore, users UserGetter, rec AuditRecorder, opts ...Option) *Service {
	s := &Service{
		subjects:    subjects,
		departments: departments,
		users:       users,
		audit:       rec,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record appends an audit entry for a change that has already been stored.
// The change stands even if the entry cannot be written.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if _, err := s.audit.Record(ctx, e); err != nil {
		s.log.Error("audit entry not recorded",
			"action", e.Action,
			"entity", e.Entity,
			"entity_id", idString(e.EntityID),
			"performed_by", e.PerformedBy.Hex(),
			"error", err)
	}
}

func idString(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

func wrap(op string, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) || errors.Is(err, models.ErrNotFound) || errors.Is(err, ErrInUse) {
		return err
	}
	return fmt.Errorf("catalog: %s: %w", op, err)
}
