package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/models"
)

// CreateSubject validates in, checks the department exists and stores a new
// subject. A duplicate code is reported as a unique violation on "code".
func (s *Service) CreateSubject(ctx context.Context, actor primitive.ObjectID, in models.SubjectInput) (*models.Subject, error) {
	in.Normalize()
	if err := models.Validate(models.EntitySubject, in); err != nil {
		return nil, err
	}
	subject := &models.Subject{}
	in.Apply(subject)
	if err := s.checkDepartment(ctx, subject.Department); err != nil {
		return nil, err
	}

	now := s.now()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	if err := s.subjects.Insert(ctx, subject); err != nil {
		return nil, wrap("create subject", err)
	}

	s.record(ctx, audit.Entry{
		Action:      models.ActionCreate,
		Entity:      models.EntitySubject,
		EntityID:    &subject.ID,
		PerformedBy: actor,
		New:         subject,
	})
	return subject, nil
}

func (s *Service) GetSubject(ctx context.Context, id primitive.ObjectID) (*models.Subject, error) {
	subject, err := s.subjects.Get(ctx, id)
	if err != nil {
		return nil, wrap("get subject", err)
	}
	return subject, nil
}

// ListSubjects returns one page of subjects matching f and the total match count.
func (s *Service) ListSubjects(ctx context.Context, f models.SubjectFilter) ([]models.Subject, int64, error) {
	items, err := s.subjects.List(ctx, f)
	if err != nil {
		return nil, 0, wrap("list subjects", err)
	}
	total, err := s.subjects.Count(ctx, f)
	if err != nil {
		return nil, 0, wrap("count subjects", err)
	}
	return items, total, nil
}

// UpdateSubject merges patch onto the stored subject, revalidates the result
// and replaces it. createdAt is never changed.
func (s *Service) UpdateSubject(ctx context.Context, actor, id primitive.ObjectID, patch models.SubjectInput) (*models.Subject, error) {
	prev, err := s.subjects.Get(ctx, id)
	if err != nil {
		return nil, wrap("get subject", err)
	}

	patch.Normalize()
	merged := models.SubjectInputOf(*prev).Overlay(patch)
	if err := models.Validate(models.EntitySubject, merged); err != nil {
		return nil, err
	}
	next := *prev
	merged.Apply(&next)
	if next.Department != prev.Department {
		if err := s.checkDepartment(ctx, next.Department); err != nil {
			return nil, err
		}
	}
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = s.now()

	if err := s.subjects.Replace(ctx, &next); err != nil {
		return nil, wrap("update subject", err)
	}

	s.record(ctx, audit.Entry{
		Action:      models.ActionUpdate,
		Entity:      models.EntitySubject,
		EntityID:    &next.ID,
		PerformedBy: actor,
		Previous:    prev,
		New:         &next,
	})
	return &next, nil
}

func (s *Service) DeleteSubject(ctx context.Context, actor, id primitive.ObjectID) error {
	prev, err := s.subjects.Get(ctx, id)
	if err != nil {
		return wrap("get subject", err)
	}
	if err := s.subjects.Delete(ctx, id); err != nil {
		return wrap("delete subject", err)
	}

	s.record(ctx, audit.Entry{
		Action:      models.ActionDelete,
		Entity:      models.EntitySubject,
		EntityID:    &prev.ID,
		PerformedBy: actor,
		Previous:    prev,
	})
	return nil
}

func (s *Service) checkDepartment(ctx context.Context, id primitive.ObjectID) error {
	ok, err := s.departments.Exists(ctx, id)
	if err != nil {
		return wrap("resolve department", err)
	}
	if !ok {
		return models.Unresolved(models.EntitySubject, "department", models.EntityDepartment)
	}
	return nil
}
