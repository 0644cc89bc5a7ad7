package catalog

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/models"
)

// CreateDepartment validates in and stores a new department. The code is
// stored upper case. A hod must be an existing teacher.
func (s *Service) CreateDepartment(ctx context.Context, actor primitive.ObjectID, in models.DepartmentInput) (*models.Department, error) {
	in.Normalize()
	if err := models.Validate(models.EntityDepartment, in); err != nil {
		return nil, err
	}
	dept := &models.Department{}
	in.Apply(dept)
	if err := s.checkHOD(ctx, dept.HOD); err != nil {
		return nil, err
	}

	now := s.now()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	if err := s.departments.Insert(ctx, dept); err != nil {
		return nil, wrap("create department", err)
	}

	s.record(ctx, audit.Entry{
		Action:      models.ActionCreate,
		Entity:      models.EntityDepartment,
		EntityID:    &dept.ID,
		PerformedBy: actor,
		New:         dept,
	})
	return dept, nil
}

func (s *Service) GetDepartment(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	dept, err := s.departments.Get(ctx, id)
	if err != nil {
		return nil, wrap("get department", err)
	}
	return dept, nil
}

func (s *Service) ListDepartments(ctx context.Context, limit, offset int) ([]models.Department, int64, error) {
	items, err := s.departments.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, wrap("list departments", err)
	}
	total, err := s.departments.Count(ctx)
	if err != nil {
		return nil, 0, wrap("count departments", err)
	}
	return items, total, nil
}

// UpdateDepartment merges patch onto the stored department and replaces it.
// An empty hod in the patch clears the head of department.
func (s *Service) UpdateDepartment(ctx context.Context, actor, id primitive.ObjectID, patch models.DepartmentInput) (*models.Department, error) {
	prev, err := s.departments.Get(ctx, id)
	if err != nil {
		return nil, wrap("get department", err)
	}

	patch.Normalize()
	merged := models.DepartmentInputOf(*prev).Overlay(patch)
	if err := models.Validate(models.EntityDepartment, merged); err != nil {
		return nil, err
	}
	next := *prev
	merged.Apply(&next)
	if patch.HOD != nil {
		if err := s.checkHOD(ctx, next.HOD); err != nil {
			return nil, err
		}
	}
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = s.now()

	if err := s.departments.Replace(ctx, &next); err != nil {
		return nil, wrap("update department", err)
	}

	s.record(ctx, audit.Entry{
		Action:      models.ActionUpdate,
		Entity:      models.EntityDepartment,
		EntityID:    &next.ID,
		PerformedBy: actor,
		Previous:    prev,
		New:         &next,
	})
	return &next, nil
}

// DeleteDepartment removes a department no subject refers to. Otherwise it
// returns ErrInUse.
func (s *Service) DeleteDepartment(ctx context.Context, actor, id primitive.ObjectID) error {
	prev, err := s.departments.Get(ctx, id)
	if err != nil {
		return wrap("get department", err)
	}
	n, err := s.subjects.Count(ctx, models.SubjectFilter{Department: &id})
	if err != nil {
		return wrap("count subjects", err)
	}
	if n > 0 {
		return ErrInUse
	}
	if err := s.departments.Delete(ctx, id); err != nil {
		return wrap("delete department", err)
	}

	s.record(ctx, audit.Entry{
		Action:      models.ActionDelete,
		Entity:      models.EntityDepartment,
		EntityID:    &prev.ID,
		PerformedBy: actor,
		Previous:    prev,
	})
	return nil
}

func (s *Service) checkHOD(ctx context.Context, id *primitive.ObjectID) error {
	if id == nil {
		return nil
	}
	user, err := s.users.Get(ctx, *id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Unresolved(models.EntityDepartment, "hod", models.EntityUser)
	}
	if err != nil {
		return wrap("resolve hod", err)
	}
	if user.Role != models.RoleTeacher {
		return models.Invalid(models.EntityDepartment, "hod", models.RuleReference, "hod must reference a user with role teacher")
	}
	return nil
}
