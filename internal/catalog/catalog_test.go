package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/audit"
	"github.com/crucial707/timetable-api/internal/models"
)

// ==========================
// Fakes
// ==========================

type fakeSubjects struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Subject
}

func newFakeSubjects() *fakeSubjects {
	return &fakeSubjects{byID: map[primitive.ObjectID]models.Subject{}}
}

func (f *fakeSubjects) codeTaken(code string, except primitive.ObjectID) bool {
	for id, s := range f.byID {
		if s.Code == code && id != except {
			return true
		}
	}
	return false
}

func (f *fakeSubjects) Insert(_ context.Context, s *models.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codeTaken(s.Code, primitive.NilObjectID) {
		return models.Duplicate(models.EntitySubject, "code")
	}
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	f.byID[s.ID] = *s
	return nil
}

func (f *fakeSubjects) Get(_ context.Context, id primitive.ObjectID) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSubjects) matching(fl models.SubjectFilter) []models.Subject {
	out := []models.Subject{}
	for _, s := range f.byID {
		if fl.Department != nil && s.Department != *fl.Department {
			continue
		}
		if fl.Semester > 0 && s.Semester != fl.Semester {
			continue
		}
		if fl.IsLab != nil && s.IsLab != *fl.IsLab {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (f *fakeSubjects) List(_ context.Context, fl models.SubjectFilter) ([]models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.matching(fl)
	if fl.Offset >= len(out) {
		return []models.Subject{}, nil
	}
	out = out[fl.Offset:]
	if fl.Limit > 0 && fl.Limit < len(out) {
		out = out[:fl.Limit]
	}
	return out, nil
}

func (f *fakeSubjects) Count(_ context.Context, fl models.SubjectFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(fl))), nil
}

func (f *fakeSubjects) Replace(_ context.Context, s *models.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[s.ID]; !ok {
		return models.ErrNotFound
	}
	if f.codeTaken(s.Code, s.ID) {
		return models.Duplicate(models.EntitySubject, "code")
	}
	f.byID[s.ID] = *s
	return nil
}

func (f *fakeSubjects) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeDepartments struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Department
}

func newFakeDepartments() *fakeDepartments {
	return &fakeDepartments{byID: map[primitive.ObjectID]models.Department{}}
}

func (f *fakeDepartments) Insert(_ context.Context, d *models.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if other.Code == d.Code {
			return models.Duplicate(models.EntityDepartment, "code")
		}
		if other.Name == d.Name {
			return models.Duplicate(models.EntityDepartment, "name")
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Get(_ context.Context, id primitive.ObjectID) (*models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &d, nil
}

func (f *fakeDepartments) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeDepartments) List(_ context.Context, limit, offset int) ([]models.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Department{}
	for _, d := range f.byID {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDepartments) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

func (f *fakeDepartments) Replace(_ context.Context, d *models.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[d.ID]; !ok {
		return models.ErrNotFound
	}
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDepartments) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeUsers map[primitive.ObjectID]models.User

func (f fakeUsers) Get(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

type recordingAudit struct {
	entries []audit.Entry
	err     error
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) (*models.AuditLog, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.entries = append(r.entries, e)
	return &models.AuditLog{Action: e.Action, Entity: e.Entity}, nil
}

// ==========================
// Helpers
// ==========================

type fixture struct {
	svc         *Service
	subjects    *fakeSubjects
	departments *fakeDepartments
	users       fakeUsers
	audit       *recordingAudit
	actor       primitive.ObjectID
	dept        models.Department
	clock       *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		subjects:    newFakeSubjects(),
		departments: newFakeDepartments(),
		users:       fakeUsers{},
		audit:       &recordingAudit{},
		actor:       primitive.NewObjectID(),
	}
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.clock = &now
	f.svc = NewService(f.subjects, f.departments, f.users, f.audit,
		WithNow(func() time.Time { return *f.clock }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	f.dept = models.Department{ID: primitive.NewObjectID(), Name: "Computer Science", Code: "CS"}
	f.departments.byID[f.dept.ID] = f.dept
	return f
}

func (f *fixture) advance(d time.Duration) {
	next := f.clock.Add(d)
	f.clock = &next
}

func intPtr(n int) *int { return &n }
func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }

func (f *fixture) subjectInput(code string) models.SubjectInput {
	return models.SubjectInput{
		Code:         strPtr(code),
		Name:         strPtr("Data Structures"),
		Department:   strPtr(f.dept.ID.Hex()),
		Semester:     intPtr(3),
		Credits:      intPtr(4),
		HoursPerWeek: intPtr(4),
	}
}

func violation(t *testing.T, err error, field, rule string) {
	t.Helper()
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Has(field, rule) {
		t.Fatalf("expected %s violation on %s, got %+v", rule, field, verr.Violations)
	}
}

// ==========================
// Subjects
// ==========================

func TestCreateSubject_DefaultsAndAudit(t *testing.T) {
	f := newFixture(t)

	s, err := f.svc.CreateSubject(context.Background(), f.actor, f.subjectInput("CS201"))
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if s.IsLab {
		t.Error("isLab should default to false")
	}
	if !s.CreatedAt.Equal(*f.clock) || !s.UpdatedAt.Equal(*f.clock) {
		t.Errorf("timestamps not stamped: %v %v", s.CreatedAt, s.UpdatedAt)
	}

	if len(f.audit.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(f.audit.entries))
	}
	e := f.audit.entries[0]
	if e.Action != models.ActionCreate || e.Entity != models.EntitySubject || e.PerformedBy != f.actor {
		t.Errorf("unexpected audit entry: %+v", e)
	}
	if e.EntityID == nil || *e.EntityID != s.ID || e.Previous != nil || e.New == nil {
		t.Errorf("unexpected audit snapshots: %+v", e)
	}
}

func TestCreateSubject_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateSubject(ctx, f.actor, f.subjectInput("CS201")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.CreateSubject(ctx, f.actor, f.subjectInput("CS201"))
	violation(t, err, "code", models.RuleUnique)

	if len(f.audit.entries) != 1 {
		t.Errorf("rejected write must not be audited, got %d entries", len(f.audit.entries))
	}
}

func TestCreateSubject_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*fixture, *models.SubjectInput)
		field string
		rule  string
	}{
		{"credits above range", func(_ *fixture, in *models.SubjectInput) { in.Credits = intPtr(6) }, "credits", models.RuleMax},
		{"semester zero", func(_ *fixture, in *models.SubjectInput) { in.Semester = intPtr(0) }, "semester", models.RuleMin},
		{"hours missing", func(_ *fixture, in *models.SubjectInput) { in.HoursPerWeek = nil }, "hoursPerWeek", models.RuleRequired},
		{"unknown department", func(_ *fixture, in *models.SubjectInput) {
			in.Department = strPtr(primitive.NewObjectID().Hex())
		}, "department", models.RuleReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.subjectInput("CS301")
			tt.edit(f, &in)

			_, err := f.svc.CreateSubject(context.Background(), f.actor, in)
			violation(t, err, tt.field, tt.rule)
			if len(f.subjects.byID) != 0 {
				t.Error("nothing should be stored")
			}
		})
	}
}

func TestCreateSubject_CreditsUpperBoundAccepted(t *testing.T) {
	f := newFixture(t)
	in := f.subjectInput("CS401")
	in.Credits = intPtr(5)

	if _, err := f.svc.CreateSubject(context.Background(), f.actor, in); err != nil {
		t.Fatalf("credits=5 should be accepted: %v", err)
	}
}

func TestCreateSubject_AuditFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("audit store down")

	s, err := f.svc.CreateSubject(context.Background(), f.actor, f.subjectInput("CS201"))
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if _, ok := f.subjects.byID[s.ID]; !ok {
		t.Error("subject should be stored")
	}
}

func TestUpdateSubject_MergesAndKeepsCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateSubject(ctx, f.actor, f.subjectInput("CS201"))
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	f.advance(time.Hour)

	updated, err := f.svc.UpdateSubject(ctx, f.actor, created.ID, models.SubjectInput{Credits: intPtr(2), IsLab: boolPtr(true)})
	if err != nil {
		t.Fatalf("UpdateSubject: %v", err)
	}
	if updated.Credits != 2 || !updated.IsLab || updated.Code != "CS201" || updated.Semester != 3 {
		t.Errorf("unexpected merge: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("createdAt changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updatedAt not advanced: %v", updated.UpdatedAt)
	}

	last := f.audit.entries[len(f.audit.entries)-1]
	if last.Action != models.ActionUpdate || last.Previous == nil || last.New == nil {
		t.Errorf("unexpected update audit: %+v", last)
	}
	if prev := last.Previous.(*models.Subject); prev.Credits != 4 {
		t.Errorf("previous snapshot should hold old credits, got %d", prev.Credits)
	}
}

func TestUpdateSubject_InvalidPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateSubject(ctx, f.actor, f.subjectInput("CS201"))
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}

	_, err = f.svc.UpdateSubject(ctx, f.actor, created.ID, models.SubjectInput{HoursPerWeek: intPtr(9)})
	violation(t, err, "hoursPerWeek", models.RuleMax)

	stored := f.subjects.byID[created.ID]
	if stored.HoursPerWeek != 4 {
		t.Errorf("invalid patch was stored: %+v", stored)
	}
}

func TestUpdateSubject_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateSubject(context.Background(), f.actor, primitive.NewObjectID(), models.SubjectInput{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateSubject(ctx, f.actor, f.subjectInput("CS201"))
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if err := f.svc.DeleteSubject(ctx, f.actor, created.ID); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}
	if _, err := f.svc.GetSubject(ctx, created.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	last := f.audit.entries[len(f.audit.entries)-1]
	if last.Action != models.ActionDelete || last.Previous == nil || last.New != nil {
		t.Errorf("unexpected delete audit: %+v", last)
	}
}

func TestListSubjects_Total(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, code := range []string{"CS101", "CS102", "CS103"} {
		if _, err := f.svc.CreateSubject(ctx, f.actor, f.subjectInput(code)); err != nil {
			t.Fatalf("CreateSubject %s: %v", code, err)
		}
	}

	items, total, err := f.svc.ListSubjects(ctx, models.SubjectFilter{Department: &f.dept.ID, Limit: 2})
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	if len(items) != 2 || total != 3 {
		t.Errorf("got %d items, total %d; want 2, 3", len(items), total)
	}
}

// ==========================
// Departments
// ==========================

func TestCreateDepartment_HOD(t *testing.T) {
	teacher := primitive.NewObjectID()
	student := primitive.NewObjectID()

	tests := []struct {
		name    string
		hod     *string
		wantErr bool
	}{
		{"no hod", nil, false},
		{"teacher hod", strPtr(teacher.Hex()), false},
		{"student hod", strPtr(student.Hex()), true},
		{"unknown hod", strPtr(primitive.NewObjectID().Hex()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.users[teacher] = models.User{ID: teacher, Role: models.RoleTeacher}
			f.users[student] = models.User{ID: student, Role: models.RoleStudent}

			d, err := f.svc.CreateDepartment(context.Background(), f.actor, models.DepartmentInput{
				Name: strPtr("Mathematics"),
				Code: strPtr(" ma "),
				HOD:  tt.hod,
			})
			if tt.wantErr {
				violation(t, err, "hod", models.RuleReference)
				return
			}
			if err != nil {
				t.Fatalf("CreateDepartment: %v", err)
			}
			if d.Code != "MA" {
				t.Errorf("code = %q, want MA", d.Code)
			}
		})
	}
}

func TestCreateDepartment_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateDepartment(context.Background(), f.actor, models.DepartmentInput{
		Name: strPtr("Computing"),
		Code: strPtr("cs"),
	})
	violation(t, err, "code", models.RuleUnique)
}

func TestUpdateDepartment_ClearHOD(t *testing.T) {
	f := newFixture(t)
	teacher := primitive.NewObjectID()
	f.users[teacher] = models.User{ID: teacher, Role: models.RoleTeacher}
	ctx := context.Background()

	d, err := f.svc.UpdateDepartment(ctx, f.actor, f.dept.ID, models.DepartmentInput{HOD: strPtr(teacher.Hex())})
	if err != nil {
		t.Fatalf("set hod: %v", err)
	}
	if d.HOD == nil || *d.HOD != teacher {
		t.Fatalf("hod not set: %+v", d)
	}

	d, err = f.svc.UpdateDepartment(ctx, f.actor, f.dept.ID, models.DepartmentInput{HOD: strPtr("")})
	if err != nil {
		t.Fatalf("clear hod: %v", err)
	}
	if d.HOD != nil {
		t.Errorf("hod not cleared: %v", d.HOD)
	}
	if d.Name != "Computer Science" {
		t.Errorf("name lost in merge: %q", d.Name)
	}
}

func TestDepartment_BlankNameOrCode(t *testing.T) {
	tests := []struct {
		name  string
		in    models.DepartmentInput
		field string
	}{
		{"blank name", models.DepartmentInput{Name: strPtr("   "), Code: strPtr("MA")}, "name"},
		{"blank code", models.DepartmentInput{Name: strPtr("Mathematics"), Code: strPtr(" \t ")}, "code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			_, err := f.svc.CreateDepartment(ctx, f.actor, tt.in)
			violation(t, err, tt.field, models.RuleRequired)
			if len(f.departments.byID) != 1 {
				t.Errorf("blank department was stored")
			}

			_, err = f.svc.UpdateDepartment(ctx, f.actor, f.dept.ID, tt.in)
			violation(t, err, tt.field, models.RuleRequired)
			if stored := f.departments.byID[f.dept.ID]; stored.Name != "Computer Science" || stored.Code != "CS" {
				t.Errorf("blank patch was stored: %+v", stored)
			}
			if len(f.audit.entries) != 0 {
				t.Errorf("rejected writes were audited: %d", len(f.audit.entries))
			}
		})
	}
}

func TestCreateSubject_BlankCodeOrName(t *testing.T) {
	f := newFixture(t)
	in := f.subjectInput("  ")
	in.Name = strPtr("\n")
	_, err := f.svc.CreateSubject(context.Background(), f.actor, in)
	violation(t, err, "code", models.RuleRequired)
	violation(t, err, "name", models.RuleRequired)

	trimmed, err := f.svc.CreateSubject(context.Background(), f.actor, f.subjectInput(" CS301 "))
	if err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if trimmed.Code != "CS301" {
		t.Errorf("code = %q, want CS301", trimmed.Code)
	}
}

func TestDeleteDepartment_InUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateSubject(ctx, f.actor, f.subjectInput("CS201")); err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}
	if err := f.svc.DeleteDepartment(ctx, f.actor, f.dept.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if _, ok := f.departments.byID[f.dept.ID]; !ok {
		t.Error("department should still exist")
	}
}

func TestDeleteDepartment_Empty(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.DeleteDepartment(context.Background(), f.actor, f.dept.ID); err != nil {
		t.Fatalf("DeleteDepartment: %v", err)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != models.ActionDelete {
		t.Errorf("unexpected audit entries: %+v", f.audit.entries)
	}
}
