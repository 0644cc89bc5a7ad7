package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/crucial707/timetable-api/internal/models"
)

func newMock(t *testing.T) *mtest.T {
	t.Helper()
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	t.Cleanup(func() {
		if mt.Client != nil {
			_ = mt.Client.Disconnect(context.Background())
		}
	})
	return mt
}

func duplicateResponse(index string) bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: test.c index: " + index + " dup key",
	})
}

func TestDuplicateField(t *testing.T) {
	dup := func(msg string) error {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: msg}}}
	}

	tests := []struct {
		name   string
		err    error
		fields []string
		want   string
		ok     bool
	}{
		{"named index", dup("index: name_1 dup key"), []string{"code", "name"}, "name", true},
		{"first field fallback", dup("duplicate"), []string{"code", "name"}, "code", true},
		{"not duplicate", errors.New("boom"), []string{"code"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := duplicateField(tt.err, tt.fields...)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSubjectRepo_Insert(t *testing.T) {
	mt := newMock(t)

	mt.Run("assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewSubjectRepo(mt.Coll)

		s := &models.Subject{Code: "CS101", Name: "Intro", Department: primitive.NewObjectID()}
		if err := repo.Insert(context.Background(), s); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if s.ID.IsZero() {
			t.Fatal("expected id to be assigned")
		}
	})

	mt.Run("duplicate code", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateResponse("code_1"))
		repo := NewSubjectRepo(mt.Coll)

		err := repo.Insert(context.Background(), &models.Subject{Code: "CS101"})
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if !verr.Has("code", models.RuleUnique) {
			t.Fatalf("expected unique violation on code, got %v", verr.Violations)
		}
	})
}

func TestSubjectRepo_Get(t *testing.T) {
	mt := newMock(t)

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.subjects", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "code", Value: "CS101"},
			{Key: "name", Value: "Intro"},
			{Key: "semester", Value: 3},
			{Key: "credits", Value: 4},
		}))
		repo := NewSubjectRepo(mt.Coll)

		s, err := repo.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if s.ID != id || s.Code != "CS101" || s.Semester != 3 || s.Credits != 4 {
			t.Fatalf("unexpected subject: %+v", s)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.subjects", mtest.FirstBatch))
		repo := NewSubjectRepo(mt.Coll)

		if _, err := repo.Get(context.Background(), primitive.NewObjectID()); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSubjectRepo_ReplaceAndDelete(t *testing.T) {
	mt := newMock(t)

	mt.Run("replace unmatched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		repo := NewSubjectRepo(mt.Coll)

		err := repo.Replace(context.Background(), &models.Subject{ID: primitive.NewObjectID()})
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewSubjectRepo(mt.Coll)

		if err := repo.Delete(context.Background(), primitive.NewObjectID()); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := NewSubjectRepo(mt.Coll)

		if err := repo.Delete(context.Background(), primitive.NewObjectID()); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSubjectRepo_Count(t *testing.T) {
	mt := newMock(t)

	mt.Run("by department", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.subjects", mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(2)}}))
		repo := NewSubjectRepo(mt.Coll)

		dept := primitive.NewObjectID()
		n, err := repo.Count(context.Background(), models.SubjectFilter{Department: &dept})
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2, got %d", n)
		}
	})
}

func TestDepartmentRepo_DuplicateName(t *testing.T) {
	mt := newMock(t)

	mt.Run("name index", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateResponse("name_1"))
		repo := NewDepartmentRepo(mt.Coll)

		err := repo.Insert(context.Background(), &models.Department{Name: "Physics", Code: "PHY"})
		var verr *models.ValidationError
		if !errors.As(err, &verr) || !verr.Has("name", models.RuleUnique) {
			t.Fatalf("expected unique violation on name, got %v", err)
		}
	})
}

func TestUserRepo_ExistsAndSetActive(t *testing.T) {
	mt := newMock(t)

	mt.Run("exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(1)}}))
		repo := NewUserRepo(mt.Coll)

		ok, err := repo.Exists(context.Background(), primitive.NewObjectID())
		if err != nil || !ok {
			t.Fatalf("expected user to exist, got %v, %v", ok, err)
		}
	})

	mt.Run("set active on missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		repo := NewUserRepo(mt.Coll)

		err := repo.SetActive(context.Background(), primitive.NewObjectID(), false, time.Now())
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("save profile", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		repo := NewUserRepo(mt.Coll)

		u := &models.User{ID: primitive.NewObjectID(), FirstName: "Asha", Phone: "9876543210", UpdatedAt: time.Now()}
		if err := repo.SaveProfile(context.Background(), u); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}
	})
}

func TestAuditRepo_List(t *testing.T) {
	mt := newMock(t)

	mt.Run("decodes entries", func(mt *mtest.T) {
		by := primitive.NewObjectID()
		at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.auditlogs", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "action", Value: "create"},
				{Key: "entity", Value: "Subject"},
				{Key: "performedBy", Value: by},
				{Key: "newState", Value: bson.D{{Key: "code", Value: "CS101"}}},
				{Key: "createdAt", Value: at},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "action", Value: "login"},
				{Key: "entity", Value: "User"},
				{Key: "performedBy", Value: by},
				{Key: "createdAt", Value: at.Add(-time.Minute)},
			},
		))
		repo := NewAuditRepo(mt.Coll)

		entries, err := repo.List(context.Background(), models.AuditFilter{PerformedBy: &by, Limit: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Action != models.ActionCreate || entries[0].PerformedBy != by {
			t.Fatalf("unexpected first entry: %+v", entries[0])
		}
		if !entries[0].CreatedAt.Equal(at) {
			t.Fatalf("expected createdAt %v, got %v", at, entries[0].CreatedAt)
		}
	})

	mt.Run("empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.auditlogs", mtest.FirstBatch))
		repo := NewAuditRepo(mt.Coll)

		entries, err := repo.ListAfter(context.Background(), models.AuditCursor{}, 50)
		if err != nil {
			t.Fatalf("ListAfter: %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", entries)
		}
	})
}

func TestAuditQuery(t *testing.T) {
	id := primitive.NewObjectID()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	q := auditQuery(models.AuditFilter{Entity: "Subject", EntityID: &id, Action: models.ActionUpdate, From: from})

	if q["entity"] != "Subject" || q["entityId"] != id || q["action"] != models.ActionUpdate {
		t.Fatalf("unexpected query: %v", q)
	}
	rng, ok := q["createdAt"].(bson.M)
	if !ok || rng["$gte"] != from {
		t.Fatalf("expected createdAt lower bound, got %v", q["createdAt"])
	}
	if _, ok := rng["$lte"]; ok {
		t.Fatal("did not expect an upper bound")
	}
}

func TestEnsureIndexes(t *testing.T) {
	mt := newMock(t)

	mt.Run("creates all", func(mt *mtest.T) {
		for i := 0; i < 4; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
		}
		if err := EnsureIndexes(context.Background(), mt.DB); err != nil {
			t.Fatalf("EnsureIndexes: %v", err)
		}
	})
}
