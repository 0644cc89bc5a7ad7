package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crucial707/timetable-api/internal/models"
)

type SubjectRepo struct {
	coll *mongo.Collection
}

func NewSubjectRepo(coll *mongo.Collection) *SubjectRepo {
	return &SubjectRepo{coll: coll}
}

// Insert stores s. A code already in use yields a unique violation on "code".
func (r *SubjectRepo) Insert(ctx context.Context, s *models.Subject) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		if field, ok := duplicateField(err, "code"); ok {
			return models.Duplicate(models.EntitySubject, field)
		}
		return err
	}
	return nil
}

func (r *SubjectRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Subject, error) {
	var s models.Subject
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// List returns subjects ordered by semester then code.
func (r *SubjectRepo) List(ctx context.Context, f models.SubjectFilter) ([]models.Subject, error) {
	opts := page(f.Limit, f.Offset).SetSort(bson.D{{Key: "semester", Value: 1}, {Key: "code", Value: 1}})
	cur, err := r.coll.Find(ctx, subjectQuery(f), opts)
	if err != nil {
		return nil, err
	}
	subjects := []models.Subject{}
	if err := cur.All(ctx, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *SubjectRepo) Count(ctx context.Context, f models.SubjectFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, subjectQuery(f))
}

// Replace overwrites the stored document with s.
func (r *SubjectRepo) Replace(ctx context.Context, s *models.Subject) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		if field, ok := duplicateField(err, "code"); ok {
			return models.Duplicate(models.EntitySubject, field)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *SubjectRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func subjectQuery(f models.SubjectFilter) bson.M {
	q := bson.M{}
	if f.Department != nil {
		q["department"] = *f.Department
	}
	if f.Semester > 0 {
		q["semester"] = f.Semester
	}
	if f.IsLab != nil {
		q["isLab"] = *f.IsLab
	}
	if f.ElectiveGroup != "" {
		q["electiveGroup"] = f.ElectiveGroup
	}
	return q
}
