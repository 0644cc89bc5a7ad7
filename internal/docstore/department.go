package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crucial707/timetable-api/internal/models"
)

type DepartmentRepo struct {
	coll *mongo.Collection
}

func NewDepartmentRepo(coll *mongo.Collection) *DepartmentRepo {
	return &DepartmentRepo{coll: coll}
}

func (r *DepartmentRepo) Insert(ctx context.Context, d *models.Department) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		if field, ok := duplicateField(err, "code", "name"); ok {
			return models.Duplicate(models.EntityDepartment, field)
		}
		return err
	}
	return nil
}

func (r *DepartmentRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	var d models.Department
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *DepartmentRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *DepartmentRepo) List(ctx context.Context, limit, offset int) ([]models.Department, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, page(limit, offset).SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	departments := []models.Department{}
	if err := cur.All(ctx, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *DepartmentRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *DepartmentRepo) Replace(ctx context.Context, d *models.Department) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		if field, ok := duplicateField(err, "code", "name"); ok {
			return models.Duplicate(models.EntityDepartment, field)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *DepartmentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
