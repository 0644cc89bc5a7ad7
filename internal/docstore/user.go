package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crucial707/timetable-api/internal/models"
)

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(coll *mongo.Collection) *UserRepo {
	return &UserRepo{coll: coll}
}

func (r *UserRepo) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if field, ok := duplicateField(err, "email"); ok {
			return models.Duplicate(models.EntityUser, field)
		}
		return err
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, page(limit, offset).SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *UserRepo) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{"lastLogin": at, "updatedAt": at})
}

func (r *UserRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool, at time.Time) error {
	return r.set(ctx, id, bson.M{"isActive": active, "updatedAt": at})
}

func (r *UserRepo) SaveProfile(ctx context.Context, u *models.User) error {
	return r.set(ctx, u.ID, bson.M{
		"firstName":      u.FirstName,
		"lastName":       u.LastName,
		"phone":          u.Phone,
		"profilePicture": u.ProfilePicture,
		"password":       u.PasswordHash,
		"updatedAt":      u.UpdatedAt,
	})
}

func (r *UserRepo) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
