package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crucial707/timetable-api/internal/models"
)

// AuditRepo appends and reads audit entries. It has no update or delete path.
type AuditRepo struct {
	coll *mongo.Collection
}

func NewAuditRepo(coll *mongo.Collection) *AuditRepo {
	return &AuditRepo{coll: coll}
}

func (r *AuditRepo) Insert(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, entry)
	return err
}

func (r *AuditRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error) {
	var entry models.AuditLog
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// List returns matching entries, newest first.
func (r *AuditRepo) List(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, error) {
	opts := page(f.Limit, f.Offset).SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, auditQuery(f), opts)
}

func (r *AuditRepo) Count(ctx context.Context, f models.AuditFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, auditQuery(f))
}

// ListAfter returns up to limit entries strictly after the cursor, oldest first.
func (r *AuditRepo) ListAfter(ctx context.Context, after models.AuditCursor, limit int) ([]models.AuditLog, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"createdAt": bson.M{"$gt": after.CreatedAt}},
		bson.M{"createdAt": after.CreatedAt, "_id": bson.M{"$gt": after.ID}},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *AuditRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.AuditLog, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	entries := []models.AuditLog{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func auditQuery(f models.AuditFilter) bson.M {
	q := bson.M{}
	if f.Entity != "" {
		q["entity"] = f.Entity
	}
	if f.EntityID != nil {
		q["entityId"] = *f.EntityID
	}
	if f.PerformedBy != nil {
		q["performedBy"] = *f.PerformedBy
	}
	if f.Action != "" {
		q["action"] = f.Action
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		rng := bson.M{}
		if !f.From.IsZero() {
			rng["$gte"] = f.From
		}
		if !f.To.IsZero() {
			rng["$lte"] = f.To
		}
		q["createdAt"] = rng
	}
	return q
}
