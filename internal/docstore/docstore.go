// Package docstore keeps catalog, user and audit documents in MongoDB.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/crucial707/timetable-api/internal/models"
)

const (
	CollectionUsers       = "users"
	CollectionDepartments = "departments"
	CollectionSubjects    = "subjects"
	CollectionAuditLogs   = "auditlogs"
)

// Store bundles the repositories of one database.
type Store struct {
	DB          *mongo.Database
	Audit       *AuditRepo
	Subjects    *SubjectRepo
	Departments *DepartmentRepo
	Users       *UserRepo
}

func New(db *mongo.Database) *Store {
	return &Store{
		DB:          db,
		Audit:       NewAuditRepo(db.Collection(CollectionAuditLogs)),
		Subjects:    NewSubjectRepo(db.Collection(CollectionSubjects)),
		Departments: NewDepartmentRepo(db.Collection(CollectionDepartments)),
		Users:       NewUserRepo(db.Collection(CollectionUsers)),
	}
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Client().Ping(ctx, readpref.Primary())
}

// Connect opens a client and verifies the connection. Embedded documents in
// schema-less fields decode as maps so snapshots serialize cleanly to JSON.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
// Creating an index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		CollectionDepartments: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
		},
		CollectionSubjects: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "department", Value: 1}, {Key: "semester", Value: 1}}},
		},
		CollectionAuditLogs: {
			{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "entityId", Value: 1}}},
			{Keys: bson.D{{Key: "performedBy", Value: 1}}},
		},
	}
	for coll, idx := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// duplicateField reports which unique field a duplicate-key error hit. The
// server names the index ("index: code_1") in the error message.
func duplicateField(err error, fields ...string) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	for _, f := range fields {
		if strings.Contains(msg, "index: "+f+"_1") {
			return f, true
		}
	}
	if len(fields) > 0 {
		return fields[0], true
	}
	return "", true
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return err
}

func page(limit, offset int) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	return opts
}
