// Package mongodb provides the MongoDB-backed implementation of the
// storage.Storage interface.
//
// Students live in a single collection. Documents are shaped exactly like
// types.Student thanks to its bson tags:
//
//	{ _id: ObjectId, name: "...", age: 20, address: { city: "...", country: "..." } }
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// MongoDB is the concrete implementation of storage.Storage.
// A *mongo.Client is a connection pool and is safe for concurrent use.
type MongoDB struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to the cluster named by cfg.Storage.MongoURI and verifies
// the connection with a ping before returning.
func New(ctx context.Context, cfg *config.Config) (*MongoDB, error) {
	timeout := cfg.Storage.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.Storage.MongoURI).
		SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb.New: ping: %w", err)
	}

	return NewWithClient(client, cfg.Storage.Database, cfg.Storage.Collection), nil
}

// NewWithClient wraps an already connected client.
func NewWithClient(client *mongo.Client, database, collection string) *MongoDB {
	return &MongoDB{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (m *MongoDB) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	// Never trust a caller-provided id; let the server assign one.
	student.ID = primitive.NilObjectID

	res, err := m.collection.InsertOne(ctx, student)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: insert: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("CreateStudent: unexpected inserted id type %T", res.InsertedID)
	}

	return id.Hex(), nil
}

// filterDocument translates a StudentFilter into a query document.
func filterDocument(filter types.StudentFilter) bson.M {
	query := bson.M{}
	if filter.Country != "" {
		query["address.country"] = filter.Country
	}
	if filter.MinAge != nil {
		query["age"] = bson.M{"$gte": *filter.MinAge}
	}
	return query
}

func (m *MongoDB) GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	cur, err := m.collection.Find(ctx, filterDocument(filter))
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}
	defer cur.Close(ctx)

	students := make([]types.Student, 0)
	if err := cur.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("GetStudents: decode: %w", err)
	}

	return students, nil
}

func (m *MongoDB) GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.Student, error) {
	var student types.Student

	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: find: %w", err)
	}

	return student, nil
}

func (m *MongoDB) UpdateStudentByID(ctx context.Context, id primitive.ObjectID, patch types.StudentPatch) (int64, error) {
	fields := patch.Fields()
	// MongoDB rejects an empty $set, and an empty patch modifies nothing.
	if len(fields) == 0 {
		return 0, nil
	}

	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: update: %w", err)
	}

	return res.ModifiedCount, nil
}

func (m *MongoDB) DeleteStudentByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: delete: %w", err)
	}

	return res.DeletedCount, nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("Ping: %w", err)
	}
	return nil
}

// Close disconnects the client, giving in-flight operations up to five
// seconds when ctx has no deadline of its own.
func (m *MongoDB) Close(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("Close: disconnect: %w", err)
	}
	return nil
}
