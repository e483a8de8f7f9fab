package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
)

// mongoDocument is the stored shape: owner and timestamps at the top level,
// the model itself as a sub-document.
type mongoDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Body      bson.Raw  `bson:"body"`
}

type mongoDocumentStore struct {
	db *mongo.Database
}

// NewMongoDocumentStore creates a DocumentStore with one MongoDB collection
// per document collection.
func NewMongoDocumentStore(db *mongo.Database) DocumentStore {
	return &mongoDocumentStore{db: db}
}

var _ DocumentStore = (*mongoDocumentStore)(nil)

func (s *mongoDocumentStore) Insert(ctx context.Context, collection string, doc RawDocument) error {
	stored, err := toMongoDocument(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, stored); err != nil {
		return fmt.Errorf("insert %s document: %w", collection, err)
	}
	return nil
}

func (s *mongoDocumentStore) Get(ctx context.Context, collection, id string) (*RawDocument, error) {
	var stored mongoDocument
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s document: %w", collection, err)
	}
	return fromMongoDocument(stored)
}

func (s *mongoDocumentStore) Update(ctx context.Context, collection string, doc RawDocument) error {
	var body bson.M
	if err := bson.UnmarshalExtJSON(doc.Body, false, &body); err != nil {
		return fmt.Errorf("convert body: %w", err)
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": doc.ID, "user_id": doc.UserID},
		bson.M{"$set": bson.M{"body": body, "updated_at": doc.UpdatedAt}})
	if err != nil {
		return fmt.Errorf("update %s document: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *mongoDocumentStore) Delete(ctx context.Context, collection, userID, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *mongoDocumentStore) Find(ctx context.Context, collection string, q Query) ([]RawDocument, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	filter, opts := buildMongoFind(q)
	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s documents: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []RawDocument
	for cursor.Next(ctx) {
		var stored mongoDocument
		if err := cursor.Decode(&stored); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		doc, err := fromMongoDocument(stored)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", collection, err)
	}
	return docs, nil
}

func buildMongoFind(q Query) (bson.D, *options.FindOptions) {
	filter := bson.D{{Key: "user_id", Value: q.UserID}}
	for _, c := range q.Where {
		key := "body." + c.Field
		switch c.Op {
		case OpGreaterOrEqual:
			filter = append(filter, bson.E{Key: key, Value: bson.M{"$gte": c.Value}})
		case OpLessOrEqual:
			filter = append(filter, bson.E{Key: key, Value: bson.M{"$lte": c.Value}})
		default:
			filter = append(filter, bson.E{Key: key, Value: c.Value})
		}
	}

	opts := options.Find()
	dir := 1
	if q.Descending {
		dir = -1
	}
	if q.OrderBy != "" {
		opts.SetSort(bson.D{{Key: "body." + q.OrderBy, Value: dir}, {Key: "created_at", Value: dir}})
	} else {
		opts.SetSort(bson.D{{Key: "created_at", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return filter, opts
}

func toMongoDocument(doc RawDocument) (bson.M, error) {
	var body bson.M
	if err := bson.UnmarshalExtJSON(doc.Body, false, &body); err != nil {
		return nil, fmt.Errorf("convert body: %w", err)
	}
	return bson.M{
		"_id":        doc.ID,
		"user_id":    doc.UserID,
		"created_at": doc.CreatedAt,
		"updated_at": doc.UpdatedAt,
		"body":       body,
	}, nil
}

func fromMongoDocument(stored mongoDocument) (*RawDocument, error) {
	body, err := bson.MarshalExtJSON(stored.Body, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert body: %w", err)
	}
	return &RawDocument{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Body:      body,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}
