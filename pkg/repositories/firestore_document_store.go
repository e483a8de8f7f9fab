package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
)

type firestoreDocumentStore struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreDocumentStore creates a DocumentStore with one Firestore
// collection per document collection. It also implements Watcher.
func NewFirestoreDocumentStore(client *firestore.Client, logger *zap.Logger) DocumentStore {
	return &firestoreDocumentStore{client: client, logger: logger.Named("firestore-store")}
}

var (
	_ DocumentStore = (*firestoreDocumentStore)(nil)
	_ Watcher       = (*firestoreDocumentStore)(nil)
)

func (s *firestoreDocumentStore) Insert(ctx context.Context, collection string, doc RawDocument) error {
	data, err := toFirestoreData(doc)
	if err != nil {
		return err
	}
	if _, err := s.client.Collection(collection).Doc(doc.ID).Create(ctx, data); err != nil {
		return fmt.Errorf("insert %s document: %w", collection, err)
	}
	return nil
}

func (s *firestoreDocumentStore) Get(ctx context.Context, collection, id string) (*RawDocument, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s document: %w", collection, err)
	}
	return fromFirestoreSnapshot(snap)
}

func (s *firestoreDocumentStore) Update(ctx context.Context, collection string, doc RawDocument) error {
	ref := s.client.Collection(collection).Doc(doc.ID)

	var body map[string]any
	if err := json.Unmarshal(doc.Body, &body); err != nil {
		return fmt.Errorf("convert body: %w", err)
	}

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s document: %w", collection, err)
		}
		if owner, _ := snap.Data()["user_id"].(string); owner != doc.UserID {
			return apperrors.ErrNotFound
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "body", Value: body},
			{Path: "updated_at", Value: doc.UpdatedAt},
		})
	})
}

func (s *firestoreDocumentStore) Delete(ctx context.Context, collection, userID, id string) error {
	ref := s.client.Collection(collection).Doc(id)

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s document: %w", collection, err)
		}
		if owner, _ := snap.Data()["user_id"].(string); owner != userID {
			return apperrors.ErrNotFound
		}
		return tx.Delete(ref)
	})
}

func (s *firestoreDocumentStore) Find(ctx context.Context, collection string, q Query) ([]RawDocument, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	snaps, err := s.buildQuery(collection, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("find %s documents: %w", collection, err)
	}

	docs := make([]RawDocument, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := fromFirestoreSnapshot(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Watch implements Watcher using query snapshot listeners.
func (s *firestoreDocumentStore) Watch(ctx context.Context, collection string, q Query) (<-chan struct{}, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	it := s.buildQuery(collection, q).Snapshots(ctx)
	signals := make(chan struct{}, 1)

	go func() {
		defer close(signals)
		defer it.Stop()

		first := true
		for {
			_, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
					s.logger.Warn("Snapshot listener stopped",
						zap.String("collection", collection),
						zap.Error(err))
				}
				return
			}
			// The first snapshot mirrors the caller's initial read.
			if first {
				first = false
				continue
			}
			select {
			case signals <- struct{}{}:
			default:
			}
		}
	}()

	return signals, nil
}

func (s *firestoreDocumentStore) buildQuery(collection string, q Query) firestore.Query {
	query := s.client.Collection(collection).Where("user_id", "==", q.UserID)
	for _, c := range q.Where {
		query = query.Where("body."+c.Field, string(c.Op), c.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy("body."+q.OrderBy, dir)
	} else {
		query = query.OrderBy("created_at", firestore.Asc)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func toFirestoreData(doc RawDocument) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(doc.Body, &body); err != nil {
		return nil, fmt.Errorf("convert body: %w", err)
	}
	return map[string]any{
		"user_id":    doc.UserID,
		"created_at": doc.CreatedAt,
		"updated_at": doc.UpdatedAt,
		"body":       body,
	}, nil
}

func fromFirestoreSnapshot(snap *firestore.DocumentSnapshot) (*RawDocument, error) {
	data := snap.Data()

	body, err := json.Marshal(data["body"])
	if err != nil {
		return nil, fmt.Errorf("convert body: %w", err)
	}

	doc := &RawDocument{ID: snap.Ref.ID, Body: body}
	doc.UserID, _ = data["user_id"].(string)
	doc.CreatedAt, _ = data["created_at"].(time.Time)
	doc.UpdatedAt, _ = data["updated_at"].(time.Time)
	return doc, nil
}
