package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/models"
	"github.com/zenarog/zenarog-engine/pkg/realtime"
)

// Collection is a typed, user-scoped repository for one document kind.
// T is a pointer to a model struct embedding models.DocumentMeta.
type Collection[T models.Document] struct {
	store  DocumentStore
	bus    realtime.Bus
	name   string
	newFn  func() T
	logger *zap.Logger
	now    func() time.Time
}

// NewCollection creates a repository for documents of the given kind.
// newFn must return a fresh, non-nil T.
func NewCollection[T models.Document](store DocumentStore, bus realtime.Bus, kind string, newFn func() T, logger *zap.Logger) *Collection[T] {
	name := CollectionName(kind)
	return &Collection[T]{
		store:  store,
		bus:    bus,
		name:   name,
		newFn:  newFn,
		logger: logger.Named("collection").With(zap.String("collection", name)),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Create assigns an id and timestamps to doc and stores it for userID.
func (c *Collection[T]) Create(ctx context.Context, userID string, doc T) error {
	meta := doc.Meta()
	now := c.now()
	meta.ID = uuid.NewString()
	meta.UserID = userID
	meta.CreatedAt = now
	meta.UpdatedAt = now

	raw, err := c.encode(doc)
	if err != nil {
		return err
	}
	if err := c.store.Insert(ctx, c.name, raw); err != nil {
		return err
	}

	c.publish(ctx, userID, meta.ID, realtime.OpCreate)
	return nil
}

// Get returns the user's document with the given id.
// Documents owned by someone else are reported as apperrors.ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, userID, id string) (T, error) {
	var zero T

	raw, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return zero, err
	}
	if raw.UserID != userID {
		return zero, apperrors.ErrNotFound
	}
	return c.decode(*raw)
}

// Update replaces the stored body of doc. Last writer wins.
func (c *Collection[T]) Update(ctx context.Context, userID string, doc T) error {
	meta := doc.Meta()
	if meta.ID == "" {
		return apperrors.ErrNotFound
	}
	meta.UserID = userID
	meta.UpdatedAt = c.now()

	raw, err := c.encode(doc)
	if err != nil {
		return err
	}
	if err := c.store.Update(ctx, c.name, raw); err != nil {
		return err
	}

	c.publish(ctx, userID, meta.ID, realtime.OpUpdate)
	return nil
}

// Delete removes the user's document with the given id.
func (c *Collection[T]) Delete(ctx context.Context, userID, id string) error {
	if err := c.store.Delete(ctx, c.name, userID, id); err != nil {
		return err
	}
	c.publish(ctx, userID, id, realtime.OpDelete)
	return nil
}

// List returns the documents matching q.
func (c *Collection[T]) List(ctx context.Context, q Query) ([]T, error) {
	raws, err := c.store.Find(ctx, c.name, q)
	if err != nil {
		return nil, err
	}

	docs := make([]T, 0, len(raws))
	for _, raw := range raws {
		doc, err := c.decode(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// First returns the first document matching q, or apperrors.ErrNotFound.
func (c *Collection[T]) First(ctx context.Context, q Query) (T, error) {
	var zero T
	q.Limit = 1
	docs, err := c.List(ctx, q)
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, apperrors.ErrNotFound
	}
	return docs[0], nil
}

// Watch streams the result of q: the current result set first, then a fresh
// result set after every change to the user's collection. The channel is
// closed when ctx is done. Slow consumers see only the latest snapshot.
func (c *Collection[T]) Watch(ctx context.Context, q Query) (<-chan []T, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	// Subscribe before the initial read so no change falls between them.
	var (
		native  <-chan struct{}
		changes <-chan realtime.Change
	)
	if w, ok := c.store.(Watcher); ok {
		signals, err := w.Watch(ctx, c.name, q)
		if err != nil {
			return nil, err
		}
		native = signals
	} else {
		sub, err := c.bus.Subscribe(ctx, realtime.Topic(c.name, q.UserID))
		if err != nil {
			return nil, err
		}
		changes = sub
	}

	initial, err := c.List(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make(chan []T, 1)
	out <- initial

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-native:
				if !ok {
					return
				}
			case _, ok := <-changes:
				if !ok {
					return
				}
			}

			docs, err := c.List(ctx, q)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn("Failed to refresh subscription", zap.Error(err))
				continue
			}
			deliverLatest(out, docs)
		}
	}()

	return out, nil
}

// deliverLatest replaces any undelivered snapshot with docs.
func deliverLatest[T any](out chan []T, docs []T) {
	for {
		select {
		case out <- docs:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func (c *Collection[T]) publish(ctx context.Context, userID, id string, op realtime.Op) {
	if c.bus == nil {
		return
	}
	change := realtime.Change{
		Collection: c.name,
		UserID:     userID,
		DocumentID: id,
		Op:         op,
		At:         c.now(),
	}
	if err := c.bus.Publish(ctx, change); err != nil {
		c.logger.Warn("Failed to publish change",
			zap.String("document_id", id),
			zap.String("op", string(op)),
			zap.Error(err))
	}
}

func (c *Collection[T]) encode(doc T) (RawDocument, error) {
	meta := doc.Meta()
	body, err := json.Marshal(doc)
	if err != nil {
		return RawDocument{}, fmt.Errorf("encode %s document: %w", c.name, err)
	}
	return RawDocument{
		ID:        meta.ID,
		UserID:    meta.UserID,
		Body:      body,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
	}, nil
}

func (c *Collection[T]) decode(raw RawDocument) (T, error) {
	doc := c.newFn()
	if err := json.Unmarshal(raw.Body, doc); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s document %s: %w", c.name, raw.ID, err)
	}
	meta := doc.Meta()
	meta.ID = raw.ID
	meta.UserID = raw.UserID
	meta.CreatedAt = raw.CreatedAt
	meta.UpdatedAt = raw.UpdatedAt
	return doc, nil
}
