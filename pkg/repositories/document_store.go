package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jinzhu/inflection"
)

// Operator is a comparison supported by every store backend.
type Operator string

const (
	OpEqual          Operator = "=="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
)

// Condition filters documents on a top-level string field of the body.
type Condition struct {
	Field string
	Op    Operator
	Value string
}

// Eq is shorthand for an equality condition.
func Eq(field, value string) Condition {
	return Condition{Field: field, Op: OpEqual, Value: value}
}

// Query selects one user's documents within a collection.
type Query struct {
	UserID     string
	Where      []Condition
	OrderBy    string
	Descending bool
	Limit      int
}

// RawDocument is a stored document with its body kept as JSON.
type RawDocument struct {
	ID        string
	UserID    string
	Body      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore is the contract every persistence backend implements.
// Get returns apperrors.ErrNotFound for a missing id. Update and Delete are
// scoped to the owning user and return apperrors.ErrNotFound when no document
// of that user matches.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, doc RawDocument) error
	Get(ctx context.Context, collection, id string) (*RawDocument, error)
	Update(ctx context.Context, collection string, doc RawDocument) error
	Delete(ctx context.Context, collection, userID, id string) error
	Find(ctx context.Context, collection string, q Query) ([]RawDocument, error)
}

// Watcher is implemented by backends that push query changes natively.
// The returned channel receives a signal whenever the query result may have
// changed and is closed when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, collection string, q Query) (<-chan struct{}, error)
}

// CollectionName returns the collection that stores documents of a kind.
func CollectionName(kind string) string {
	return inflection.Plural(kind)
}

var fieldNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate rejects queries a backend cannot execute safely.
func (q Query) Validate() error {
	if q.UserID == "" {
		return fmt.Errorf("query requires a user id")
	}
	for _, c := range q.Where {
		if !fieldNamePattern.MatchString(c.Field) {
			return fmt.Errorf("invalid field name %q", c.Field)
		}
		switch c.Op {
		case OpEqual, OpGreaterOrEqual, OpLessOrEqual:
		default:
			return fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	if q.OrderBy != "" && !fieldNamePattern.MatchString(q.OrderBy) {
		return fmt.Errorf("invalid order field %q", q.OrderBy)
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit")
	}
	return nil
}
