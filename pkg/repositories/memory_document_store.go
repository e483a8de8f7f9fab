package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
)

// MemoryDocumentStore keeps documents in process memory.
type MemoryDocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]RawDocument
}

// NewMemoryDocumentStore creates an empty in-memory store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{collections: make(map[string]map[string]RawDocument)}
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)

func (s *MemoryDocumentStore) Insert(_ context.Context, collection string, doc RawDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if docs == nil {
		docs = make(map[string]RawDocument)
		s.collections[collection] = docs
	}
	if _, exists := docs[doc.ID]; exists {
		return fmt.Errorf("%w: document %s already exists", apperrors.ErrConflict, doc.ID)
	}
	docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (s *MemoryDocumentStore) Get(_ context.Context, collection, id string) (*RawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := cloneDocument(doc)
	return &clone, nil
}

func (s *MemoryDocumentStore) Update(_ context.Context, collection string, doc RawDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][doc.ID]
	if !ok || existing.UserID != doc.UserID {
		return apperrors.ErrNotFound
	}
	existing.Body = append(json.RawMessage(nil), doc.Body...)
	existing.UpdatedAt = doc.UpdatedAt
	s.collections[collection][doc.ID] = existing
	return nil
}

func (s *MemoryDocumentStore) Delete(_ context.Context, collection, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok || existing.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryDocumentStore) Find(_ context.Context, collection string, q Query) ([]RawDocument, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	s.mu.RLock()
	type candidate struct {
		doc    RawDocument
		fields map[string]any
	}
	var matches []candidate
	for _, doc := range s.collections[collection] {
		if doc.UserID != q.UserID {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(doc.Body, &fields); err != nil {
			s.mu.RUnlock()
			return nil, fmt.Errorf("decode %s document %s: %w", collection, doc.ID, err)
		}
		if matchesAll(fields, q.Where) {
			matches = append(matches, candidate{doc: cloneDocument(doc), fields: fields})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if q.OrderBy != "" {
			av, bv := stringField(a.fields, q.OrderBy), stringField(b.fields, q.OrderBy)
			if av != bv {
				if q.Descending {
					return av > bv
				}
				return av < bv
			}
		}
		if q.Descending && q.OrderBy != "" {
			return a.doc.CreatedAt.After(b.doc.CreatedAt)
		}
		return a.doc.CreatedAt.Before(b.doc.CreatedAt)
	})

	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}

	docs := make([]RawDocument, len(matches))
	for i, m := range matches {
		docs[i] = m.doc
	}
	return docs, nil
}

func matchesAll(fields map[string]any, conds []Condition) bool {
	for _, c := range conds {
		v, ok := fields[c.Field].(string)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEqual:
			if v != c.Value {
				return false
			}
		case OpGreaterOrEqual:
			if v < c.Value {
				return false
			}
		case OpLessOrEqual:
			if v > c.Value {
				return false
			}
		}
	}
	return true
}

func stringField(fields map[string]any, name string) string {
	v, _ := fields[name].(string)
	return v
}

func cloneDocument(doc RawDocument) RawDocument {
	doc.Body = append(json.RawMessage(nil), doc.Body...)
	return doc
}
