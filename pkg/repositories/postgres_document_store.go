package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zenarog/zenarog-engine/pkg/apperrors"
	"github.com/zenarog/zenarog-engine/pkg/database"
)

// postgresDocumentStore keeps every collection in the documents JSONB table.
type postgresDocumentStore struct {
	db *database.DB
}

// NewPostgresDocumentStore creates a DocumentStore backed by PostgreSQL.
func NewPostgresDocumentStore(db *database.DB) DocumentStore {
	return &postgresDocumentStore{db: db}
}

var _ DocumentStore = (*postgresDocumentStore)(nil)

func (s *postgresDocumentStore) Insert(ctx context.Context, collection string, doc RawDocument) error {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return fmt.Errorf("%w: document id must be a UUID", apperrors.ErrInvalidInput)
	}

	query := `
		INSERT INTO documents (collection, id, user_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = s.db.Exec(ctx, query, collection, id, doc.UserID, []byte(doc.Body), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert %s document: %w", collection, err)
	}
	return nil
}

func (s *postgresDocumentStore) Get(ctx context.Context, collection, id string) (*RawDocument, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	query := `
		SELECT id, user_id, body, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(s.db.QueryRow(ctx, query, collection, docID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s document: %w", collection, err)
	}
	return doc, nil
}

func (s *postgresDocumentStore) Update(ctx context.Context, collection string, doc RawDocument) error {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return apperrors.ErrNotFound
	}

	query := `
		UPDATE documents
		SET body = $4, updated_at = $5
		WHERE collection = $1 AND id = $2 AND user_id = $3`

	tag, err := s.db.Exec(ctx, query, collection, id, doc.UserID, []byte(doc.Body), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update %s document: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *postgresDocumentStore) Delete(ctx context.Context, collection, userID, id string) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return apperrors.ErrNotFound
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2 AND user_id = $3`,
		collection, docID, userID)
	if err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *postgresDocumentStore) Find(ctx context.Context, collection string, q Query) ([]RawDocument, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	sql, args := buildFindSQL(collection, q)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s documents: %w", collection, err)
	}
	defer rows.Close()

	var docs []RawDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s document: %w", collection, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", collection, err)
	}
	return docs, nil
}

// buildFindSQL renders a validated query. Field names travel as bind
// parameters, so only the operator and direction are spliced into the text.
func buildFindSQL(collection string, q Query) (string, []any) {
	var b strings.Builder
	args := []any{collection, q.UserID}

	b.WriteString(`SELECT id, user_id, body, created_at, updated_at FROM documents WHERE collection = $1 AND user_id = $2`)

	for _, c := range q.Where {
		args = append(args, c.Field, c.Value)
		op := "="
		switch c.Op {
		case OpGreaterOrEqual:
			op = ">="
		case OpLessOrEqual:
			op = "<="
		}
		fmt.Fprintf(&b, " AND body->>$%d %s $%d", len(args)-1, op, len(args))
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY body->>$%d %s, created_at %s", len(args), dir, dir)
	} else {
		b.WriteString(" ORDER BY created_at ASC")
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	return b.String(), args
}

func scanDocument(row pgx.Row) (*RawDocument, error) {
	var (
		doc  RawDocument
		id   uuid.UUID
		body []byte
	)
	if err := row.Scan(&id, &doc.UserID, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.ID = id.String()
	doc.Body = body
	return &doc, nil
}
