package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr string
	}{
		{name: "valid", query: Query{UserID: "u", Where: []Condition{Eq("date", "2024-01-01")}, OrderBy: "scanned_at"}},
		{name: "missing user", query: Query{}, wantErr: "user id"},
		{name: "injected field", query: Query{UserID: "u", Where: []Condition{Eq("date;drop", "x")}}, wantErr: "invalid field name"},
		{name: "uppercase field", query: Query{UserID: "u", OrderBy: "Date"}, wantErr: "invalid order field"},
		{name: "bad operator", query: Query{UserID: "u", Where: []Condition{{Field: "date", Op: "!=", Value: "x"}}}, wantErr: "unsupported operator"},
		{name: "negative limit", query: Query{UserID: "u", Limit: -1}, wantErr: "negative limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildFindSQL(t *testing.T) {
	sql, args := buildFindSQL("medication_logs", Query{
		UserID: "u1",
		Where: []Condition{
			Eq("medication_id", "m1"),
			{Field: "date", Op: OpGreaterOrEqual, Value: "2024-05-01"},
		},
		OrderBy:    "date",
		Descending: true,
		Limit:      7,
	})

	assert.Equal(t,
		"SELECT id, user_id, body, created_at, updated_at FROM documents WHERE collection = $1 AND user_id = $2"+
			" AND body->>$3 = $4 AND body->>$5 >= $6 ORDER BY body->>$7 DESC, created_at DESC LIMIT $8",
		sql)
	assert.Equal(t, []any{"medication_logs", "u1", "medication_id", "m1", "date", "2024-05-01", "date", 7}, args)
}

func TestBuildFindSQL_DefaultsToCreationOrder(t *testing.T) {
	sql, args := buildFindSQL("meals", Query{UserID: "u"})

	assert.Equal(t, "SELECT id, user_id, body, created_at, updated_at FROM documents WHERE collection = $1 AND user_id = $2 ORDER BY created_at ASC", sql)
	assert.Equal(t, []any{"meals", "u"}, args)
}

func TestBuildMongoFind(t *testing.T) {
	filter, opts := buildMongoFind(Query{
		UserID:     "u1",
		Where:      []Condition{Eq("source", "scan"), {Field: "date", Op: OpLessOrEqual, Value: "2024-05-07"}},
		OrderBy:    "scanned_at",
		Descending: true,
		Limit:      10,
	})

	assert.Equal(t, bson.D{
		{Key: "user_id", Value: "u1"},
		{Key: "body.source", Value: "scan"},
		{Key: "body.date", Value: bson.M{"$lte": "2024-05-07"}},
	}, filter)
	assert.Equal(t, bson.D{{Key: "body.scanned_at", Value: -1}, {Key: "created_at", Value: -1}}, opts.Sort)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(10), *opts.Limit)
}

func TestMongoDocumentRoundTrip(t *testing.T) {
	stored, err := toMongoDocument(RawDocument{
		ID:     "id-1",
		UserID: "u1",
		Body:   []byte(`{"name":"Banana","calories":105,"carbs":27.5}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", stored["_id"])

	raw, err := bson.Marshal(stored["body"])
	require.NoError(t, err)

	doc, err := fromMongoDocument(mongoDocument{ID: "id-1", UserID: "u1", Body: raw})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Banana","calories":105,"carbs":27.5}`, string(doc.Body))
}
