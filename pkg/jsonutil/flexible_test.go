package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{
			name:  "string value",
			input: json.RawMessage(`"hello"`),
			want:  "hello",
		},
		{
			name:  "integer value",
			input: json.RawMessage(`42`),
			want:  "42",
		},
		{
			name:  "float value",
			input: json.RawMessage(`3.14`),
			want:  "3.14",
		},
		{
			name:  "boolean true",
			input: json.RawMessage(`true`),
			want:  "true",
		},
		{
			name:  "boolean false",
			input: json.RawMessage(`false`),
			want:  "false",
		},
		{
			name:  "null value",
			input: json.RawMessage(`null`),
			want:  "",
		},
		{
			name:  "empty raw message",
			input: json.RawMessage{},
			want:  "",
		},
		{
			name:  "nil raw message",
			input: nil,
			want:  "",
		},
		{
			name:  "large integer preserves precision",
			input: json.RawMessage(`9007199254740992`),
			want:  "9007199254740992",
		},
		{
			name:  "nested object falls back to raw string",
			input: json.RawMessage(`{"key":"value"}`),
			want:  `{"key":"value"}`,
		},
		{
			name:  "array falls back to raw string",
			input: json.RawMessage(`[1,2,3]`),
			want:  `[1,2,3]`,
		},
		{
			name:  "negative integer",
			input: json.RawMessage(`-7`),
			want:  "-7",
		},
		{
			name:  "zero",
			input: json.RawMessage(`0`),
			want:  "0",
		},
		{
			name:  "empty string",
			input: json.RawMessage(`""`),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", string(tt.input), got, tt.want)
			}
		})
	}
}

func TestFlexibleTypes_Decode(t *testing.T) {
	var reply struct {
		Name       String  `json:"name"`
		Joined     String  `json:"joined"`
		Number     String  `json:"number"`
		Object     String  `json:"object"`
		List       Strings `json:"list"`
		Single     Strings `json:"single"`
		Empty      Strings `json:"empty"`
		Null       Strings `json:"null"`
		Mixed      Strings `json:"mixed"`
		Yes        Bool    `json:"yes"`
		TrueText   Bool    `json:"true_text"`
		Real       Bool    `json:"real"`
		Garbage    Bool    `json:"garbage"`
		Percent    Float   `json:"percent"`
		Plain      Float   `json:"plain"`
		NotANumber Float   `json:"nan"`
	}

	err := json.Unmarshal([]byte(`{
		"name": "  Crocin ",
		"joined": ["a", "b"],
		"number": 650,
		"object": {"x": 1},
		"list": ["Fever", "", "Pain"],
		"single": "Cold",
		"empty": "",
		"null": null,
		"mixed": ["x", 2, {"y": 1}, true],
		"yes": "Yes",
		"true_text": "true",
		"real": true,
		"garbage": {"a": 1},
		"percent": "85%",
		"plain": 0.42,
		"nan": "high"
	}`), &reply)
	require.NoError(t, err)

	assert.Equal(t, String("Crocin"), reply.Name)
	assert.Equal(t, String("a, b"), reply.Joined)
	assert.Equal(t, String("650"), reply.Number)
	assert.Equal(t, String(""), reply.Object)
	assert.Equal(t, Strings{"Fever", "Pain"}, reply.List)
	assert.Equal(t, Strings{"Cold"}, reply.Single)
	assert.Nil(t, reply.Empty)
	assert.Nil(t, reply.Null)
	assert.Equal(t, Strings{"x", "2", "true"}, reply.Mixed)
	assert.True(t, bool(reply.Yes))
	assert.True(t, bool(reply.TrueText))
	assert.True(t, bool(reply.Real))
	assert.False(t, bool(reply.Garbage))
	assert.InDelta(t, 85, float64(reply.Percent), 0.0001)
	assert.InDelta(t, 0.42, float64(reply.Plain), 0.0001)
	assert.Zero(t, float64(reply.NotANumber))
}
