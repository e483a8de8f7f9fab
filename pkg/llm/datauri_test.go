package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	mimeType, data, err := DecodeDataURI("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte("hello"), data)

	for _, bad := range []string{
		"https://example.com/pill.jpg",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
	} {
		_, _, err := DecodeDataURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestImageFormat(t *testing.T) {
	assert.Equal(t, "png", ImageFormat("image/png"))
	assert.Equal(t, "jpeg", ImageFormat("image/jpg"))
	assert.Equal(t, "jpeg", ImageFormat("application"))
	assert.Equal(t, "webp", ImageFormat("image/webp"))
}
