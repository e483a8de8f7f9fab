package llm

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeDataURI splits a base64 data URI into its MIME type and payload.
func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// ImageFormat returns the genai image format ("jpeg", "png", ...) for a MIME type.
func ImageFormat(mimeType string) string {
	_, format, ok := strings.Cut(mimeType, "/")
	if !ok || format == "" {
		return "jpeg"
	}
	if format == "jpg" {
		return "jpeg"
	}
	return format
}
