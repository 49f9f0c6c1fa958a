package content

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrUnavailable is returned when a stored payload cannot be decoded.
var ErrUnavailable = errors.New("content unavailable")

const (
	dataScheme   = "data:"
	base64Marker = ";base64"

	defaultMimeType = "application/octet-stream"
)

// Payload is a decoded embedded payload.
type Payload struct {
	MimeType string
	Data     []byte
}

// Encode returns the base64 data URL of data.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	var sb strings.Builder
	sb.Grow(len(dataScheme) + len(mimeType) + len(base64Marker) + 1 + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString(dataScheme)
	sb.WriteString(mimeType)
	sb.WriteString(base64Marker)
	sb.WriteByte(',')
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// Decode parses a base64 data URL produced by Encode.
// Any malformed input yields ErrUnavailable.
func Decode(dataURL string) (Payload, error) {
	if !strings.HasPrefix(dataURL, dataScheme) {
		return Payload{}, ErrUnavailable
	}
	meta, encoded, ok := strings.Cut(dataURL[len(dataScheme):], ",")
	if !ok || !strings.HasSuffix(meta, base64Marker) {
		return Payload{}, ErrUnavailable
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, ErrUnavailable
	}
	mimeType := strings.TrimSuffix(meta, base64Marker)
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	return Payload{MimeType: mimeType, Data: data}, nil
}

// InferType guesses the resource type of a file from its MIME type.
// It returns "" when nothing matches.
func InferType(mimeType string) string {
	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.Contains(mimeType, "pdf"):
		return "pdf"
	case strings.Contains(mimeType, "image"):
		return "image"
	case strings.Contains(mimeType, "video"):
		return "video"
	case strings.Contains(mimeType, "audio"):
		return "audio"
	case strings.Contains(mimeType, "text"):
		return "text"
	}
	return ""
}
