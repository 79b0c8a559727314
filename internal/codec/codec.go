// Package codec moves binary image data through text channels: storage,
// outbound provider requests and data URIs for display or download.
package codec

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// Encode returns the standard Base64 encoding of data.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode.
func Decode(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return data, nil
}

// DataURI builds a data: URI suitable for an <img src> or <a href>.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + Encode(data)
}

// ParseDataURI splits a base64 data URI into its media type and payload.
// A bare base64 string without the data: prefix is accepted and reported
// with an empty media type.
func ParseDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		data, err := Decode(uri)
		return "", data, err
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: missing payload separator")
	}

	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("unsupported data URI encoding: %q", header)
	}

	data, err := Decode(payload)
	if err != nil {
		return "", nil, err
	}
	return mediaType, data, nil
}

// FileName derives the download name for a design or video from its id.
func FileName(id, mediaType string) string {
	return "tattoo-design-" + id + Extension(mediaType)
}

// Extension maps a media type to a file extension, defaulting to .png.
func Extension(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".png"
}
