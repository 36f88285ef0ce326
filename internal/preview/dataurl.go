// Package preview turns preview bindings into something a terminal can
// show: inline data URLs and staged image bytes are decoded and rendered
// as ASCII art.
package preview

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

var (
	ErrNotDataURL = errors.New("not a data url")
	ErrNotImage   = errors.New("data url is not an image")
)

// ParseDataURL decodes a base64 "data:image/...;base64," URL and returns
// its media type and bytes.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrNotDataURL)
	}
	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrNotDataURL)
	}
	mt, _, err := mime.ParseMediaType(meta)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	if !strings.HasPrefix(mt, "image/") {
		return "", nil, fmt.Errorf("%w: %s", ErrNotImage, mt)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("decode payload: %w", err)
	}
	return mt, data, nil
}

// EncodeDataURL is the inverse of ParseDataURL.
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
