package session

import "strings"

const imageClassPrefix = "image/"

const msgNotImage = "file must be a JPG/PNG image"

// Validate classifies a candidate file by its declared content type. A nil
// file returns ErrNoFile, which callers treat as a dismissed picker rather
// than a user error. Size is not checked; the service enforces its own cap.
func Validate(f *PendingFile) error {
	if f == nil {
		return ErrNoFile
	}
	if !strings.HasPrefix(strings.ToLower(f.ContentType), imageClassPrefix) {
		return newValidationError("file", msgNotImage, ErrNotImage)
	}
	return nil
}
