package session

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check for them.
var (
	ErrNoFile       = errors.New("no file chosen")
	ErrNotImage     = errors.New("file is not an image")
	ErrUnknownSlot  = errors.New("unknown upload slot")
	ErrMissingFiles = errors.New("required slots are empty")
	ErrBlankKey     = errors.New("secret key is blank")
	ErrSuperseded   = errors.New("request superseded")
)

// ValidationError is a local, recoverable input error. Message is shown to the user.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// RemoteError is a failed remote operation. Message is what the user sees:
// either the service-supplied text or the fallback for Op.
type RemoteError struct {
	Op      Operation
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text a user should see for err.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
