package session

import (
	"context"
	"strings"
)

// Operation is one of the two remote operations.
type Operation int

const (
	OpEmbed Operation = iota
	OpExtract
)

func (o Operation) String() string {
	if o == OpExtract {
		return "extract"
	}
	return "embed"
}

// ResultMode returns the result presentation entered on success.
func (o Operation) ResultMode() ResultMode {
	switch o {
	case OpEmbed:
		return ResultEmbed
	case OpExtract:
		return ResultExtract
	default:
		return ResultNone
	}
}

// PreviewSlot is the slot whose preview a successful result replaces.
func (o Operation) PreviewSlot() Slot {
	if o == OpExtract {
		return SlotStego
	}
	return SlotPayload
}

// FallbackMessage is shown when a failure carries no message of its own.
func (o Operation) FallbackMessage() string {
	return o.String() + " failed"
}

// Request is one in-flight attempt. Files are shared with the store, not
// moved, so a failed attempt can be resubmitted as is.
type Request struct {
	Op        Operation
	Cover     *PendingFile // embed: sent as "original"
	Payload   *PendingFile // embed: sent as "cover"
	Stego     *PendingFile // extract
	SecretKey string

	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when the request is superseded or the session closes.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Seq is the request's sequence number within the session.
func (r *Request) Seq() uint64 {
	return r.seq
}

// Result is the settled outcome reported by the remote service.
type Result struct {
	OK          bool
	DownloadURL string
	Preview     string
	Message     string
	FileID      string
}

// HasInlinePreview reports whether Preview is an embedded image resource.
func (r Result) HasInlinePreview() bool {
	return strings.HasPrefix(r.Preview, "data:image/")
}

// Remote performs operations against the steganography service.
// Implementations return an error only for transport or protocol failures;
// a well-formed failure envelope is a Result with OK false.
type Remote interface {
	Send(ctx context.Context, req *Request) (Result, error)
}

// RemoteFunc adapts a function to Remote.
type RemoteFunc func(ctx context.Context, req *Request) (Result, error)

func (f RemoteFunc) Send(ctx context.Context, req *Request) (Result, error) {
	return f(ctx, req)
}

// Notifier receives blocking user notifications.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Navigator follows a download locator.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error { return f(ctx, url) }
