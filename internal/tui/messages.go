package tui

import (
	"github.com/interpretive-systems/peekaboo/internal/session"
)

// fileSource tells where a loaded file goes.
type fileSource int

const (
	fromPicker fileSource = iota
	fromDrop
)

// opResultMsg carries a settled remote call.
type opResultMsg struct {
	req *session.Request
	res session.Result
	err error
}

// fileLoadedMsg carries a file read from disk.
type fileLoadedMsg struct {
	source fileSource
	slot   session.Slot
	path   string
	file   *session.PendingFile
	err    error
}

// dropMsg fires once the drag-over delay for a pasted path has passed.
type dropMsg struct {
	slot  session.Slot
	path  string
	token int
}

// previewMsg contains a rendered preview for a binding.
type previewMsg struct {
	binding string
	art     string
	err     error
}

// downloadMsg reports a finished download.
type downloadMsg struct {
	path string
	err  error
}

// clipboardMsg reports a clipboard copy.
type clipboardMsg struct {
	text string
	err  error
}
