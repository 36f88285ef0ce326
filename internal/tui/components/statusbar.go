package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// StatusBar manages the bottom status bar.
type StatusBar struct {
	message string
	isErr   bool
	busy    string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetMessage shows an informational message.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
	s.isErr = false
}

// SetError shows an error message.
func (s *StatusBar) SetError(msg string) {
	s.message = msg
	s.isErr = true
}

// SetBusy shows an activity indicator; empty clears it.
func (s *StatusBar) SetBusy(indicator string) {
	s.busy = indicator
}

// Message returns the current message.
func (s *StatusBar) Message() string {
	return s.message
}

// Render renders the status bar with the key help on the left.
func (s *StatusBar) Render(width int, helpView string, p Palette) string {
	right := s.message
	if s.isErr {
		right = p.ErrorText(right)
	} else {
		right = lipgloss.NewStyle().Faint(true).Render(right)
	}
	if s.busy != "" {
		right = s.busy + " " + right
	}

	// Ensure right part is always visible
	rightW := lipgloss.Width(right)
	if rightW >= width {
		return ansi.Truncate(right, width, "…")
	}

	avail := width - rightW - 1
	left := helpView
	if lipgloss.Width(left) > avail {
		left = ansi.Truncate(left, avail, "…")
	} else if lipgloss.Width(left) < avail {
		left = left + strings.Repeat(" ", avail-lipgloss.Width(left))
	}

	return left + " " + right
}
