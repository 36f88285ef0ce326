package modals

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Action represents what the modal wants the parent to do.
type Action int

const (
	ActionContinue Action = iota // Keep the modal open
	ActionClose                  // Close the modal
)

// Modal is the interface every overlay implements.
type Modal interface {
	// Init prepares the modal each time it is shown.
	Init() tea.Cmd

	// HandleKey processes keyboard input.
	// Returns the action to take and any commands.
	HandleKey(msg tea.KeyMsg) (Action, tea.Cmd)

	// Update processes tea messages (for async results).
	Update(msg tea.Msg) tea.Cmd

	// RenderOverlay returns the modal UI lines.
	RenderOverlay(width int) []string

	// IsComplete returns true once the modal finished successfully.
	IsComplete() bool

	// Error returns any error message.
	Error() string
}

var (
	_ Modal = (*Picker)(nil)
	_ Modal = (*Alert)(nil)
	_ Modal = (*Help)(nil)
)
