package modals

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Help lists every key binding.
type Help struct {
	model help.Model
	keys  help.KeyMap
}

// NewHelp creates a help overlay for keys.
func NewHelp(keys help.KeyMap) *Help {
	return &Help{model: help.New(), keys: keys}
}

// SetKeys updates the bindings shown.
func (h *Help) SetKeys(keys help.KeyMap) {
	h.keys = keys
}

func (h *Help) Init() tea.Cmd { return nil }

// HandleKey closes on ?, esc or q.
func (h *Help) HandleKey(msg tea.KeyMsg) (Action, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q", "enter":
		return ActionClose, nil
	}
	return ActionContinue, nil
}

func (h *Help) Update(tea.Msg) tea.Cmd { return nil }

// RenderOverlay renders the full key help.
func (h *Help) RenderOverlay(width int) []string {
	h.model.Width = width
	lines := []string{strings.Repeat("─", width)}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Keys (esc: close)"))
	lines = append(lines, strings.Split(h.model.FullHelpView(h.keys.FullHelp()), "\n")...)
	return lines
}

func (h *Help) IsComplete() bool { return false }

func (h *Help) Error() string { return "" }
