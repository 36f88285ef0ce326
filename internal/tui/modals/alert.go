package modals

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Alert is a blocking notification. Nothing else reacts to keys until it
// is dismissed.
type Alert struct {
	message   string
	dismissed bool
}

// NewAlert creates an alert for message.
func NewAlert(message string) *Alert {
	return &Alert{message: message}
}

// Message returns the alert text.
func (a *Alert) Message() string {
	return a.message
}

// Init does nothing; alerts have no async work.
func (a *Alert) Init() tea.Cmd {
	a.dismissed = false
	return nil
}

// HandleKey dismisses on enter, esc or space.
func (a *Alert) HandleKey(msg tea.KeyMsg) (Action, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		a.dismissed = true
		return ActionClose, nil
	}
	return ActionContinue, nil
}

func (a *Alert) Update(tea.Msg) tea.Cmd { return nil }

// RenderOverlay renders the alert box.
func (a *Alert) RenderOverlay(width int) []string {
	lines := []string{strings.Repeat("─", width)}
	lines = append(lines, lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("196")).
		Render("! "+a.message))
	if width > 4 {
		wrapped := ansi.Wordwrap("press enter to dismiss", width, "")
		lines = append(lines, lipgloss.NewStyle().Faint(true).Render(wrapped))
	}
	return lines
}

func (a *Alert) IsComplete() bool { return a.dismissed }

func (a *Alert) Error() string { return a.message }
