package tui

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines customizable colors for rendering.
type Theme struct {
	AccentColor    string `json:"accentColor"`
	ErrorColor     string `json:"errorColor"`
	MutedColor     string `json:"mutedColor"`
	DividerColor   string `json:"dividerColor"`
	HighlightColor string `json:"highlightColor"`
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		AccentColor:    "63",
		ErrorColor:     "196",
		MutedColor:     "245",
		DividerColor:   "240",
		HighlightColor: "214",
	}
}

// LoadTheme overlays theme.json from the peekaboo config dir onto the
// defaults. Missing or invalid files keep the defaults.
func LoadTheme() Theme {
	t := DefaultTheme()
	dir, err := os.UserConfigDir()
	if err != nil {
		return t
	}
	b, err := os.ReadFile(filepath.Join(dir, "peekaboo", "theme.json"))
	if err != nil {
		return t
	}
	var u Theme
	if err := json.Unmarshal(b, &u); err != nil {
		return t
	}
	if u.AccentColor != "" {
		t.AccentColor = u.AccentColor
	}
	if u.ErrorColor != "" {
		t.ErrorColor = u.ErrorColor
	}
	if u.MutedColor != "" {
		t.MutedColor = u.MutedColor
	}
	if u.DividerColor != "" {
		t.DividerColor = u.DividerColor
	}
	if u.HighlightColor != "" {
		t.HighlightColor = u.HighlightColor
	}
	return t
}

func (t Theme) AccentText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.AccentColor)).Bold(true).Render(s)
}

func (t Theme) ErrorText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.ErrorColor)).Render(s)
}

func (t Theme) MutedText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.MutedColor)).Render(s)
}

func (t Theme) DividerText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.DividerColor)).Render(s)
}

// Card returns the border style of a slot card.
func (t Theme) Card(focused, highlighted bool) lipgloss.Style {
	st := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	switch {
	case highlighted:
		return st.BorderStyle(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color(t.HighlightColor))
	case focused:
		return st.BorderForeground(lipgloss.Color(t.AccentColor))
	default:
		return st.BorderForeground(lipgloss.Color(t.DividerColor))
	}
}
