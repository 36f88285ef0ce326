package modals

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/interpretive-systems/peekaboo/internal/session"
)

// FileChosenMsg is sent when the user picks a file.
type FileChosenMsg struct {
	Slot session.Slot
	Path string
}

// Picker is the file-selection modal. It is reset every time it opens so
// no selection carries over between slots.
type Picker struct {
	fp     filepicker.Model
	slot   session.Slot
	dir    string
	height int
	err    string
	chosen string
}

// NewPicker creates a picker starting in dir.
func NewPicker(dir string) *Picker {
	return &Picker{dir: dir, height: 10}
}

// SetTarget sets the slot the next selection fills.
func (p *Picker) SetTarget(slot session.Slot) {
	p.slot = slot
}

// Target returns the slot being filled.
func (p *Picker) Target() session.Slot {
	return p.slot
}

// SetHeight sets the number of listed entries.
func (p *Picker) SetHeight(h int) {
	if h < 3 {
		h = 3
	}
	p.height = h
	p.fp.Height = h
}

// Dir returns the directory the picker is browsing.
func (p *Picker) Dir() string {
	if p.fp.CurrentDirectory != "" {
		return p.fp.CurrentDirectory
	}
	return p.dir
}

// SetError shows a load failure under the listing.
func (p *Picker) SetError(msg string) {
	p.err = msg
}

// Init resets the listing and reads the start directory.
func (p *Picker) Init() tea.Cmd {
	dir := p.Dir()
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = "."
		}
	}
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.ShowPermissions = false
	fp.AutoHeight = false
	fp.Height = p.height
	p.fp = fp
	p.dir = dir
	p.err = ""
	p.chosen = ""
	return p.fp.Init()
}

// HandleKey processes keyboard input.
func (p *Picker) HandleKey(msg tea.KeyMsg) (Action, tea.Cmd) {
	if msg.String() == "esc" {
		return ActionClose, nil
	}
	var cmd tea.Cmd
	p.fp, cmd = p.fp.Update(msg)
	if ok, path := p.fp.DidSelectFile(msg); ok {
		p.chosen = path
		p.err = ""
		slot := p.slot
		return ActionContinue, tea.Batch(cmd, func() tea.Msg {
			return FileChosenMsg{Slot: slot, Path: path}
		})
	}
	return ActionContinue, cmd
}

// Update forwards directory reads to the file picker.
func (p *Picker) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.fp, cmd = p.fp.Update(msg)
	return cmd
}

// RenderOverlay renders the picker.
func (p *Picker) RenderOverlay(width int) []string {
	lines := make([]string, 0, p.height+4)
	lines = append(lines, strings.Repeat("─", width))
	title := lipgloss.NewStyle().Bold(true).
		Render("Choose " + p.slot.Label() + " (enter: select, esc: cancel)")
	lines = append(lines, title)
	lines = append(lines, lipgloss.NewStyle().Faint(true).Render(p.Dir()))
	lines = append(lines, strings.Split(strings.TrimRight(p.fp.View(), "\n"), "\n")...)
	if p.err != "" {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Render("Error: ")+p.err)
	}
	return lines
}

// IsComplete returns true once a file was chosen.
func (p *Picker) IsComplete() bool {
	return p.chosen != "" && p.err == ""
}

// Error returns any error message.
func (p *Picker) Error() string {
	return p.err
}
