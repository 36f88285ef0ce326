package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/interpretive-systems/peekaboo/internal/session"
)

// Palette is the subset of the theme components draw with.
type Palette interface {
	AccentText(s string) string
	MutedText(s string) string
	ErrorText(s string) string
	Card(focused, highlighted bool) lipgloss.Style
}

// KeyField marks the secret-key input in a SlotList.
const KeyField = session.SlotNone

// SlotList manages focus across the active tab's slot cards and the
// secret-key field that follows them.
type SlotList struct {
	items    []session.Slot
	selected int
}

// NewSlotList creates an empty slot list.
func NewSlotList() *SlotList {
	return &SlotList{}
}

// SetSlots replaces the focusable cards. The key field is always last.
func (l *SlotList) SetSlots(slots []session.Slot) {
	l.items = append(append([]session.Slot(nil), slots...), KeyField)
	if l.selected >= len(l.items) {
		l.selected = len(l.items) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Items returns every focusable entry.
func (l *SlotList) Items() []session.Slot {
	return l.items
}

// Selected returns the focused index.
func (l *SlotList) Selected() int {
	return l.selected
}

// SelectedSlot returns the focused slot, or KeyField.
func (l *SlotList) SelectedSlot() session.Slot {
	if len(l.items) == 0 || l.selected < 0 || l.selected >= len(l.items) {
		return KeyField
	}
	return l.items[l.selected]
}

// MoveSelection moves focus by delta, clamped to the list.
func (l *SlotList) MoveSelection(delta int) bool {
	if len(l.items) == 0 {
		return false
	}

	newSel := l.selected + delta
	if newSel < 0 {
		newSel = 0
	}
	if newSel >= len(l.items) {
		newSel = len(l.items) - 1
	}

	changed := newSel != l.selected
	l.selected = newSel
	return changed
}

// GoToTop focuses the first card.
func (l *SlotList) GoToTop() bool {
	if len(l.items) == 0 || l.selected == 0 {
		return false
	}
	l.selected = 0
	return true
}

// RenderCard draws one slot card at the given outer width.
func RenderCard(st session.SlotState, art string, focused bool, width int, p Palette) []string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	label := st.Slot.Label()
	if focused {
		label = p.AccentText(label)
	}
	lines := []string{label}

	switch {
	case st.Highlighted:
		lines = append(lines, p.AccentText("release to drop into "+st.Slot.Label()))
	case st.Filled:
		lines = append(lines, FileSummary(st))
	default:
		lines = append(lines, p.MutedText("empty · enter to browse or paste a path to drop"))
	}

	if st.Filled {
		if art != "" {
			lines = append(lines, strings.Split(art, "\n")...)
		} else {
			lines = append(lines, p.MutedText("rendering preview…"))
		}
	}

	box := p.Card(focused, st.Highlighted).Width(inner).Render(strings.Join(lines, "\n"))
	return strings.Split(box, "\n")
}

// FileSummary describes a filled slot on one line.
func FileSummary(st session.SlotState) string {
	return fmt.Sprintf("%s · %s · %s", st.FileName, st.ContentType, humanize.IBytes(uint64(st.Size)))
}
