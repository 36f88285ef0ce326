package modals

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpretive-systems/peekaboo/internal/session"
)

func TestAlert_DismissKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyEnter},
		{Type: tea.KeyEsc},
		{Type: tea.KeySpace, Runes: []rune{' '}},
	} {
		a := NewAlert("boom")
		action, _ := a.HandleKey(k)
		assert.Equal(t, ActionClose, action, k.String())
		assert.True(t, a.IsComplete())
	}

	a := NewAlert("boom")
	action, _ := a.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, ActionContinue, action)
	assert.False(t, a.IsComplete())
	assert.Equal(t, "boom", a.Error())
}

func TestAlert_Render(t *testing.T) {
	lines := NewAlert("upload the stego image first").RenderOverlay(40)
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Repeat("─", 40), lines[0])
	assert.Equal(t, "! upload the stego image first", ansi.Strip(lines[1]))
	assert.Contains(t, ansi.Strip(lines[2]), "press enter to dismiss")
}

type keys struct{ b key.Binding }

func (k keys) ShortHelp() []key.Binding  { return []key.Binding{k.b} }
func (k keys) FullHelp() [][]key.Binding { return [][]key.Binding{{k.b}} }

func TestHelp_RendersBindingsAndCloses(t *testing.T) {
	h := NewHelp(keys{b: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link"))})
	out := ansi.Strip(strings.Join(h.RenderOverlay(60), "\n"))
	assert.Contains(t, out, "Keys (esc: close)")
	assert.Contains(t, out, "copy link")

	action, _ := h.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, ActionContinue, action)
	action, _ = h.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Equal(t, ActionClose, action)
}

func TestPicker_InitResetsAndEscCloses(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("x"), 0o644))

	p := NewPicker(dir)
	p.SetTarget(session.SlotStego)
	p.SetError("stale")
	require.NotNil(t, p.Init())
	assert.Empty(t, p.Error())
	assert.Equal(t, dir, p.Dir())
	assert.Equal(t, session.SlotStego, p.Target())
	assert.False(t, p.IsComplete())

	out := ansi.Strip(strings.Join(p.RenderOverlay(60), "\n"))
	assert.Contains(t, out, "Choose Stego photo")

	action, cmd := p.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ActionClose, action)
	assert.Nil(t, cmd)
}

func TestPicker_SetHeightFloor(t *testing.T) {
	p := NewPicker(t.TempDir())
	p.SetHeight(1)
	p.Init()
	assert.Equal(t, 3, p.fp.Height)
}
