package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/interpretive-systems/peekaboo/internal/session"
)

type plain struct{}

func (plain) AccentText(s string) string { return s }
func (plain) MutedText(s string) string  { return s }
func (plain) ErrorText(s string) string  { return s }
func (plain) Card(focused, highlighted bool) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.NormalBorder())
}

func TestSlotList_KeyFieldLastAndClamped(t *testing.T) {
	l := NewSlotList()
	assert.Equal(t, KeyField, l.SelectedSlot())

	l.SetSlots([]session.Slot{session.SlotCover, session.SlotPayload})
	assert.Equal(t, []session.Slot{session.SlotCover, session.SlotPayload, KeyField}, l.Items())
	assert.Equal(t, session.SlotCover, l.SelectedSlot())

	assert.False(t, l.MoveSelection(-1))
	assert.True(t, l.MoveSelection(5))
	assert.Equal(t, KeyField, l.SelectedSlot())

	l.SetSlots([]session.Slot{session.SlotStego})
	assert.Equal(t, 1, l.Selected(), "selection clamps to the shorter list")
	assert.True(t, l.GoToTop())
	assert.Equal(t, session.SlotStego, l.SelectedSlot())
}

func TestRenderCard_States(t *testing.T) {
	empty := session.SlotState{Slot: session.SlotCover}
	out := ansi.Strip(strings.Join(RenderCard(empty, "", false, 60, plain{}), "\n"))
	assert.Contains(t, out, "Original photo")
	assert.Contains(t, out, "empty")

	hl := empty
	hl.Highlighted = true
	out = ansi.Strip(strings.Join(RenderCard(hl, "", true, 60, plain{}), "\n"))
	assert.Contains(t, out, "release to drop into Original photo")

	filled := session.SlotState{
		Slot: session.SlotPayload, Filled: true, FileName: "sea.jpg",
		ContentType: "image/jpeg", Size: 2048, Preview: "blob:x",
	}
	out = ansi.Strip(strings.Join(RenderCard(filled, "", false, 60, plain{}), "\n"))
	assert.Contains(t, out, "sea.jpg · image/jpeg · 2.0 KiB")
	assert.Contains(t, out, "rendering preview…")

	out = ansi.Strip(strings.Join(RenderCard(filled, "@@@\n###", false, 60, plain{}), "\n"))
	assert.Contains(t, out, "@@@")
	assert.Contains(t, out, "###")
	assert.NotContains(t, out, "rendering preview")
}

func TestRenderResult(t *testing.T) {
	assert.Nil(t, RenderResult(ResultView{Mode: session.ResultNone}, plain{}))

	out := strings.Join(RenderResult(ResultView{
		Mode: session.ResultEmbed, DownloadURL: "/download/1", Saved: "out/stego-1.png",
	}, plain{}), "\n")
	assert.Contains(t, out, "Embed complete")
	assert.Contains(t, out, "no preview for this stego image")
	assert.Contains(t, out, "Download stego image: /download/1")
	assert.Contains(t, out, "saved to out/stego-1.png")

	out = strings.Join(RenderResult(ResultView{Mode: session.ResultExtract, HasPreview: true}, plain{}), "\n")
	assert.Contains(t, out, "Extract complete")
	assert.Contains(t, out, "rendering preview…")
	assert.Contains(t, out, "no download available")
}

func TestStatusBar_Render(t *testing.T) {
	sb := NewStatusBar()
	sb.SetMessage("embed complete")
	out := ansi.Strip(sb.Render(40, "tab: switch", plain{}))
	assert.Equal(t, 40, ansi.StringWidth(out))
	assert.True(t, strings.HasPrefix(out, "tab: switch"))
	assert.True(t, strings.HasSuffix(out, "embed complete"))

	sb.SetError("download failed")
	sb.SetBusy("*")
	out = ansi.Strip(sb.Render(40, "", plain{}))
	assert.True(t, strings.HasSuffix(out, "* download failed"))
	assert.Equal(t, "download failed", sb.Message())
}
