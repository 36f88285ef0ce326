package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Layout manages screen layout calculations.
type Layout struct {
	width  int
	height int
}

// NewLayout creates a new layout manager.
func NewLayout() *Layout {
	return &Layout{}
}

// SetSize updates the layout dimensions.
func (l *Layout) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Width returns the total width.
func (l *Layout) Width() int {
	return l.width
}

// Height returns the total height.
func (l *Layout) Height() int {
	return l.height
}

// CardWidth is the outer width of a slot card.
func (l *Layout) CardWidth() int {
	w := l.width - 2
	if w > 72 {
		w = 72
	}
	if w < 24 {
		w = 24
	}
	return w
}

// ContentHeight returns the rows left for the body.
func (l *Layout) ContentHeight(withHeader bool, overlayHeight int) int {
	// bottom rule + bottom bar, plus top bar + top rule when shown
	h := l.height - 2 - overlayHeight
	if withHeader {
		h -= 2
	}
	if h < 1 {
		h = 1
	}
	return h
}

// RenderFrame renders the optional top bar, the body, an overlay and the
// bottom bar. An empty topLeft and topRight hides the top bar and its rule.
func (l *Layout) RenderFrame(
	topLeft, topRight string,
	body []string,
	overlayLines []string,
	bottomBar string,
	theme Theme,
) string {
	var b strings.Builder

	withHeader := topLeft != "" || topRight != ""
	if withHeader {
		b.WriteString(l.renderTopBar(topLeft, topRight))
		b.WriteByte('\n')
		b.WriteString(theme.DividerText(strings.Repeat("─", l.width)))
		b.WriteByte('\n')
	}

	avail := l.ContentHeight(withHeader, len(overlayLines))
	for i := 0; i < avail; i++ {
		line := ""
		if i < len(body) {
			line = body[i]
		}
		b.WriteString(padToWidth(line, l.width))
		b.WriteByte('\n')
	}

	for _, line := range overlayLines {
		b.WriteString(padToWidth(line, l.width))
		b.WriteByte('\n')
	}

	b.WriteString(theme.DividerText(strings.Repeat("─", l.width)))
	b.WriteByte('\n')
	b.WriteString(bottomBar)

	return b.String()
}

func (l *Layout) renderTopBar(left, right string) string {
	rightW := lipgloss.Width(right)
	if rightW >= l.width {
		return ansi.Truncate(right, l.width, "…")
	}

	avail := l.width - rightW - 1
	if lipgloss.Width(left) > avail {
		left = ansi.Truncate(left, avail, "…")
	} else if lipgloss.Width(left) < avail {
		left = left + strings.Repeat(" ", avail-lipgloss.Width(left))
	}

	return left + " " + right
}

func padToWidth(s string, w int) string {
	width := lipgloss.Width(s)
	if width == w {
		return s
	}
	if width < w {
		return s + strings.Repeat(" ", w-width)
	}
	return ansi.Truncate(s, w, "…")
}

// centerLines centers each line in width columns.
func centerLines(lines []string, width int) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		pad := (width - lipgloss.Width(l)) / 2
		if pad < 0 {
			pad = 0
		}
		out[i] = strings.Repeat(" ", pad) + l
	}
	return out
}
