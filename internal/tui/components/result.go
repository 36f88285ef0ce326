package components

import (
	"strings"

	"github.com/interpretive-systems/peekaboo/internal/session"
)

// ResultView is what the result panel shows.
type ResultView struct {
	Mode        session.ResultMode
	Art         string
	HasPreview  bool
	DownloadURL string
	Saved       string
}

// RenderResult draws the panel for the visible result mode.
func RenderResult(v ResultView, p Palette) []string {
	var title, what string
	switch v.Mode {
	case session.ResultEmbed:
		title, what = "Embed complete", "stego image"
	case session.ResultExtract:
		title, what = "Extract complete", "recovered image"
	default:
		return nil
	}

	lines := []string{p.AccentText(title), ""}
	switch {
	case v.Art != "":
		lines = append(lines, strings.Split(v.Art, "\n")...)
	case v.HasPreview:
		lines = append(lines, p.MutedText("rendering preview…"))
	default:
		lines = append(lines, p.MutedText("no preview for this "+what))
	}
	lines = append(lines, "")

	if v.DownloadURL != "" {
		lines = append(lines, "Download "+what+": "+v.DownloadURL)
	} else {
		lines = append(lines, p.MutedText("no download available"))
	}
	if v.Saved != "" {
		lines = append(lines, p.MutedText("saved to "+v.Saved))
	}
	return lines
}
