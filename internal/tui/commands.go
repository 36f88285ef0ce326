package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/interpretive-systems/peekaboo/internal/preview"
	"github.com/interpretive-systems/peekaboo/internal/session"
)

// runOperation performs the remote call for req. The request context is
// cancelled when a newer request of the same kind supersedes it.
func runOperation(remote session.Remote, req *session.Request, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := req.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res, err := remote.Send(ctx, req)
		return opResultMsg{req: req, res: res, err: err}
	}
}

// loadFile reads path for slot.
func loadFile(source fileSource, slot session.Slot, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := session.LoadFile(path)
		return fileLoadedMsg{source: source, slot: slot, path: path, file: f, err: err}
	}
}

// dropAfter schedules the drop of a pasted path.
func dropAfter(delay time.Duration, slot session.Slot, path string, token int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return dropMsg{slot: slot, path: path, token: token}
	})
}

// renderPreview draws a staged file or an inline image.
func renderPreview(r *preview.Renderer, binding string, f *session.PendingFile) tea.Cmd {
	return func() tea.Msg {
		var art string
		var err error
		if f != nil {
			art, err = r.RenderBytes(f.Data)
		} else {
			art, err = r.RenderDataURL(binding)
		}
		return previewMsg{binding: binding, art: art, err: err}
	}
}

// activateDownload follows the visible result's download locator.
func activateDownload(s *session.Session, nav session.Navigator) tea.Cmd {
	return func() tea.Msg {
		err := s.ActivateDownload(context.Background())
		msg := downloadMsg{err: err}
		if l, ok := nav.(interface{ Last() string }); ok && err == nil {
			msg.path = l.Last()
		}
		return msg
	}
}

// copyToClipboard writes text to the system clipboard.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: clipboard.WriteAll(text)}
	}
}

// pastedPath turns a dropped or pasted path into a file path: it strips
// quotes, file:// prefixes and shell escapes.
func pastedPath(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "file://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("parse %q: %w", s, err)
		}
		s = u.Path
	} else {
		s = strings.NewReplacer(`\ `, " ", `\(`, "(", `\)`, ")", `\'`, "'").Replace(s)
	}
	if s == "" {
		return "", fmt.Errorf("empty path")
	}
	return s, nil
}
