package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/interpretive-systems/peekaboo/internal/logging"
	"github.com/interpretive-systems/peekaboo/internal/prefs"
	"github.com/interpretive-systems/peekaboo/internal/preview"
	"github.com/interpretive-systems/peekaboo/internal/session"
	"github.com/interpretive-systems/peekaboo/internal/tui/components"
	"github.com/interpretive-systems/peekaboo/internal/tui/modals"
)

// Options configures the interactive program.
type Options struct {
	Remote    session.Remote
	Navigator session.Navigator
	Timeout   time.Duration
	Logger    logging.Logger
	Colored   bool
	StartDir  string
	PrefsPath string
	Theme     *Theme
}

// Program is the Bubble Tea model. It renders session snapshots and turns
// input into named session operations.
type Program struct {
	state      *State
	layout     *Layout
	keyHandler *KeyHandler
}

// New creates the program on the landing screen.
func New(opts Options) Program {
	return Program{
		state:      NewState(opts),
		layout:     NewLayout(),
		keyHandler: NewKeyHandler(),
	}
}

// Run instantiates and runs the Bubble Tea program.
func Run(opts Options) error {
	p := New(opts)
	defer p.Close()
	tp := tea.NewProgram(p, tea.WithAltScreen())
	if _, err := tp.Run(); err != nil {
		return err
	}
	return nil
}

// Close releases the session.
func (p Program) Close() {
	p.state.Session.Close()
}

func (p Program) Init() tea.Cmd {
	return nil
}

func (p Program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := p.state
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.Width, s.Height = msg.Width, msg.Height
		p.layout.SetSize(msg.Width, msg.Height)
		p.resizePreviews()
		s.Picker.SetHeight(msg.Height / 3)

	case tea.KeyMsg:
		cmds = append(cmds, p.handleKey(msg))

	case opResultMsg:
		err := s.Session.Settle(msg.req, msg.res, msg.err)
		switch {
		case errors.Is(err, session.ErrSuperseded):
		case err != nil:
			s.StatusBar.SetError(session.UserMessage(err))
		default:
			s.Saved = ""
			s.StatusBar.SetMessage(msg.req.Op.String() + " complete")
		}

	case dropMsg:
		if s.pendingDrop[msg.slot] == msg.token {
			delete(s.pendingDrop, msg.slot)
			cmds = append(cmds, loadFile(fromDrop, msg.slot, msg.path))
		}

	case modals.FileChosenMsg:
		cmds = append(cmds, loadFile(fromPicker, msg.Slot, msg.Path))

	case fileLoadedMsg:
		cmds = append(cmds, p.handleFileLoaded(msg))

	case previewMsg:
		delete(s.pendingPreviews, msg.binding)
		if msg.err != nil {
			s.Log.Debug("preview failed", "err", msg.err)
			s.Previews[msg.binding] = s.Theme.MutedText("(preview unavailable)")
		} else {
			s.Previews[msg.binding] = msg.art
		}

	case downloadMsg:
		if msg.err != nil {
			s.StatusBar.SetError("download failed: " + msg.err.Error())
		} else {
			s.Saved = msg.path
			s.StatusBar.SetMessage("downloaded")
		}

	case clipboardMsg:
		if msg.err != nil {
			s.StatusBar.SetError("copy failed: " + msg.err.Error())
		} else {
			s.StatusBar.SetMessage("link copied")
		}

	case spinner.TickMsg:
		if s.Snapshot.Busy() {
			var cmd tea.Cmd
			s.Spinner, cmd = s.Spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		if s.ActiveModal == modalPicker {
			cmds = append(cmds, s.Picker.Update(msg))
		}
	}

	cmds = append(cmds, p.refresh())
	return p, tea.Batch(cmds...)
}

// refresh re-reads the session and reconciles everything derived from it.
func (p Program) refresh() tea.Cmd {
	s := p.state
	prevTab := s.Snapshot.View.Tab
	s.Snapshot = s.Session.Snapshot()
	sn := s.Snapshot
	var cmds []tea.Cmd

	if sn.View.Tab != prevTab || len(s.Slots.Items()) == 0 {
		s.Slots.SetSlots(sn.View.Tab.Slots())
		s.Slots.GoToTop()
	}
	p.syncFocus()

	switch {
	case sn.Modal.Visible && (s.ActiveModal != modalPicker || sn.Modal.Generation != s.pickerGen):
		s.ActiveModal = modalPicker
		s.pickerGen = sn.Modal.Generation
		s.Picker.SetTarget(sn.Modal.Target)
		cmds = append(cmds, s.Picker.Init())
	case !sn.Modal.Visible && s.ActiveModal == modalPicker:
		s.ActiveModal = modalNone
		cmds = append(cmds, p.saveLastDir(s.Picker.Dir()))
	}

	if sn.Busy() {
		s.StatusBar.SetBusy(s.Spinner.View())
	} else {
		s.StatusBar.SetBusy("")
	}

	cmds = append(cmds, p.ensurePreviews())
	return tea.Batch(cmds...)
}

func (p Program) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := p.state

	if a := s.Alerts.Front(); a != nil {
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		if action, _ := a.HandleKey(msg); action == modals.ActionClose {
			s.Alerts.Pop()
		}
		return nil
	}

	switch s.ActiveModal {
	case modalPicker:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		action, cmd := s.Picker.HandleKey(msg)
		if action == modals.ActionClose {
			s.Session.CancelPicker()
		}
		return cmd
	case modalHelp:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		if action, _ := s.Help.HandleKey(msg); action == modals.ActionClose {
			s.ActiveModal = modalNone
		}
		return nil
	}

	p.syncKeyContext()
	focused := s.Slots.SelectedSlot()

	switch p.keyHandler.Handle(msg) {
	case ActionQuit:
		return tea.Quit
	case ActionToggleHelp:
		s.Help.SetKeys(p.keyHandler.KeyMap())
		s.ActiveModal = modalHelp
	case ActionStart:
		s.Session.Start()
	case ActionSwitchTab:
		p.cancelDrop(focused)
		next := session.TabExtract
		if s.Snapshot.View.Tab == session.TabExtract {
			next = session.TabEmbed
		}
		s.Session.SwitchTab(next)
	case ActionFocusNext:
		p.cancelDrop(focused)
		s.Slots.MoveSelection(1)
	case ActionFocusPrev:
		p.cancelDrop(focused)
		s.Slots.MoveSelection(-1)
	case ActionActivate:
		if focused == components.KeyField {
			return p.submit()
		}
		if err := s.Session.OpenPicker(focused); err != nil {
			s.StatusBar.SetError(err.Error())
		}
	case ActionSubmit:
		return p.submit()
	case ActionBack:
		s.Session.Back()
		s.Saved = ""
	case ActionDownload:
		if _, ok := s.Session.DownloadTarget(); !ok {
			s.StatusBar.SetMessage("no download available")
			return nil
		}
		s.StatusBar.SetMessage("downloading…")
		return activateDownload(s.Session, s.Navigator)
	case ActionCopyLink:
		u, ok := s.Session.DownloadTarget()
		if !ok {
			s.StatusBar.SetMessage("no download available")
			return nil
		}
		if r, ok := s.Remote.(interface{ ResolveURL(string) (string, error) }); ok {
			if abs, err := r.ResolveURL(u); err == nil {
				u = abs
			}
		}
		return copyToClipboard(u)
	case ActionToggleColor:
		s.Colored = !s.Colored
		s.Renderer = preview.NewRenderer(s.Renderer.MaxWidth, previewHeight, s.Colored)
		p.clearPreviews()
		return p.saveColored(s.Colored)
	case ActionNone:
		if s.Snapshot.View.PrimaryVisible() {
			if msg.Paste && focused != components.KeyField {
				return p.beginDrop(focused, string(msg.Runes))
			}
			if focused == components.KeyField {
				ti := s.KeyInputs[s.Snapshot.View.Tab]
				var cmd tea.Cmd
				*ti, cmd = ti.Update(msg)
				return cmd
			}
		}
	}
	return nil
}

func (p Program) submit() tea.Cmd {
	s := p.state
	tab := s.Snapshot.View.Tab
	op := tab.Operation()
	req, err := s.Session.Begin(op, s.KeyInputs[tab].Value())
	if err != nil {
		return nil
	}
	s.StatusBar.SetMessage(progressLabel(op))
	return tea.Batch(runOperation(s.Remote, req, s.Timeout), s.Spinner.Tick)
}

func progressLabel(op session.Operation) string {
	if op == session.OpExtract {
		return "extracting…"
	}
	return "embedding…"
}

// beginDrop starts the drag-over phase for a path pasted onto slot.
func (p Program) beginDrop(slot session.Slot, text string) tea.Cmd {
	s := p.state
	path, err := pastedPath(text)
	if err != nil {
		s.StatusBar.SetError(err.Error())
		return nil
	}
	s.Session.DragOver(slot)
	s.dropToken++
	s.pendingDrop[slot] = s.dropToken
	return dropAfter(s.DropDelay, slot, path, s.dropToken)
}

// cancelDrop is the drag-leave: focus moved before the drop landed.
func (p Program) cancelDrop(slot session.Slot) {
	s := p.state
	if _, ok := s.pendingDrop[slot]; ok {
		delete(s.pendingDrop, slot)
		s.Session.DragLeave(slot)
	}
}

func (p Program) handleFileLoaded(msg fileLoadedMsg) tea.Cmd {
	s := p.state
	switch msg.source {
	case fromDrop:
		if msg.err != nil {
			s.Session.DragLeave(msg.slot)
			s.Alerts.Notify(fmt.Sprintf("cannot read %s", msg.path))
			s.Log.Warn("drop failed", "slot", msg.slot, "err", msg.err)
			return nil
		}
		if err := s.Session.Drop(msg.slot, msg.file); err == nil {
			s.StatusBar.SetMessage(fmt.Sprintf("%s → %s", msg.file.Name, msg.slot.Label()))
		}
	case fromPicker:
		if msg.err != nil {
			s.Picker.SetError(msg.err.Error())
			return nil
		}
		if err := s.Session.ChooseFile(msg.file); err == nil {
			s.StatusBar.SetMessage(fmt.Sprintf("%s → %s", msg.file.Name, msg.slot.Label()))
		}
	}
	return nil
}

func (p Program) syncKeyContext() {
	s := p.state
	v := s.Snapshot.View
	switch {
	case v.Screen == session.ScreenLanding:
		p.keyHandler.SetContext(ctxLanding, false)
	case v.PrimaryVisible():
		p.keyHandler.SetContext(ctxPrimary, s.Slots.SelectedSlot() == components.KeyField)
	default:
		p.keyHandler.SetContext(ctxResult, false)
	}
}

// syncFocus focuses the active tab's key input when the key field is
// selected and blurs every other one.
func (p Program) syncFocus() {
	s := p.state
	v := s.Snapshot.View
	for tab, ti := range s.KeyInputs {
		if v.PrimaryVisible() && tab == v.Tab && s.Slots.SelectedSlot() == components.KeyField {
			ti.Focus()
		} else {
			ti.Blur()
		}
	}
	p.syncKeyContext()
}

func (p Program) ensurePreviews() tea.Cmd {
	s := p.state
	live := make(map[string]bool)
	var cmds []tea.Cmd
	for _, slot := range session.Slots {
		b := s.Snapshot.Slot(slot).Preview
		if b == "" {
			continue
		}
		live[b] = true
		if _, ok := s.Previews[b]; ok || s.pendingPreviews[b] {
			continue
		}
		var f *session.PendingFile
		if session.IsHandle(b) {
			var ok bool
			if f, ok = s.Session.ResolvePreview(b); !ok {
				continue
			}
		}
		s.pendingPreviews[b] = true
		cmds = append(cmds, renderPreview(s.Renderer, b, f))
	}
	for b := range s.Previews {
		if !live[b] {
			delete(s.Previews, b)
		}
	}
	return tea.Batch(cmds...)
}

func (p Program) resizePreviews() {
	s := p.state
	w := p.layout.CardWidth() - 4
	if w != s.Renderer.MaxWidth {
		s.Renderer = preview.NewRenderer(w, previewHeight, s.Colored)
		p.clearPreviews()
	}
}

func (p Program) clearPreviews() {
	s := p.state
	s.Previews = make(map[string]string)
	s.pendingPreviews = make(map[string]bool)
}

func (p Program) saveLastDir(dir string) tea.Cmd {
	s := p.state
	if s.PrefsPath == "" || dir == "" {
		return nil
	}
	path, log := s.PrefsPath, s.Log
	return func() tea.Msg {
		if err := prefs.SaveLastDir(path, dir); err != nil {
			log.Warn("save prefs failed", "err", err)
		}
		return nil
	}
}

func (p Program) saveColored(v bool) tea.Cmd {
	s := p.state
	if s.PrefsPath == "" {
		return nil
	}
	path, log := s.PrefsPath, s.Log
	return func() tea.Msg {
		if err := prefs.SaveColored(path, v); err != nil {
			log.Warn("save prefs failed", "err", err)
		}
		return nil
	}
}

func (p Program) View() string {
	s := p.state
	if s.Width == 0 || s.Height == 0 {
		return "loading…"
	}
	sn := s.Snapshot

	var topLeft, topRight string
	var body []string
	switch {
	case sn.View.Screen == session.ScreenLanding:
		body = p.landingLines()
	case sn.View.HeaderVisible():
		topLeft = s.Theme.AccentText("peekaboo")
		topRight = p.tabToggle()
		body = p.primaryLines()
	default:
		body = p.resultLines()
	}

	overlay := p.overlayLines()
	bottom := s.StatusBar.Render(s.Width, p.shortHelp(), s.Theme)
	return p.layout.RenderFrame(topLeft, topRight, body, overlay, bottom, s.Theme)
}

func (p Program) landingLines() []string {
	s := p.state
	lines := []string{
		"",
		s.Theme.AccentText("peekaboo"),
		"",
		"Hide an image inside another image, and get it back.",
		s.Theme.MutedText("Embed: original + cover → stego image"),
		s.Theme.MutedText("Extract: stego image → original"),
		"",
		"press enter to start",
	}
	return centerLines(lines, s.Width)
}

func (p Program) tabToggle() string {
	s := p.state
	embed, extract := " Embed ", " Extract "
	if s.Snapshot.View.Tab == session.TabEmbed {
		embed = s.Theme.AccentText("[Embed]")
		extract = s.Theme.MutedText(extract)
	} else {
		embed = s.Theme.MutedText(embed)
		extract = s.Theme.AccentText("[Extract]")
	}
	return embed + " " + extract
}

func (p Program) primaryLines() []string {
	s := p.state
	sn := s.Snapshot
	focused := s.Slots.SelectedSlot()
	width := p.layout.CardWidth()

	var lines []string
	for _, slot := range sn.View.Tab.Slots() {
		st := sn.Slot(slot)
		lines = append(lines, components.RenderCard(st, s.Previews[st.Preview], focused == slot, width, s.Theme)...)
	}
	lines = append(lines, "")

	marker := "  "
	if focused == components.KeyField {
		marker = s.Theme.AccentText("> ")
	}
	lines = append(lines, marker+"Secret key: "+s.KeyInputs[sn.View.Tab].View())

	op := sn.View.Tab.Operation()
	button := "[ " + strings.ToUpper(op.String()[:1]) + op.String()[1:] + " ]"
	if sn.InFlight[op] {
		button += " " + s.Spinner.View() + " " + progressLabel(op)
	}
	lines = append(lines, "  "+button)
	return lines
}

func (p Program) resultLines() []string {
	s := p.state
	sn := s.Snapshot
	mode := sn.View.Result
	op := session.OpEmbed
	if mode == session.ResultExtract {
		op = session.OpExtract
	}
	binding := sn.Slot(op.PreviewSlot()).Preview
	return components.RenderResult(components.ResultView{
		Mode:        mode,
		Art:         s.Previews[binding],
		HasPreview:  binding != "",
		DownloadURL: sn.Downloads[mode],
		Saved:       s.Saved,
	}, s.Theme)
}

// activeModal returns the overlay on top: a pending alert, else the open
// picker or help.
func (p Program) activeModal() modals.Modal {
	s := p.state
	if a := s.Alerts.Front(); a != nil {
		return a
	}
	switch s.ActiveModal {
	case modalPicker:
		return s.Picker
	case modalHelp:
		return s.Help
	}
	return nil
}

func (p Program) overlayLines() []string {
	if m := p.activeModal(); m != nil {
		return m.RenderOverlay(p.state.Width)
	}
	return nil
}

func (p Program) shortHelp() string {
	p.syncKeyContext()
	km := p.keyHandler.KeyMap()
	parts := make([]string, 0, 4)
	for _, b := range km.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return p.state.Theme.MutedText(strings.Join(parts, "  "))
}
