package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyAction represents an action triggered by a key press.
type KeyAction int

const (
	ActionNone KeyAction = iota
	ActionQuit
	ActionToggleHelp
	ActionStart
	ActionSwitchTab
	ActionFocusNext
	ActionFocusPrev
	ActionActivate
	ActionSubmit
	ActionBack
	ActionDownload
	ActionCopyLink
	ActionToggleColor
)

// keyContext selects which bindings are live.
type keyContext int

const (
	ctxLanding keyContext = iota
	ctxPrimary
	ctxResult
)

// keyMap holds every binding. It satisfies help.KeyMap for the current
// context.
type keyMap struct {
	ctx    keyContext
	typing bool

	Start    key.Binding
	Quit     key.Binding
	ForceQ   key.Binding
	Help     key.Binding
	Tab      key.Binding
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding
	Submit   key.Binding
	Back     key.Binding
	Download key.Binding
	Copy     key.Binding
	Color    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "start")),
		Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQ:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "embed/extract")),
		Next:     key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next field")),
		Prev:     key.NewBinding(key.WithKeys("up", "shift+tab", "ctrl+p"), key.WithHelp("↑", "prev field")),
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "browse/run")),
		Submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "run")),
		Back:     key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Download: key.NewBinding(key.WithKeys("enter", "d"), key.WithHelp("d", "download")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		Color:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "color")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	switch k.ctx {
	case ctxLanding:
		return []key.Binding{k.Start, k.Quit}
	case ctxResult:
		return []key.Binding{k.Download, k.Copy, k.Back, k.Help}
	default:
		return []key.Binding{k.Tab, k.Activate, k.Submit, k.Help}
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Tab, k.Next, k.Prev},
		{k.Activate, k.Submit, k.Back},
		{k.Download, k.Copy, k.Color},
		{k.Help, k.Quit, k.ForceQ},
	}
}

// KeyHandler maps key input to actions for the current context.
type KeyHandler struct {
	keys keyMap
}

// NewKeyHandler creates a new key handler.
func NewKeyHandler() *KeyHandler {
	return &KeyHandler{keys: newKeyMap()}
}

// SetContext updates which bindings are live. While typing, printable keys
// belong to the focused input.
func (k *KeyHandler) SetContext(ctx keyContext, typing bool) {
	k.keys.ctx = ctx
	k.keys.typing = typing
}

// KeyMap returns the bindings for help rendering.
func (k *KeyHandler) KeyMap() keyMap {
	return k.keys
}

// Handle processes a key message and returns the action.
func (k *KeyHandler) Handle(msg tea.KeyMsg) KeyAction {
	km := k.keys
	if key.Matches(msg, km.ForceQ) {
		return ActionQuit
	}
	if msg.Paste {
		return ActionNone
	}
	if !km.typing {
		switch {
		case key.Matches(msg, km.Quit):
			return ActionQuit
		case key.Matches(msg, km.Help):
			return ActionToggleHelp
		}
	}
	switch km.ctx {
	case ctxLanding:
		if key.Matches(msg, km.Start) {
			return ActionStart
		}
	case ctxPrimary:
		switch {
		case key.Matches(msg, km.Tab):
			return ActionSwitchTab
		case key.Matches(msg, km.Next):
			return ActionFocusNext
		case key.Matches(msg, km.Prev):
			return ActionFocusPrev
		case key.Matches(msg, km.Submit):
			return ActionSubmit
		case key.Matches(msg, km.Activate):
			return ActionActivate
		}
	case ctxResult:
		switch {
		case key.Matches(msg, km.Back):
			return ActionBack
		case key.Matches(msg, km.Download):
			return ActionDownload
		case key.Matches(msg, km.Copy):
			return ActionCopyLink
		case key.Matches(msg, km.Color):
			return ActionToggleColor
		}
	}
	return ActionNone
}
