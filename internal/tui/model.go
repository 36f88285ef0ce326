package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/interpretive-systems/peekaboo/internal/logging"
	"github.com/interpretive-systems/peekaboo/internal/preview"
	"github.com/interpretive-systems/peekaboo/internal/session"
	"github.com/interpretive-systems/peekaboo/internal/tui/components"
	"github.com/interpretive-systems/peekaboo/internal/tui/modals"
)

const (
	modalNone   = ""
	modalPicker = "picker"
	modalHelp   = "help"
)

const (
	defaultDropDelay = 150 * time.Millisecond
	previewHeight    = 10
)

// State holds all application state.
type State struct {
	// Session core
	Session   *session.Session
	Snapshot  session.Snapshot
	Remote    session.Remote
	Navigator session.Navigator
	Timeout   time.Duration
	Log       logging.Logger

	// UI state
	Width  int
	Height int
	Saved  string

	// Active modal: "", "picker" or "help". Alerts sit above all of them.
	ActiveModal string
	pickerGen   int

	// Components
	Slots     *components.SlotList
	StatusBar *components.StatusBar
	KeyInputs map[session.Tab]*textinput.Model
	Spinner   spinner.Model

	// Modals
	Picker *modals.Picker
	Help   *modals.Help
	Alerts *alertQueue

	// Previews, keyed by binding
	Renderer        *preview.Renderer
	Colored         bool
	Previews        map[string]string
	pendingPreviews map[string]bool

	// Drop zones: a pasted path waits DropDelay in drag-over before dropping
	DropDelay   time.Duration
	dropToken   int
	pendingDrop map[session.Slot]int

	PrefsPath string
	Theme     Theme
}

// NewState creates initial application state around a fresh session.
func NewState(opts Options) *State {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	alerts := &alertQueue{}

	sessOpts := []session.Option{session.WithNotifier(alerts), session.WithLogger(log)}
	if opts.Navigator != nil {
		sessOpts = append(sessOpts, session.WithNavigator(opts.Navigator))
	}

	st := &State{
		Session:         session.New(opts.Remote, sessOpts...),
		Remote:          opts.Remote,
		Navigator:       opts.Navigator,
		Timeout:         opts.Timeout,
		Log:             log,
		Slots:           components.NewSlotList(),
		StatusBar:       components.NewStatusBar(),
		KeyInputs:       make(map[session.Tab]*textinput.Model),
		Spinner:         spinner.New(spinner.WithSpinner(spinner.Dot)),
		Picker:          modals.NewPicker(opts.StartDir),
		Alerts:          alerts,
		Renderer:        preview.NewRenderer(40, previewHeight, opts.Colored),
		Colored:         opts.Colored,
		Previews:        make(map[string]string),
		pendingPreviews: make(map[string]bool),
		DropDelay:       defaultDropDelay,
		pendingDrop:     make(map[session.Slot]int),
		PrefsPath:       opts.PrefsPath,
		Theme:           theme,
	}
	for _, tab := range []session.Tab{session.TabEmbed, session.TabExtract} {
		st.KeyInputs[tab] = newKeyInput()
	}
	st.Help = modals.NewHelp(newKeyMap())
	st.Snapshot = st.Session.Snapshot()
	st.Slots.SetSlots(st.Snapshot.View.Tab.Slots())
	return st
}

func newKeyInput() *textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "secret key"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 32
	ti.Cursor.SetMode(cursor.CursorStatic)
	return &ti
}

// alertQueue collects session notifications. Each one is a blocking alert
// that must be dismissed before the next is shown.
type alertQueue struct {
	mu     sync.Mutex
	alerts []*modals.Alert
}

func (q *alertQueue) Notify(msg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.alerts = append(q.alerts, modals.NewAlert(msg))
}

// Front returns the alert on screen, or nil.
func (q *alertQueue) Front() *modals.Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.alerts) == 0 {
		return nil
	}
	return q.alerts[0]
}

// Pop dismisses the alert on screen.
func (q *alertQueue) Pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.alerts) > 0 {
		q.alerts = q.alerts[1:]
	}
}

// Len returns the number of pending alerts.
func (q *alertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.alerts)
}
