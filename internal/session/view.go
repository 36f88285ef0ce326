package session

// Screen is the top-level screen.
type Screen int

const (
	ScreenLanding Screen = iota
	ScreenApplication
)

func (s Screen) String() string {
	if s == ScreenApplication {
		return "application"
	}
	return "landing"
}

// Tab selects the primary operation panel.
type Tab int

const (
	TabEmbed Tab = iota
	TabExtract
)

func (t Tab) String() string {
	if t == TabExtract {
		return "extract"
	}
	return "embed"
}

// Slots returns the upload slots shown on the tab's panel.
func (t Tab) Slots() []Slot {
	if t == TabExtract {
		return []Slot{SlotStego}
	}
	return []Slot{SlotCover, SlotPayload}
}

// Operation returns the operation the tab triggers.
func (t Tab) Operation() Operation {
	if t == TabExtract {
		return OpExtract
	}
	return OpEmbed
}

// ResultMode is the exclusive result presentation state.
type ResultMode int

const (
	ResultNone ResultMode = iota
	ResultEmbed
	ResultExtract
)

func (r ResultMode) String() string {
	switch r {
	case ResultEmbed:
		return "embed-result"
	case ResultExtract:
		return "extract-result"
	default:
		return "none"
	}
}

// View is the composite, immutable view state.
type View struct {
	Screen Screen
	Tab    Tab
	Result ResultMode
}

// PrimaryVisible reports whether the tab panel is rendered.
func (v View) PrimaryVisible() bool {
	return v.Screen == ScreenApplication && v.Result == ResultNone
}

// HeaderVisible reports whether the screen header and tab toggle are rendered.
// It is hidden together with the primary panel while a result shows.
func (v View) HeaderVisible() bool {
	return v.PrimaryVisible()
}

// ResultVisible reports whether the result panel for mode r is rendered.
func (v View) ResultVisible(r ResultMode) bool {
	return v.Screen == ScreenApplication && r != ResultNone && v.Result == r
}

// Router owns the view state machine. Every transition returns whether
// it changed anything; ignored triggers are not errors.
type Router struct {
	view View
}

// NewRouter starts on the landing screen with the embed tab selected.
func NewRouter() *Router {
	return &Router{view: View{Screen: ScreenLanding, Tab: TabEmbed, Result: ResultNone}}
}

// View returns the current state.
func (r *Router) View() View {
	return r.view
}

// Start moves from landing to the application screen. There is no way back.
func (r *Router) Start() bool {
	if r.view.Screen == ScreenApplication {
		return false
	}
	r.view = View{Screen: ScreenApplication, Tab: TabEmbed, Result: ResultNone}
	return true
}

// SwitchTab selects t. Ignored while a result is showing.
func (r *Router) SwitchTab(t Tab) bool {
	if r.view.Result != ResultNone || (t != TabEmbed && t != TabExtract) {
		return false
	}
	if r.view.Tab == t {
		return false
	}
	r.view.Tab = t
	return true
}

// ShowResult enters the result mode for op, replacing any result showing.
func (r *Router) ShowResult(op Operation) bool {
	mode := op.ResultMode()
	if mode == ResultNone || r.view.Result == mode {
		return false
	}
	r.view.Result = mode
	return true
}

// Back leaves result mode, restoring the header and the primary panel.
func (r *Router) Back() bool {
	if r.view.Result == ResultNone {
		return false
	}
	r.view.Result = ResultNone
	return true
}
