// Package session is the client view state machine and upload orchestrator.
//
// A Session owns the view router, the file-selection modal, the per-slot
// drop zones, the upload slot store and the operation coordinator. It has
// no rendering dependency: adapters read a Snapshot and drive the session
// through its named operations only.
//
// Remote operations follow an explicit lifecycle. Begin validates the slot
// preconditions synchronously and registers the in-flight request; the
// caller performs the remote call however it likes (a goroutine, a tea.Cmd)
// and hands the outcome to Settle, which is the only place view and preview
// bindings change. Triggering an operation while one of the same kind is in
// flight cancels and supersedes it; a superseded request never settles.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/interpretive-systems/peekaboo/internal/logging"
)

const (
	msgMissingEmbed   = "upload the original and cover images first"
	msgMissingExtract = "upload the stego image first"
	msgBlankKey       = "secret key is required"
)

// Session holds all mutable client state. Methods are safe for concurrent
// use, but adapters are expected to call them from a single event loop.
type Session struct {
	mu sync.Mutex

	router *Router
	modal  Modal
	drops  DropZones
	store  *Store
	reg    *Registry

	previews  map[Slot]string
	downloads map[ResultMode]string

	inflight map[Operation]*Request
	seq      uint64

	base   context.Context
	cancel context.CancelFunc

	remote   Remote
	notifier Notifier
	nav      Navigator
	log      logging.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier routes user notifications to n.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithNavigator sets how download locators are followed.
func WithNavigator(n Navigator) Option {
	return func(s *Session) { s.nav = n }
}

// WithLogger sets the session logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithRegistry shares a preview handle registry with the session.
func WithRegistry(r *Registry) Option {
	return func(s *Session) { s.reg = r }
}

// New creates a session on the landing screen with every slot empty.
func New(remote Remote, opts ...Option) *Session {
	s := &Session{
		router:    NewRouter(),
		drops:     newDropZones(),
		previews:  make(map[Slot]string),
		downloads: make(map[ResultMode]string),
		inflight:  make(map[Operation]*Request),
		remote:    remote,
		notifier:  NotifierFunc(func(string) {}),
		log:       logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.reg == nil {
		s.reg = NewRegistry()
	}
	s.store = NewStore(s.reg)
	s.base, s.cancel = context.WithCancel(context.Background())
	return s
}

// Close cancels in-flight requests and releases every preview handle.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.inflight = make(map[Operation]*Request)
	s.store.Clear()
	s.previews = make(map[Slot]string)
}

// report sends user-facing errors to the notifier. Programmer-visible
// conditions (no target, unknown slot, stale results) stay silent.
func (s *Session) report(err error) {
	var ve *ValidationError
	var re *RemoteError
	if errors.As(err, &ve) || errors.As(err, &re) {
		s.notifier.Notify(UserMessage(err))
	}
}

// View returns the current view state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.router.View()
}

// Start leaves the landing screen.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.router.Start()
	if changed {
		s.log.Info("view changed", "screen", ScreenApplication, "tab", TabEmbed)
	}
	return changed
}

// SwitchTab selects t; a no-op while a result is showing.
func (s *Session) SwitchTab(t Tab) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.router.SwitchTab(t)
	if changed {
		s.log.Debug("tab switched", "tab", t)
	}
	return changed
}

// Back leaves result mode.
func (s *Session) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.router.Back()
	if changed {
		s.log.Debug("result closed", "tab", s.router.View().Tab)
	}
	return changed
}

// OpenPicker opens the file-selection modal for slot.
func (s *Session) OpenPicker(slot Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.modal.Open(slot); err != nil {
		return err
	}
	s.log.Debug("picker opened", "slot", slot)
	return nil
}

// CancelPicker closes the modal without choosing.
func (s *Session) CancelPicker() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	closed := s.modal.Close()
	if closed {
		s.log.Debug("picker cancelled")
	}
	return closed
}

// DismissPicker closes the modal from its backdrop.
func (s *Session) DismissPicker() bool {
	return s.CancelPicker()
}

// ChooseFile offers f to the modal's target slot. Accepting closes the
// modal; a rejection is notified and leaves it open. A nil file or a
// closed modal is a no-op.
func (s *Session) ChooseFile(f *PendingFile) error {
	s.mu.Lock()
	target := s.modal.Target()
	if f == nil || target == SlotNone {
		s.mu.Unlock()
		return nil
	}
	err := s.stageLocked(target, f)
	if err == nil {
		s.modal.Close()
	}
	s.mu.Unlock()
	s.report(err)
	return err
}

// DragOver shows slot's drop highlight.
func (s *Session) DragOver(slot Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops.set(slot, true)
}

// DragLeave clears slot's drop highlight.
func (s *Session) DragLeave(slot Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops.set(slot, false)
}

// Drop stages f into slot directly, bypassing the modal. The highlight is
// cleared whatever the outcome.
func (s *Session) Drop(slot Slot, f *PendingFile) error {
	s.mu.Lock()
	s.drops.set(slot, false)
	if f == nil || !slot.Valid() {
		s.mu.Unlock()
		return nil
	}
	err := s.stageLocked(slot, f)
	s.mu.Unlock()
	s.report(err)
	return err
}

// Stage validates f and stores it in slot, replacing any previous file.
func (s *Session) Stage(slot Slot, f *PendingFile) error {
	s.mu.Lock()
	err := s.stageLocked(slot, f)
	s.mu.Unlock()
	s.report(err)
	return err
}

func (s *Session) stageLocked(slot Slot, f *PendingFile) error {
	if !slot.Valid() {
		return ErrUnknownSlot
	}
	if err := Validate(f); err != nil {
		if !errors.Is(err, ErrNoFile) {
			s.log.Info("file rejected", "slot", slot, "name", f.Name, "type", f.ContentType)
		}
		return err
	}
	h, err := s.store.Set(slot, f)
	if err != nil {
		return err
	}
	s.previews[slot] = string(h)
	s.log.Info("file staged", "slot", slot, "name", f.Name, "bytes", f.Size())
	return nil
}

// File returns the file staged in slot.
func (s *Session) File(slot Slot) (*PendingFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(slot)
}

// PreviewBinding returns what slot's preview currently shows: a local
// handle after staging, or an inline image after a successful operation.
func (s *Session) PreviewBinding(slot Slot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previews[slot]
}

// ResolvePreview returns the staged file behind a local preview handle.
func (s *Session) ResolvePreview(binding string) (*PendingFile, bool) {
	if !IsHandle(binding) {
		return nil, false
	}
	return s.reg.Resolve(Handle(binding))
}

// Begin validates op's preconditions and registers a new in-flight request,
// superseding one of the same kind. Validation failures are notified and
// nothing is registered.
func (s *Session) Begin(op Operation, secretKey string) (*Request, error) {
	s.mu.Lock()
	req, err := s.beginLocked(op, secretKey)
	s.mu.Unlock()
	s.report(err)
	return req, err
}

func (s *Session) beginLocked(op Operation, secretKey string) (*Request, error) {
	key := strings.TrimSpace(secretKey)
	req := &Request{Op: op, SecretKey: key}
	switch op {
	case OpEmbed:
		cover, ok1 := s.store.Get(SlotCover)
		payload, ok2 := s.store.Get(SlotPayload)
		if !ok1 || !ok2 {
			return nil, newValidationError("slots", msgMissingEmbed, ErrMissingFiles)
		}
		req.Cover, req.Payload = cover, payload
	case OpExtract:
		stego, ok := s.store.Get(SlotStego)
		if !ok {
			return nil, newValidationError("slots", msgMissingExtract, ErrMissingFiles)
		}
		req.Stego = stego
	default:
		return nil, errors.New("unknown operation")
	}
	if key == "" {
		return nil, newValidationError("secret_key", msgBlankKey, ErrBlankKey)
	}

	if prev := s.inflight[op]; prev != nil {
		prev.cancel()
		s.log.Info("request superseded", "op", op, "seq", prev.seq)
	}
	s.seq++
	req.seq = s.seq
	req.ctx, req.cancel = context.WithCancel(s.base)
	s.inflight[op] = req
	s.log.Info("request started", "op", op, "seq", req.seq)
	return req, nil
}

// InFlight reports whether an op request awaits settlement.
func (s *Session) InFlight(op Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[op] != nil
}

// Settle applies the outcome of req. It returns ErrSuperseded, without any
// effect, when req is no longer the current request of its kind. Failures
// are notified and leave the view unchanged; success enters the result mode
// and rebinds the download control and the preview.
func (s *Session) Settle(req *Request, res Result, sendErr error) error {
	s.mu.Lock()
	err := s.settleLocked(req, res, sendErr)
	s.mu.Unlock()
	s.report(err)
	return err
}

func (s *Session) settleLocked(req *Request, res Result, sendErr error) error {
	if req == nil {
		return ErrSuperseded
	}
	cur := s.inflight[req.Op]
	if cur == nil || cur.seq != req.seq {
		s.log.Debug("stale result dropped", "op", req.Op, "seq", req.seq)
		return ErrSuperseded
	}
	delete(s.inflight, req.Op)
	defer req.cancel()

	if sendErr != nil {
		s.log.Warn("request failed", "op", req.Op, "seq", req.seq, "err", sendErr)
		return &RemoteError{Op: req.Op, Message: req.Op.FallbackMessage(), Err: sendErr}
	}
	if !res.OK {
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = req.Op.FallbackMessage()
		}
		s.log.Info("request rejected", "op", req.Op, "seq", req.seq, "message", msg)
		return &RemoteError{Op: req.Op, Message: msg}
	}

	mode := req.Op.ResultMode()
	s.router.ShowResult(req.Op)
	if res.DownloadURL != "" {
		s.downloads[mode] = res.DownloadURL
	} else {
		delete(s.downloads, mode)
	}
	if res.HasInlinePreview() {
		s.previews[req.Op.PreviewSlot()] = res.Preview
	}
	s.log.Info("request settled", "op", req.Op, "seq", req.seq, "file_id", res.FileID)
	return nil
}

// Run performs op end to end: Begin, the remote call, then Settle.
func (s *Session) Run(ctx context.Context, op Operation, secretKey string) (Result, error) {
	req, err := s.Begin(op, secretKey)
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(req.Context(), cancel)
	defer stop()

	res, sendErr := s.remote.Send(ctx, req)
	if err := s.Settle(req, res, sendErr); err != nil {
		return res, err
	}
	return res, nil
}

// DownloadTarget returns the locator bound to the visible result's
// download control.
func (s *Session) DownloadTarget() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.downloads[s.router.View().Result]
	return u, ok
}

// ActivateDownload follows the visible result's download locator. Without a
// bound locator it does nothing.
func (s *Session) ActivateDownload(ctx context.Context) error {
	u, ok := s.DownloadTarget()
	if !ok || s.nav == nil {
		return nil
	}
	s.log.Info("download activated", "url", u)
	return s.nav.Navigate(ctx, u)
}

// SlotState is the render view of one slot.
type SlotState struct {
	Slot        Slot
	Filled      bool
	FileName    string
	ContentType string
	Size        int64
	Preview     string
	Highlighted bool
}

// Snapshot is an immutable copy of everything a renderer needs.
type Snapshot struct {
	View      View
	Modal     ModalState
	Slots     map[Slot]SlotState
	InFlight  map[Operation]bool
	Downloads map[ResultMode]string
}

// Slot returns the state of slot.
func (sn Snapshot) Slot(slot Slot) SlotState {
	return sn.Slots[slot]
}

// Busy reports whether any request is in flight.
func (sn Snapshot) Busy() bool {
	for _, v := range sn.InFlight {
		if v {
			return true
		}
	}
	return false
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := Snapshot{
		View:      s.router.View(),
		Modal:     s.modal.State(),
		Slots:     make(map[Slot]SlotState, len(Slots)),
		InFlight:  make(map[Operation]bool, len(s.inflight)),
		Downloads: make(map[ResultMode]string, len(s.downloads)),
	}
	for _, slot := range Slots {
		st := SlotState{Slot: slot, Preview: s.previews[slot], Highlighted: s.drops.Highlighted(slot)}
		if f, ok := s.store.Get(slot); ok {
			st.Filled = true
			st.FileName = f.Name
			st.ContentType = f.ContentType
			st.Size = f.Size()
		}
		sn.Slots[slot] = st
	}
	for op, r := range s.inflight {
		sn.InFlight[op] = r != nil
	}
	for k, v := range s.downloads {
		sn.Downloads[k] = v
	}
	return sn
}
