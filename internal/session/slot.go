package session

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Slot names one of the three upload holders.
type Slot string

const (
	SlotNone    Slot = ""
	SlotCover   Slot = "cover"
	SlotPayload Slot = "payload"
	SlotStego   Slot = "stego"
)

// Slots lists every valid slot in display order.
var Slots = []Slot{SlotCover, SlotPayload, SlotStego}

// Valid reports whether s is one of the three upload slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotCover, SlotPayload, SlotStego:
		return true
	}
	return false
}

// Label is the human name shown next to the slot.
func (s Slot) Label() string {
	switch s {
	case SlotCover:
		return "Original photo"
	case SlotPayload:
		return "Carrier photo"
	case SlotStego:
		return "Stego photo"
	default:
		return "-"
	}
}

// ParseSlot converts a slot identifier.
func ParseSlot(v string) (Slot, error) {
	s := Slot(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return SlotNone, fmt.Errorf("%w: %q", ErrUnknownSlot, v)
	}
	return s, nil
}

// PendingFile is a file staged for upload: its bytes, declared MIME type
// and display name.
type PendingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f *PendingFile) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// LoadFile reads path into a PendingFile. The declared type comes from the
// extension, falling back to content sniffing.
func LoadFile(path string) (*PendingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return &PendingFile{Name: name, ContentType: ct, Data: data}, nil
}

// Store holds at most one pending file per slot. Every accepted file gets
// a fresh preview handle; the handle of the file it replaces is released.
type Store struct {
	files   map[Slot]*PendingFile
	handles map[Slot]Handle
	reg     *Registry
}

// NewStore creates an empty store minting handles from reg.
func NewStore(reg *Registry) *Store {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Store{
		files:   make(map[Slot]*PendingFile),
		handles: make(map[Slot]Handle),
		reg:     reg,
	}
}

// Set overwrites the slot's contents and returns the new preview handle.
func (s *Store) Set(slot Slot, f *PendingFile) (Handle, error) {
	if !slot.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if f == nil {
		return "", ErrNoFile
	}
	if old, ok := s.handles[slot]; ok {
		s.reg.Release(old)
	}
	h := s.reg.Mint(f)
	s.files[slot] = f
	s.handles[slot] = h
	return h, nil
}

// Get returns the file in slot, if any.
func (s *Store) Get(slot Slot) (*PendingFile, bool) {
	f, ok := s.files[slot]
	return f, ok
}

// Handle returns the live preview handle for slot.
func (s *Store) Handle(slot Slot) (Handle, bool) {
	h, ok := s.handles[slot]
	return h, ok
}

// Clear empties every slot and releases their handles.
func (s *Store) Clear() {
	for slot, h := range s.handles {
		s.reg.Release(h)
		delete(s.handles, slot)
	}
	for slot := range s.files {
		delete(s.files, slot)
	}
}
