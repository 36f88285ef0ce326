package session

// Modal is the single file-selection surface. It is either closed or open
// for exactly one target slot.
type Modal struct {
	target     Slot
	visible    bool
	generation int
}

// ModalState is a read-only copy of the modal.
type ModalState struct {
	Visible bool
	Target  Slot
	// Generation changes on every open so renderers can reset their
	// selection surface.
	Generation int
}

// State returns the modal state.
func (m *Modal) State() ModalState {
	return ModalState{Visible: m.visible, Target: m.target, Generation: m.generation}
}

// Open shows the modal for slot, discarding any previous selection state.
func (m *Modal) Open(slot Slot) error {
	if !slot.Valid() {
		return ErrUnknownSlot
	}
	m.target = slot
	m.visible = true
	m.generation++
	return nil
}

// Close hides the modal. Used for cancel, backdrop dismissal and
// successful acceptance alike.
func (m *Modal) Close() bool {
	if !m.visible {
		return false
	}
	m.visible = false
	m.target = SlotNone
	return true
}

// Target returns the slot the next accepted file populates, or SlotNone.
func (m *Modal) Target() Slot {
	if !m.visible {
		return SlotNone
	}
	return m.target
}

// DropZones tracks the drag-over highlight of each slot's drop target.
// They work regardless of modal state.
type DropZones struct {
	highlighted map[Slot]bool
}

func newDropZones() DropZones {
	return DropZones{highlighted: make(map[Slot]bool)}
}

func (d *DropZones) set(slot Slot, on bool) bool {
	if !slot.Valid() || d.highlighted[slot] == on {
		return false
	}
	if on {
		d.highlighted[slot] = true
	} else {
		delete(d.highlighted, slot)
	}
	return true
}

// Highlighted reports whether slot's zone shows the drag-over affordance.
func (d *DropZones) Highlighted(slot Slot) bool {
	return d.highlighted[slot]
}
