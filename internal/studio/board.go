// Package studio holds the per-session slot state shared by the web and
// terminal front ends.
package studio

import (
	"errors"
	"fmt"

	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/generation"
)

var (
	ErrSlotBusy     = errors.New("slot is still generating")
	ErrNotEditing   = errors.New("slot is not in edit mode")
	ErrSlotRange    = errors.New("slot index out of range")
	ErrNotShareable = errors.New("content type cannot be shared")
)

// Slot is one variant as the user sees it.
type Slot struct {
	Type      catalog.ContentType
	Content   string
	Status    generation.Status
	Warning   string
	Error     string
	IsEditing bool
	// Edited is set once the user changed the generated text.
	Edited bool
}

// Generating reports whether the slot is waiting on the backend.
func (s Slot) Generating() bool {
	return s.Status == generation.StatusGenerating
}

// Board is the fixed, ordered list of slots for one batch.
type Board struct {
	slots []Slot
}

// NewBoard lays out one generating slot per content type.
func NewBoard(types []catalog.ContentType) *Board {
	b := &Board{slots: make([]Slot, len(types))}
	for i, ct := range types {
		b.slots[i] = Slot{Type: ct, Status: generation.StatusGenerating}
	}
	return b
}

// Len returns the number of slots.
func (b *Board) Len() int {
	return len(b.slots)
}

// Slot returns a copy of slot i.
func (b *Board) Slot(i int) (Slot, error) {
	if i < 0 || i >= len(b.slots) {
		return Slot{}, ErrSlotRange
	}
	return b.slots[i], nil
}

// Slots returns a copy of every slot.
func (b *Board) Slots() []Slot {
	out := make([]Slot, len(b.slots))
	copy(out, b.slots)
	return out
}

// Apply folds a pipeline update into the board. Labels stay fixed; only
// content and status change.
func (b *Board) Apply(u generation.Update) error {
	if u.Index < 0 || u.Index >= len(b.slots) {
		return ErrSlotRange
	}
	s := &b.slots[u.Index]
	s.Status = u.Status
	s.Warning = u.Warning
	s.Error = u.Error
	if u.Status == generation.StatusDone {
		s.Content = u.Content
		s.Edited = false
	}
	if u.Status == generation.StatusGenerating {
		s.Content = ""
		s.IsEditing = false
	}
	return nil
}

// Busy reports whether any slot is still generating.
func (b *Board) Busy() bool {
	for _, s := range b.slots {
		if s.Generating() {
			return true
		}
	}
	return false
}

// Failed reports the first failed slot's message, if any.
func (b *Board) Failed() (string, bool) {
	for _, s := range b.slots {
		if s.Status == generation.StatusFailed {
			return s.Error, true
		}
	}
	return "", false
}

// ToggleEdit flips edit mode. Generating slots cannot be edited.
func (b *Board) ToggleEdit(i int) (bool, error) {
	if i < 0 || i >= len(b.slots) {
		return false, ErrSlotRange
	}
	s := &b.slots[i]
	if s.Generating() {
		return false, ErrSlotBusy
	}
	s.IsEditing = !s.IsEditing
	return s.IsEditing, nil
}

// SetContent replaces slot content while in edit mode.
func (b *Board) SetContent(i int, content string) error {
	if i < 0 || i >= len(b.slots) {
		return ErrSlotRange
	}
	s := &b.slots[i]
	if !s.IsEditing {
		return ErrNotEditing
	}
	s.Content = content
	s.Edited = true
	s.Warning = s.Type.Check(content)
	return nil
}

// Copy returns the slot's raw content for the clipboard.
func (b *Board) Copy(i int) (string, error) {
	s, err := b.Slot(i)
	if err != nil {
		return "", err
	}
	if s.Generating() {
		return "", ErrSlotBusy
	}
	return s.Content, nil
}

// Share returns the compose URL for slot i.
func (b *Board) Share(i int) (string, error) {
	s, err := b.Slot(i)
	if err != nil {
		return "", err
	}
	if s.Generating() {
		return "", ErrSlotBusy
	}
	u, ok := ShareURL(s.Type.Share, s.Content)
	if !ok {
		return "", fmt.Errorf("%s: %w", s.Type.Label, ErrNotShareable)
	}
	return u, nil
}
