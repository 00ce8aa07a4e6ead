package calendar

import (
	"context"

	"callpilot/models"
)

// DefaultBusySlots are the hard-coded busy blocks the stub backend ships
// with, sized so demo data exercises both the free and the conflicting path.
var DefaultBusySlots = []models.Slot{
	{Start: "2026-02-10T15:00:00", End: "2026-02-10T16:00:00"},
}

// StubCalendar is the offline calendar backend. Availability is computed
// against a fixed busy list and created events get deterministic demo ids.
type StubCalendar struct {
	Busy []models.Slot
}

// NewStubCalendar returns a stub with the default busy blocks.
func NewStubCalendar() *StubCalendar {
	return &StubCalendar{Busy: DefaultBusySlots}
}

// IsFree reports whether the slot avoids every busy block.
func (s *StubCalendar) IsFree(ctx context.Context, slot models.Slot) (bool, error) {
	for _, busy := range s.Busy {
		if overlaps(slot, busy) {
			return false, nil
		}
	}
	return true, nil
}

// CreateEvent returns a deterministic demo event id.
func (s *StubCalendar) CreateEvent(ctx context.Context, title string, slot models.Slot, location string) (string, error) {
	return "demo_event::" + title + "::" + slot.Start, nil
}

// overlaps reports whether two slots intersect. The ISO timestamps sort
// lexicographically, so plain string comparison is enough. Slots that merely
// touch at a boundary do not overlap.
func overlaps(a, b models.Slot) bool {
	return !(a.End <= b.Start || a.Start >= b.End)
}
