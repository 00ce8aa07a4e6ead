package calendar

import (
	"context"

	"callpilot/models"
)

// Service answers availability questions about the user's calendar and
// records booked appointments on it.
type Service interface {
	// IsFree reports whether the slot has no conflicts. Backends degrade to
	// true when the calendar cannot be reached, so an outage never blocks a
	// booking.
	IsFree(ctx context.Context, slot models.Slot) (bool, error)
	// CreateEvent writes the appointment to the calendar and returns its
	// event id. Backends that cannot reach the calendar return a synthetic
	// fallback id instead of failing the booking.
	CreateEvent(ctx context.Context, title string, slot models.Slot, location string) (string, error)
}
