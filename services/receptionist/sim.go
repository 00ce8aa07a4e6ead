package receptionist

import (
	"context"
	"fmt"
	"strings"

	"callpilot/models"
)

// Providers offer at most this many slots per call.
const maxOfferedSlots = 3

// SimCaller fakes the phone call against the provider's published openings.
// A real voice integration would replace this with an actual conversation.
type SimCaller struct{}

// NewSimCaller returns the simulated phone caller.
func NewSimCaller() SimCaller {
	return SimCaller{}
}

// Negotiate plays out a scripted call. Offices with openings offer the first
// few of them; offices without any decline.
func (SimCaller) Negotiate(ctx context.Context, provider models.Provider, constraint string) (NegotiationResult, error) {
	transcript := []string{
		fmt.Sprintf("[CALL] Calling %s...", provider.Name),
		"[RECEP] Hello, how can I help?",
		fmt.Sprintf("[AGENT] I'd like to book an appointment. Constraint: %s", constraint),
	}

	if len(provider.Openings) == 0 {
		transcript = append(transcript, "[RECEP] Sorry, no availability.")
		return NegotiationResult{OK: false, Slots: []models.Slot{}, Transcript: transcript}, nil
	}

	slots := provider.Openings
	if len(slots) > maxOfferedSlots {
		slots = slots[:maxOfferedSlots]
	}

	starts := make([]string, len(slots))
	for i, s := range slots {
		starts[i] = s.Start
	}
	transcript = append(transcript,
		fmt.Sprintf("[RECEP] We can do: %s", strings.Join(starts, ", ")),
		"[AGENT] Great, let me confirm one moment.",
	)

	return NegotiationResult{OK: true, Slots: slots, Transcript: transcript}, nil
}

// Reserve confirms the slot. The sim always succeeds.
func (SimCaller) Reserve(ctx context.Context, provider models.Provider, slot models.Slot) (bool, error) {
	return true, nil
}
