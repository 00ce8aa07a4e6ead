package receptionist

import (
	"context"

	"callpilot/models"
)

// NegotiationResult is what a call to a provider's front desk yields. The
// transcript lines are appended verbatim to the workflow transcript.
type NegotiationResult struct {
	OK         bool
	Slots      []models.Slot
	Transcript []string
}

// Caller negotiates appointment slots with a provider's office.
type Caller interface {
	// Negotiate asks the provider for slots matching the constraint.
	Negotiate(ctx context.Context, provider models.Provider, constraint string) (NegotiationResult, error)
	// Reserve books the chosen slot with the provider.
	Reserve(ctx context.Context, provider models.Provider, slot models.Slot) (bool, error)
}
