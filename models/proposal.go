package models

// Proposal is the output of the discovery phase: a provider and a
// calendar-validated slot, before any irreversible booking action.
type Proposal struct {
	Provider   *Provider `json:"provider,omitempty"`
	Slot       *Slot     `json:"slot,omitempty"`
	CalendarOK *bool     `json:"calendar_ok,omitempty"`
	Error      string    `json:"error,omitempty"`
	Transcript []string  `json:"transcript"`
}

// ConfirmState is the minimal resumable state needed to turn a proposal
// into a booking. It is stored server-side under a session id and also
// returned inline so stateless callers can confirm without the store.
type ConfirmState struct {
	Provider   *Provider `json:"provider"`
	ChosenSlot *Slot     `json:"chosen_slot"`
	Specialty  string    `json:"specialty,omitempty"`
	Transcript []string  `json:"transcript"`
}
