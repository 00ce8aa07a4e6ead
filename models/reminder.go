package models

// ReminderPayload is the queued-task body for an appointment reminder,
// scheduled after a booking succeeds and fired shortly before the slot.
type ReminderPayload struct {
	RunID        string `json:"runId"`
	EventID      string `json:"eventId"`
	ProviderName string `json:"providerName"`
	Title        string `json:"title"`
	SlotStart    string `json:"slotStart"`
	Location     string `json:"location,omitempty"`
}
