package models

import (
	"github.com/google/uuid"
)

// Workflow run statuses stamped on the final result.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// Defaults holds the request-normalization fallbacks. Normalize applies them
// exactly once per run; individual steps never re-inject defaults.
type Defaults struct {
	Specialty  string
	TimeWindow string
	RadiusKm   float64
	Location   string
}

// StandardDefaults returns the stock fallback set.
func StandardDefaults() Defaults {
	return Defaults{
		Specialty:  "dentist",
		TimeWindow: "this week",
		RadiusKm:   5.0,
		Location:   "Berlin",
	}
}

// BookingRequest is the caller-supplied input for a workflow run.
// Zero fields are filled from Defaults when the record is created.
type BookingRequest struct {
	Specialty    string  `json:"specialty"`
	TimeWindow   string  `json:"time_window"`
	RadiusKm     float64 `json:"radius_km"`
	UserLocation string  `json:"user_location"`
	UserText     string  `json:"user_text,omitempty"`
	UseSpeech    bool    `json:"use_speech,omitempty"`
}

// WorkflowRecord is the single mutable accumulator threaded through every
// pipeline step. Each field is written by exactly one step class; the
// transcript is append-only. A record belongs to one run and is never shared
// between concurrent runs.
type WorkflowRecord struct {
	RunID string `json:"run_id"`

	// Request inputs, set at creation.
	Specialty    string  `json:"specialty"`
	TimeWindow   string  `json:"time_window"`
	RadiusKm     float64 `json:"radius_km"`
	UserLocation string  `json:"user_location"`
	UserText     string  `json:"user_text,omitempty"`
	UseSpeech    bool    `json:"use_speech"`

	// Provider selection and negotiation.
	Provider      *Provider `json:"provider,omitempty"`
	ProposedSlots []Slot    `json:"proposed_slots,omitempty"`
	ChosenSlot    *Slot     `json:"chosen_slot,omitempty"`

	// Booking and calendar outcomes. Pointers distinguish "not reached"
	// from an explicit false.
	CalendarOK    *bool  `json:"calendar_ok,omitempty"`
	ReservationOK *bool  `json:"reservation_ok,omitempty"`
	EventID       string `json:"event_id,omitempty"`

	Transcript []string       `json:"transcript"`
	Result     *BookingResult `json:"result,omitempty"`

	// Agent-mode fields.
	Conversation []Turn      `json:"messages,omitempty"`
	BestOption   *BestOption `json:"best_option,omitempty"`
	ResultText   string      `json:"result_text,omitempty"`

	// Preferences extracted from free text.
	PreferredProvider string `json:"preferred_provider,omitempty"`
	Urgency           string `json:"urgency,omitempty"`

	// First failure message; once set, deterministic steps no-op.
	Error string `json:"error,omitempty"`
}

// NewWorkflowRecord builds a record for one run. Request fields are carried
// over as given; callers normalize once they know no further extraction will
// fill them.
func NewWorkflowRecord(req BookingRequest) *WorkflowRecord {
	return &WorkflowRecord{
		RunID:        uuid.New().String(),
		Specialty:    req.Specialty,
		TimeWindow:   req.TimeWindow,
		RadiusKm:     req.RadiusKm,
		UserLocation: req.UserLocation,
		UserText:     req.UserText,
		UseSpeech:    req.UseSpeech,
		Transcript:   []string{},
	}
}

// Normalize fills any still-empty request field from d. This is the only
// place defaults are injected: the deterministic pipeline calls it right
// after construction, the agent pipeline after preference extraction has had
// its chance to fill fields from free text.
func (r *WorkflowRecord) Normalize(d Defaults) {
	if r.Specialty == "" {
		r.Specialty = d.Specialty
	}
	if r.TimeWindow == "" {
		r.TimeWindow = d.TimeWindow
	}
	if r.RadiusKm <= 0 {
		r.RadiusKm = d.RadiusKm
	}
	if r.UserLocation == "" {
		r.UserLocation = d.Location
	}
}

// Failed reports whether a step has already recorded a failure.
func (r *WorkflowRecord) Failed() bool {
	return r.Error != ""
}

// Fail records the first failure message. Later failures never overwrite it.
func (r *WorkflowRecord) Fail(msg string) {
	if r.Error == "" {
		r.Error = msg
	}
}

// AppendTranscript extends the run narration. The transcript only grows.
func (r *WorkflowRecord) AppendTranscript(lines ...string) {
	r.Transcript = append(r.Transcript, lines...)
}

// BookingResult is the terminal payload of a workflow run. Exactly one of
// the failed/success shapes is produced; Finalize guarantees the result
// exists for every run.
type BookingResult struct {
	Status     string           `json:"status"`
	Error      string           `json:"error,omitempty"`
	Provider   *ProviderSummary `json:"provider,omitempty"`
	Slot       *Slot            `json:"slot,omitempty"`
	Score      *ScoreResult     `json:"score,omitempty"`
	EventID    string           `json:"event_id,omitempty"`
	Transcript []string         `json:"transcript"`
}

// BestOption is the agent's parsed appointment summary. When the model's
// final answer is not valid JSON the raw text is preserved instead of being
// discarded. Synthesized marks placeholder appointments fabricated by the
// degrade path so callers can tell them from real bookings.
type BestOption struct {
	Provider    *Provider `json:"provider,omitempty"`
	Slot        *Slot     `json:"slot,omitempty"`
	Score       float64   `json:"score,omitempty"`
	Synthesized bool      `json:"synthesized,omitempty"`
	Raw         string    `json:"raw,omitempty"`
}

// Valid reports whether the option carries enough detail to book.
func (b *BestOption) Valid() bool {
	return b != nil && b.Provider != nil && b.Slot != nil
}

// BoolPtr returns a pointer to b, for the record's tri-state flags.
func BoolPtr(b bool) *bool {
	return &b
}
