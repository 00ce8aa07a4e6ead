package booking

import "fmt"

// Canonical failure messages recorded on the workflow record. The exact
// wording is contractual: transcripts, result payloads and clients match on
// these strings.
const (
	MsgNoProvidersFound      = "No providers found in radius."
	MsgNoProviderSelected    = "No provider selected"
	MsgNoSlotsOffered        = "Provider had no slots."
	MsgNoSlotFitsCalendar    = "No proposed slot fits calendar."
	MsgMissingProviderOrSlot = "Missing provider or slot"
	MsgReservationFailed     = "Reservation failed."
)

// Failure codes, one per canonical message plus the generic catch-all for
// wrapped capability backend errors.
const (
	CodeNoProvidersFound      = "NoProvidersFound"
	CodeNoProviderSelected    = "NoProviderSelected"
	CodeNoSlotsOffered        = "NoSlotsOffered"
	CodeNoSlotFitsCalendar    = "NoSlotFitsCalendar"
	CodeMissingProviderOrSlot = "MissingProviderOrSlot"
	CodeReservationFailed     = "ReservationFailed"
	CodeAgentLoopExceeded     = "AgentLoopExceeded"
	CodeWorkflowFailed        = "WorkflowFailed"
	CodeProposalNotFound      = "ProposalNotFound"
)

var failureCodes = map[string]string{
	MsgNoProvidersFound:      CodeNoProvidersFound,
	MsgNoProviderSelected:    CodeNoProviderSelected,
	MsgNoSlotsOffered:        CodeNoSlotsOffered,
	MsgNoSlotFitsCalendar:    CodeNoSlotFitsCalendar,
	MsgMissingProviderOrSlot: CodeMissingProviderOrSlot,
	MsgReservationFailed:     CodeReservationFailed,
}

// FailureCode maps a recorded failure message to its code. Messages outside
// the fixed set report as WorkflowFailed.
func FailureCode(msg string) string {
	if code, ok := failureCodes[msg]; ok {
		return code
	}
	return CodeWorkflowFailed
}

// WorkflowError carries a failure code alongside the message so callers can
// match on either.
type WorkflowError struct {
	Code    string
	Message string
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewWorkflowError(code, msg string) error {
	return &WorkflowError{
		Code:    code,
		Message: msg,
	}
}
