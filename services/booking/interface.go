package booking

import (
	"context"

	"callpilot/models"
	"callpilot/services/calendar"
	"callpilot/services/directory"
	"callpilot/services/intelligence"
	"callpilot/services/receptionist"
	"callpilot/services/speech"
)

// Workflow execution modes.
const (
	ModeLocal = "local"
	ModeAgent = "agent"
)

// defaultMaxRounds bounds the agent's reason/act cycle when no explicit cap
// is configured.
const defaultMaxRounds = 12

// WorkflowService defines the interface for running booking workflows.
// Full runs always terminate in a structured result, whatever failed along
// the way, so they carry no error return; only the session-backed operations
// can fail outright.
type WorkflowService interface {
	RunLocal(ctx context.Context, req models.BookingRequest) *models.BookingResult
	RunAgent(ctx context.Context, req models.BookingRequest) *models.WorkflowRecord
	Propose(ctx context.Context, req models.BookingRequest) (*models.Proposal, *models.ConfirmState, string, error)
	Confirm(ctx context.Context, state models.ConfirmState) *models.BookingResult
	ConfirmSession(ctx context.Context, sessionID string) (*models.BookingResult, error)
}

// DefaultWorkflowService implements WorkflowService over the capability
// ports. The zero value of Defaults and MaxRounds falls back to the stock
// configuration, so tests can construct the service with just the ports they
// exercise.
type DefaultWorkflowService struct {
	Directory    directory.Directory
	Receptionist receptionist.Caller
	Calendar     calendar.Service
	Reasoner     intelligence.Reasoner
	Extractor    intelligence.Extractor
	Speaker      speech.Speaker
	Sessions     ProposalStore
	Reminders    ReminderScheduler

	Defaults  models.Defaults
	MaxRounds int
}

func (s *DefaultWorkflowService) defaults() models.Defaults {
	if s.Defaults == (models.Defaults{}) {
		return models.StandardDefaults()
	}
	return s.Defaults
}

func (s *DefaultWorkflowService) maxRounds() int {
	if s.MaxRounds > 0 {
		return s.MaxRounds
	}
	return defaultMaxRounds
}
