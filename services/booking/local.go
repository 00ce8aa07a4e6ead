package booking

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"callpilot/models"
	"callpilot/services/calendar"
	"callpilot/services/scoring"
	"callpilot/utils"
)

// maxProposedSlots caps how many negotiated offers the record keeps.
const maxProposedSlots = 3

var titleCaser = cases.Title(language.English)

// RunLocal executes the deterministic pipeline end to end and returns the
// terminal result. Finalization guarantees a result for every run.
func (s *DefaultWorkflowService) RunLocal(ctx context.Context, req models.BookingRequest) *models.BookingResult {
	rec := models.NewWorkflowRecord(req)
	rec.Normalize(s.defaults())
	runSteps(ctx, s.localSteps(), rec)
	return rec.Result
}

// Propose runs the discovery phase only (select, negotiate, validate) and
// stops before any irreversible action. The returned confirm state is stored
// under a session id and also handed back inline, so callers can confirm
// either way.
func (s *DefaultWorkflowService) Propose(ctx context.Context, req models.BookingRequest) (*models.Proposal, *models.ConfirmState, string, error) {
	rec := models.NewWorkflowRecord(req)
	rec.Normalize(s.defaults())
	runSteps(ctx, s.proposalSteps(), rec)

	proposal := &models.Proposal{
		Provider:   rec.Provider,
		Slot:       rec.ChosenSlot,
		CalendarOK: rec.CalendarOK,
		Error:      rec.Error,
		Transcript: rec.Transcript,
	}
	state := &models.ConfirmState{
		Provider:   rec.Provider,
		ChosenSlot: rec.ChosenSlot,
		Specialty:  rec.Specialty,
		Transcript: rec.Transcript,
	}

	sessionID, err := s.Sessions.Save(ctx, *state)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to store proposal session: %w", err)
	}
	return proposal, state, sessionID, nil
}

// Confirm resumes a proposal: it reconstructs the record from the confirm
// state and runs the commit phase (reserve, book, finalize). An incomplete
// state ends in the canonical missing-provider-or-slot failure rather than a
// Go error.
func (s *DefaultWorkflowService) Confirm(ctx context.Context, state models.ConfirmState) *models.BookingResult {
	specialty := state.Specialty
	if specialty == "" && state.Provider != nil {
		specialty = state.Provider.Specialty
	}

	rec := models.NewWorkflowRecord(models.BookingRequest{Specialty: specialty})
	rec.Provider = state.Provider
	rec.ChosenSlot = state.ChosenSlot
	rec.Transcript = append(rec.Transcript, state.Transcript...)

	runSteps(ctx, s.confirmSteps(), rec)
	return rec.Result
}

// ConfirmSession looks the confirm state up by session id, confirms it and
// consumes the session.
func (s *DefaultWorkflowService) ConfirmSession(ctx context.Context, sessionID string) (*models.BookingResult, error) {
	state, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := s.Confirm(ctx, *state)

	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		utils.GetLogger().Warn("Failed to clear proposal session",
			zap.String("sessionId", sessionID), zap.Error(err))
	}
	return result, nil
}

func (s *DefaultWorkflowService) proposalSteps() []Step {
	return []Step{
		{Name: "select_provider", Run: s.selectProvider},
		{Name: "negotiate_slots", Run: s.negotiateSlots},
		{Name: "validate_calendar", Run: s.validateCalendar},
	}
}

func (s *DefaultWorkflowService) confirmSteps() []Step {
	return []Step{
		{Name: "reserve_and_book", Run: s.reserveAndBook},
		{Name: "finalize", Run: s.finalize, Always: true},
	}
}

func (s *DefaultWorkflowService) localSteps() []Step {
	return append(s.proposalSteps(), s.confirmSteps()...)
}

// selectProvider searches the directory and picks the closest match. Equal
// distances keep the directory's order, so the first listed of the closest
// providers wins.
func (s *DefaultWorkflowService) selectProvider(ctx context.Context, rec *models.WorkflowRecord) {
	providers, err := s.Directory.Search(ctx, rec.Specialty, rec.RadiusKm, rec.UserLocation)
	if err != nil {
		utils.GetLogger().Warn("Provider search failed",
			zap.String("runId", rec.RunID), zap.Error(err))
		rec.Fail(fmt.Sprintf("provider search failed: %v", err))
		return
	}
	if len(providers) == 0 {
		rec.Fail(MsgNoProvidersFound)
		return
	}

	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].DistanceKm < providers[j].DistanceKm
	})
	chosen := providers[0]
	rec.Provider = &chosen
	rec.AppendTranscript(fmt.Sprintf("[SYS] Selected provider: %s", chosen.Name))
}

// negotiateSlots calls the provider's office and stores up to three offered
// slots. An office with no availability leaves the slots empty; the calendar
// step turns that into the canonical failure.
func (s *DefaultWorkflowService) negotiateSlots(ctx context.Context, rec *models.WorkflowRecord) {
	if rec.Provider == nil {
		rec.Fail(MsgNoProviderSelected)
		return
	}

	res, err := s.Receptionist.Negotiate(ctx, *rec.Provider, rec.TimeWindow)
	if err != nil {
		utils.GetLogger().Warn("Negotiation failed",
			zap.String("runId", rec.RunID),
			zap.String("provider", rec.Provider.Name), zap.Error(err))
		rec.Fail(fmt.Sprintf("negotiation failed: %v", err))
		return
	}

	rec.AppendTranscript(res.Transcript...)
	slots := res.Slots
	if len(slots) > maxProposedSlots {
		slots = slots[:maxProposedSlots]
	}
	rec.ProposedSlots = slots
}

// validateCalendar walks the proposed slots in order and chooses the first
// one the user's calendar accepts. First fit, not best fit; rejected slots
// are never reconsidered.
func (s *DefaultWorkflowService) validateCalendar(ctx context.Context, rec *models.WorkflowRecord) {
	if len(rec.ProposedSlots) == 0 {
		rec.Fail(MsgNoSlotsOffered)
		return
	}

	for _, slot := range rec.ProposedSlots {
		if s.slotFree(ctx, slot) {
			chosen := slot
			rec.ChosenSlot = &chosen
			rec.CalendarOK = models.BoolPtr(true)
			rec.AppendTranscript(fmt.Sprintf("[SYS] Calendar ok for %s", slot.Start))
			return
		}
	}

	rec.CalendarOK = models.BoolPtr(false)
	rec.Fail(MsgNoSlotFitsCalendar)
}

// reserveAndBook reserves the chosen slot, writes the calendar event, scores
// the pick and assembles the result payload.
func (s *DefaultWorkflowService) reserveAndBook(ctx context.Context, rec *models.WorkflowRecord) {
	if rec.Provider == nil || rec.ChosenSlot == nil {
		rec.Fail(MsgMissingProviderOrSlot)
		return
	}
	provider, slot := *rec.Provider, *rec.ChosenSlot

	ok, err := s.Receptionist.Reserve(ctx, provider, slot)
	if err != nil {
		utils.GetLogger().Warn("Reservation call failed",
			zap.String("runId", rec.RunID),
			zap.String("provider", provider.Name), zap.Error(err))
		ok = false
	}
	if !ok {
		rec.ReservationOK = models.BoolPtr(false)
		rec.Fail(MsgReservationFailed)
		return
	}

	title := fmt.Sprintf("%s appointment - %s", titleCaser.String(provider.Specialty), provider.Name)
	eventID := s.createCalendarEvent(ctx, title, slot, eventLocation(provider))

	score := scoring.Score(provider, slot)
	summary := provider.Summary()

	rec.ReservationOK = models.BoolPtr(true)
	rec.EventID = eventID
	rec.Result = &models.BookingResult{
		Provider: &summary,
		Slot:     &slot,
		Score:    &score,
		EventID:  eventID,
	}
	rec.AppendTranscript(fmt.Sprintf("[SYS] Reserved + created event: %s", eventID))
	s.scheduleReminder(ctx, rec, provider.Name, title, slot, eventLocation(provider))
}

// finalize converts the terminal state into the result payload. It runs on
// every path: failures become a failed result, a booked run is stamped
// success, and a record with neither ends as completed.
func (s *DefaultWorkflowService) finalize(ctx context.Context, rec *models.WorkflowRecord) {
	switch {
	case rec.Failed() && rec.Result == nil:
		utils.GetLogger().Warn("Workflow failed",
			zap.String("runId", rec.RunID),
			zap.String("code", FailureCode(rec.Error)),
			zap.String("error", rec.Error))
		rec.Result = &models.BookingResult{
			Status:     models.StatusFailed,
			Error:      rec.Error,
			Transcript: rec.Transcript,
		}
	case rec.Result != nil:
		rec.Result.Status = models.StatusSuccess
		rec.Result.Transcript = rec.Transcript
	default:
		rec.Result = &models.BookingResult{
			Status:     models.StatusCompleted,
			Transcript: rec.Transcript,
		}
	}
}

// slotFree asks the calendar about a slot. Port errors count as free so a
// calendar outage never blocks a booking.
func (s *DefaultWorkflowService) slotFree(ctx context.Context, slot models.Slot) bool {
	free, err := s.Calendar.IsFree(ctx, slot)
	if err != nil {
		utils.GetLogger().Warn("Calendar check failed, treating slot as free",
			zap.String("start", slot.Start), zap.Error(err))
		return true
	}
	return free
}

// createCalendarEvent writes the event, falling back to the deterministic
// offline id when the port errors out.
func (s *DefaultWorkflowService) createCalendarEvent(ctx context.Context, title string, slot models.Slot, location string) string {
	eventID, err := s.Calendar.CreateEvent(ctx, title, slot, location)
	if err != nil {
		utils.GetLogger().Warn("Event creation failed, using fallback id",
			zap.String("title", title), zap.Error(err))
		return calendar.FallbackEventID(title, slot)
	}
	return eventID
}

// eventLocation labels the calendar event with the provider's address, or
// its name when no address is on file.
func eventLocation(p models.Provider) string {
	if p.Address != "" {
		return p.Address
	}
	return p.Name
}
