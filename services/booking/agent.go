package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/services/intelligence"
	"callpilot/utils"
)

// maxProximityRadiusKm caps the search radius when the user asks for
// something close by.
const maxProximityRadiusKm = 3.0

// RunAgent executes the model-driven pipeline: listen, extract preferences,
// run the reason/act loop against the tool surface, then book whatever the
// model settled on. The whole terminal record is returned; in agent mode the
// record is the result.
func (s *DefaultWorkflowService) RunAgent(ctx context.Context, req models.BookingRequest) *models.WorkflowRecord {
	rec := models.NewWorkflowRecord(req)
	session := s.newToolSession()
	runSteps(ctx, s.agentSteps(session), rec)
	return rec
}

func (s *DefaultWorkflowService) agentSteps(session *ToolSession) []Step {
	return []Step{
		{Name: "listen_user", Run: s.listenUser},
		{Name: "extract_preferences", Run: s.extractPreferences},
		{Name: "agent", Run: func(ctx context.Context, rec *models.WorkflowRecord) {
			s.agentLoop(ctx, session, rec)
		}},
		{Name: "finalize", Run: s.finalizeAnswer, Always: true},
		{Name: "create_event", Run: s.createEvent},
		{Name: "speak_user", Run: s.speakUser},
	}
}

// listenUser records the raw user utterance as the opening transcript line.
func (s *DefaultWorkflowService) listenUser(ctx context.Context, rec *models.WorkflowRecord) {
	rec.AppendTranscript(fmt.Sprintf("[USER] %s", rec.UserText))
}

// extractPreferences pulls structured fields out of the free-text request.
// It never blocks the run: extraction failures just log, and whatever is
// still unset afterwards is normalized from the defaults. Caller-supplied
// values are never overwritten.
func (s *DefaultWorkflowService) extractPreferences(ctx context.Context, rec *models.WorkflowRecord) {
	// The proximity cap compares against the radius as it stood before
	// extraction, so an extracted radius never widens it.
	baseRadius := rec.RadiusKm
	if baseRadius <= 0 {
		baseRadius = s.defaults().RadiusKm
	}

	if strings.TrimSpace(rec.UserText) != "" && s.Extractor != nil {
		ext, err := s.Extractor.Extract(ctx, rec.UserText, intelligence.Known{
			Specialty:    rec.Specialty,
			TimeWindow:   rec.TimeWindow,
			RadiusKm:     rec.RadiusKm,
			UserLocation: rec.UserLocation,
		})
		if err != nil {
			utils.GetLogger().Warn("Preference extraction failed, using defaults",
				zap.String("runId", rec.RunID), zap.Error(err))
		} else {
			mergeExtraction(rec, ext, baseRadius)
		}
	}

	rec.Normalize(s.defaults())
}

// mergeExtraction folds extracted preferences into the record. Specialty,
// time window and radius fill only still-unset fields; a proximity hint
// clamps the radius against its pre-extraction value; provider name and
// urgency are taken whenever the user stated them.
func mergeExtraction(rec *models.WorkflowRecord, ext *intelligence.Extraction, baseRadius float64) {
	if rec.Specialty == "" && ext.Specialty != "" {
		rec.Specialty = ext.Specialty
	}
	if rec.TimeWindow == "" && ext.TimeWindow != "" {
		rec.TimeWindow = ext.TimeWindow
	}
	if hasProximityHint(ext.LocationPreference) {
		rec.RadiusKm = math.Min(baseRadius, maxProximityRadiusKm)
	} else if rec.RadiusKm <= 0 && ext.RadiusKm > 0 {
		rec.RadiusKm = ext.RadiusKm
	}
	if ext.ProviderName != "" {
		rec.PreferredProvider = ext.ProviderName
	}
	if ext.Urgency != "" {
		rec.Urgency = ext.Urgency
	}
}

func hasProximityHint(pref string) bool {
	pref = strings.ToLower(pref)
	for _, hint := range []string{"close", "near", "nearby"} {
		if strings.Contains(pref, hint) {
			return true
		}
	}
	return false
}

// agentLoop alternates between the reasoner and the tool session until the
// reasoner answers without tool calls or the round cap trips. Every
// assistant reply is parsed for the final JSON summary, so the best option
// tracks the newest answer.
func (s *DefaultWorkflowService) agentLoop(ctx context.Context, session *ToolSession, rec *models.WorkflowRecord) {
	logger := utils.GetLogger()

	if len(rec.Conversation) == 0 {
		rec.Conversation = []models.Turn{
			{Role: models.RoleSystem, Content: systemPrompt(rec)},
			{Role: models.RoleUser, Content: userPrompt(rec)},
		}
	}
	specs := toolSpecs()

	for round := 0; round < s.maxRounds(); round++ {
		turn, err := s.Reasoner.Next(ctx, rec.Conversation, specs)
		if err != nil {
			logger.Error("Reasoner call failed",
				zap.String("runId", rec.RunID),
				zap.Int("round", round), zap.Error(err))
			rec.Fail(fmt.Sprintf("reasoning failed: %v", err))
			return
		}

		rec.Conversation = append(rec.Conversation, *turn)
		rec.BestOption = parseBestOption(turn.Content)

		if len(turn.ToolCalls) == 0 {
			return
		}

		toolTurn := models.Turn{Role: models.RoleTool}
		for _, call := range turn.ToolCalls {
			logger.Debug("Executing tool call",
				zap.String("runId", rec.RunID),
				zap.String("tool", call.Name))
			toolTurn.ToolResults = append(toolTurn.ToolResults, session.Execute(ctx, call))
		}
		rec.Conversation = append(rec.Conversation, toolTurn)
	}

	logger.Warn("Agent loop exceeded round cap",
		zap.String("runId", rec.RunID), zap.Int("maxRounds", s.maxRounds()))
	rec.AppendTranscript(fmt.Sprintf("[SYS] %s: no final answer after %d rounds", CodeAgentLoopExceeded, s.maxRounds()))
}

// finalizeAnswer keeps the last conversation turn's text as the user-facing
// answer.
func (s *DefaultWorkflowService) finalizeAnswer(ctx context.Context, rec *models.WorkflowRecord) {
	if n := len(rec.Conversation); n > 0 {
		rec.ResultText = rec.Conversation[n-1].Content
	}
}

// createEvent books the best option on the calendar. A missing or invalid
// option is replaced by the synthesized placeholder first, so the step
// always has bookable data; the calendar freedom check is logged but never
// blocks the event.
func (s *DefaultWorkflowService) createEvent(ctx context.Context, rec *models.WorkflowRecord) {
	logger := utils.GetLogger()

	opt := rec.BestOption
	if !opt.Valid() {
		provider, slot := placeholderOption(time.Now())
		opt = &models.BestOption{Provider: &provider, Slot: &slot, Synthesized: true}
		rec.BestOption = opt
		logger.Info("No valid appointment found, synthesizing placeholder",
			zap.String("runId", rec.RunID),
			zap.String("provider", provider.Name),
			zap.String("start", slot.Start))
	}

	if opt.Slot.Start == "" || opt.Slot.End == "" {
		logger.Warn("Best option has no usable slot times, skipping event creation",
			zap.String("runId", rec.RunID))
		return
	}

	logger.Info("Calendar freedom check",
		zap.String("runId", rec.RunID),
		zap.String("start", opt.Slot.Start),
		zap.Bool("free", s.slotFree(ctx, *opt.Slot)))

	specialty := rec.Specialty
	if specialty == "" {
		specialty = "Medical"
	}
	title := fmt.Sprintf("%s Appointment - %s", titleCaser.String(specialty), opt.Provider.Name)

	rec.EventID = s.createCalendarEvent(ctx, title, *opt.Slot, opt.Provider.Address)
	logger.Info("Calendar event created",
		zap.String("runId", rec.RunID), zap.String("eventId", rec.EventID))
	s.scheduleReminder(ctx, rec, opt.Provider.Name, title, *opt.Slot, opt.Provider.Address)
}

// speakUser voices the answer when the caller asked for speech output.
func (s *DefaultWorkflowService) speakUser(ctx context.Context, rec *models.WorkflowRecord) {
	if !rec.UseSpeech || s.Speaker == nil || rec.ResultText == "" {
		return
	}
	if err := s.Speaker.Speak(ctx, rec.ResultText); err != nil {
		utils.GetLogger().Warn("Speech output failed",
			zap.String("runId", rec.RunID), zap.Error(err))
	}
}

// parseBestOption reads the model's JSON summary. Malformed JSON goes
// through a repair pass first; text that still does not parse is preserved
// raw instead of being discarded.
func parseBestOption(content string) *models.BestOption {
	var opt models.BestOption
	if err := json.Unmarshal([]byte(content), &opt); err == nil {
		return &opt
	}
	repaired, err := jsonrepair.JSONRepair(content)
	if err == nil && json.Unmarshal([]byte(repaired), &opt) == nil {
		return &opt
	}
	return &models.BestOption{Raw: content}
}

func systemPrompt(rec *models.WorkflowRecord) string {
	return fmt.Sprintf(`You are CallPilot, an AI appointment-booking assistant.

Current booking request:
- specialty: %s
- time_window: %s
- radius_km: %g
- user_location: %s

Your job:
- Use the available tools to find providers and book appointments.
- Never invent data - always use tools to get real information.
- Call tools in this order:
1) search_providers - find matching providers
2) get_openings - get available slots for providers
3) check_calendar_free - verify slot availability (optional)
4) reserve_slot - reserve the chosen slot
5) score_option - score the appointment

After completing all tool calls, return a JSON summary with this exact schema:
{
"provider": {"id": "...", "name": "...", "address": "...", "rating": 0, "distance_km": 0},
"slot": {"start": "YYYY-MM-DDTHH:MM:SS", "end": "YYYY-MM-DDTHH:MM:SS"},
"score": 0
}

If no valid appointment is found, return a dummy appointment with the schema above.`,
		rec.Specialty, rec.TimeWindow, rec.RadiusKm, rec.UserLocation)
}

func userPrompt(rec *models.WorkflowRecord) string {
	return fmt.Sprintf(`Please book an appointment with these requirements:
- Specialty: %s
- Time window: %s
- Maximum distance: %g km from %s

Use the tools to complete this booking.`,
		rec.Specialty, rec.TimeWindow, rec.RadiusKm, rec.UserLocation)
}
