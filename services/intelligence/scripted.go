package intelligence

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"callpilot/models"
)

// Tool names the scripted reasoner drives. They must match the names the
// tool registry advertises.
const (
	toolSearchProviders = "search_providers"
	toolSelectBest      = "select_best_appointment"
	toolReserveSlot     = "reserve_slot"
)

// ScriptedReasoner is the offline reasoning backend. It walks the tool
// surface the same way the hosted model is prompted to (search, pick the
// best free option, reserve, summarize) and emits the same JSON summary, so
// the agent pipeline behaves identically with no API key configured. It is
// stateless: every decision is derived from the conversation so far.
type ScriptedReasoner struct{}

// NewScriptedReasoner returns the deterministic reasoner.
func NewScriptedReasoner() ScriptedReasoner {
	return ScriptedReasoner{}
}

// Next picks the next move from the latest tool results.
func (ScriptedReasoner) Next(ctx context.Context, conversation []models.Turn, tools []ToolSpec) (*models.Turn, error) {
	lastResults := lastToolResults(conversation)

	switch {
	case lastResults == nil:
		// Opening move: find candidate providers.
		specialty, radiusKm, _, _ := requestFacts(conversation)
		return assistantCall(toolSearchProviders, map[string]interface{}{
			"specialty": specialty,
			"radius_km": radiusKm,
		}), nil

	case hasResult(lastResults, toolSearchProviders):
		_, _, timeWindow, _ := requestFacts(conversation)
		return assistantCall(toolSelectBest, map[string]interface{}{
			"time_window": timeWindow,
		}), nil

	case hasResult(lastResults, toolSelectBest):
		best := findPayload(conversation, toolSelectBest)
		provider, _ := best["provider"].(map[string]interface{})
		slot, _ := best["slot"].(map[string]interface{})
		synthesized, _ := best["synthesized"].(bool)
		if provider == nil || slot == nil || synthesized {
			// Nothing bookable; hand the placeholder straight back.
			return finalAnswer(best), nil
		}
		providerID, _ := provider["id"].(string)
		start, _ := slot["start"].(string)
		end, _ := slot["end"].(string)
		return assistantCall(toolReserveSlot, map[string]interface{}{
			"provider_id": providerID,
			"start":       start,
			"end":         end,
		}), nil

	default:
		// Reservation confirmed; summarize the picked option.
		return finalAnswer(findPayload(conversation, toolSelectBest)), nil
	}
}

// finalAnswer emits the JSON summary the agent pipeline parses into
// best_option.
func finalAnswer(best map[string]interface{}) *models.Turn {
	if best == nil {
		best = map[string]interface{}{}
	}
	summary := map[string]interface{}{
		"provider": best["provider"],
		"slot":     best["slot"],
		"score":    best["score"],
	}
	if synthesized, _ := best["synthesized"].(bool); synthesized {
		summary["synthesized"] = true
	}
	data, err := json.Marshal(summary)
	if err != nil {
		data = []byte("{}")
	}
	return &models.Turn{Role: models.RoleAssistant, Content: string(data)}
}

// requestFacts recovers the booking constraints from the seeded user turn.
// The seeding format is owned by the agent pipeline, so line parsing is
// reliable; missing lines fall back to the stock defaults.
func requestFacts(conversation []models.Turn) (specialty string, radiusKm float64, timeWindow, location string) {
	d := models.StandardDefaults()
	specialty, radiusKm, timeWindow, location = d.Specialty, d.RadiusKm, d.TimeWindow, d.Location

	for _, turn := range conversation {
		if turn.Role != models.RoleUser {
			continue
		}
		for _, line := range strings.Split(turn.Content, "\n") {
			line = strings.TrimPrefix(strings.TrimSpace(line), "- ")
			if v, ok := strings.CutPrefix(line, "Specialty: "); ok {
				specialty = v
			} else if v, ok := strings.CutPrefix(line, "Time window: "); ok {
				timeWindow = v
			} else if v, ok := strings.CutPrefix(line, "Maximum distance: "); ok {
				// "5 km from Berlin"
				if before, after, found := strings.Cut(v, " km from "); found {
					if f, err := strconv.ParseFloat(before, 64); err == nil {
						radiusKm = f
					}
					location = after
				}
			}
		}
		// Only the first user turn carries the constraints.
		break
	}
	return specialty, radiusKm, timeWindow, location
}

func lastToolResults(conversation []models.Turn) []models.ToolResult {
	if len(conversation) == 0 {
		return nil
	}
	last := conversation[len(conversation)-1]
	if last.Role != models.RoleTool {
		return nil
	}
	return last.ToolResults
}

func hasResult(results []models.ToolResult, name string) bool {
	for _, r := range results {
		if r.Name == name {
			return true
		}
	}
	return false
}

// findPayload returns the most recent payload a tool produced, or nil.
func findPayload(conversation []models.Turn, name string) map[string]interface{} {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role != models.RoleTool {
			continue
		}
		for _, r := range conversation[i].ToolResults {
			if r.Name == name {
				return r.Payload
			}
		}
	}
	return nil
}

func assistantCall(name string, args map[string]interface{}) *models.Turn {
	return &models.Turn{
		Role:      models.RoleAssistant,
		ToolCalls: []models.ToolCall{{Name: name, Args: args}},
	}
}

// ScriptedExtractor is the offline extraction backend: plain keyword
// spotting over the user text. It only proposes values; merge rules stay
// with the pipeline.
type ScriptedExtractor struct{}

// NewScriptedExtractor returns the keyword extractor.
func NewScriptedExtractor() ScriptedExtractor {
	return ScriptedExtractor{}
}

// Ordered so the first hit wins deterministically.
var specialtyKeywords = []struct{ hint, specialty string }{
	{"dentist", "dentist"},
	{"dental", "dentist"},
	{"tooth", "dentist"},
	{"dermatologist", "dermatology"},
	{"skin", "dermatology"},
	{"cardiologist", "cardiology"},
	{"heart", "cardiology"},
	{"physio", "physiotherapy"},
}

var timeWindowHints = []string{"today", "tomorrow", "next week", "this week", "this month"}

var urgencyHints = []string{"urgent", "asap", "as soon as possible", "emergency"}

var nearHints = []string{"near me", "nearby", "close by", "close"}

// Extract scans for specialty, time window, proximity and urgency hints.
func (ScriptedExtractor) Extract(ctx context.Context, userText string, known Known) (*Extraction, error) {
	lower := strings.ToLower(userText)
	ext := &Extraction{}

	for _, kw := range specialtyKeywords {
		if strings.Contains(lower, kw.hint) {
			ext.Specialty = kw.specialty
			break
		}
	}
	for _, w := range timeWindowHints {
		if strings.Contains(lower, w) {
			ext.TimeWindow = w
			break
		}
	}
	for _, hint := range nearHints {
		if strings.Contains(lower, hint) {
			ext.LocationPreference = hint
			break
		}
	}
	for _, u := range urgencyHints {
		if strings.Contains(lower, u) {
			ext.Urgency = "high"
			break
		}
	}
	return ext, nil
}
