package intelligence

import (
	"context"

	"callpilot/models"
)

// ToolParam describes one argument of a tool.
type ToolParam struct {
	Name        string
	Type        string // "string" or "number"
	Description string
	Required    bool
}

// ToolSpec describes a tool the reasoner may call.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

// Reasoner produces the assistant's next conversational turn. It may request
// tool calls; the caller executes them and feeds the results back as tool
// turns on the following round.
type Reasoner interface {
	Next(ctx context.Context, conversation []models.Turn, tools []ToolSpec) (*models.Turn, error)
}

// Extraction is the structured view of a free-text booking request. Zero
// values mean the user did not state the field.
type Extraction struct {
	Specialty          string  `json:"specialty"`
	TimeWindow         string  `json:"time_window"`
	RadiusKm           float64 `json:"radius_km"`
	LocationPreference string  `json:"location_preference"`
	ProviderName       string  `json:"provider_name"`
	Urgency            string  `json:"urgency"`
}

// Known carries the request fields that are already set, so extraction can
// tell the model not to overwrite them.
type Known struct {
	Specialty    string
	TimeWindow   string
	RadiusKm     float64
	UserLocation string
}

// Extractor pulls structured preferences out of free text.
type Extractor interface {
	Extract(ctx context.Context, userText string, known Known) (*Extraction, error)
}
