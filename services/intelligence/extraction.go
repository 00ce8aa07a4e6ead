package intelligence

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// parseExtraction decodes the model's extraction reply. Models wrap JSON in
// prose or fences often enough that repair is a routine step, and numeric
// fields sometimes arrive as strings.
func parseExtraction(content string) (*Extraction, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, fmt.Errorf("extraction reply is not JSON: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("extraction reply unparseable after repair: %w", err)
		}
	}

	ext := &Extraction{
		Specialty:          stringField(raw, "specialty"),
		TimeWindow:         stringField(raw, "time_window"),
		LocationPreference: stringField(raw, "location_preference"),
		ProviderName:       stringField(raw, "provider_name"),
		Urgency:            stringField(raw, "urgency"),
	}
	switch v := raw["radius_km"].(type) {
	case float64:
		ext.RadiusKm = v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			ext.RadiusKm = f
		}
	}
	return ext, nil
}

func stringField(raw map[string]interface{}, key string) string {
	s, _ := raw[key].(string)
	return s
}
