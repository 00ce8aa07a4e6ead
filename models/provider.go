package models

// SlotTimeLayout is the timestamp format of Slot boundaries.
const SlotTimeLayout = "2006-01-02T15:04:05"

// Slot represents a bookable time interval. Start and End are ISO-8601
// local timestamps (e.g. "2026-02-10T14:00:00"); the format sorts
// lexicographically, which the calendar overlap check relies on.
type Slot struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// Provider is a bookable practice returned by a directory backend.
// Immutable once returned; workflow steps copy what they need into the record.
type Provider struct {
	ID         string  `bson:"id" json:"id"`
	Name       string  `bson:"name" json:"name"`
	Specialty  string  `bson:"specialty" json:"specialty"`
	Rating     float64 `bson:"rating" json:"rating"` // 0-5 scale
	DistanceKm float64 `bson:"distanceKm" json:"distance_km"`
	Address    string  `bson:"address" json:"address,omitempty"`
	Openings   []Slot  `bson:"openings" json:"openings,omitempty"`

	// Populated by live directory backends only.
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Website string `bson:"website,omitempty" json:"website,omitempty"`
}

// ProviderSummary is the trimmed provider view embedded in booking results.
type ProviderSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	DistanceKm float64 `json:"distance_km"`
}

// Summary returns the result-payload view of the provider.
func (p Provider) Summary() ProviderSummary {
	return ProviderSummary{
		ID:         p.ID,
		Name:       p.Name,
		Rating:     p.Rating,
		DistanceKm: p.DistanceKm,
	}
}

// ScoreResult ranks a provider+slot option. Total is rounded to 3 decimals.
type ScoreResult struct {
	Total   float64      `json:"total"`
	Explain ScoreExplain `json:"explain"`
}

// ScoreExplain carries the inputs behind a score, verbatim.
type ScoreExplain struct {
	Rating     float64 `json:"rating"`
	DistanceKm float64 `json:"distance_km"`
	SlotStart  string  `json:"slot_start"`
}
