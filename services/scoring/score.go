package scoring

import (
	"math"

	"callpilot/models"
)

// Weights for ranking appointment options. Rating dominates, with a proximity
// bonus that decays as distance grows.
const (
	RatingWeight    = 2.0
	ProximityWeight = 3.0
)

// Score rates a provider/slot pairing. Higher-rated providers win, closer
// providers get a bonus, and the slot start is carried in the explanation so
// callers can surface why an option was picked.
func Score(provider models.Provider, slot models.Slot) models.ScoreResult {
	proximity := 1.0 / (1.0 + provider.DistanceKm)
	total := provider.Rating*RatingWeight + proximity*ProximityWeight

	return models.ScoreResult{
		Total: roundTo3(total),
		Explain: models.ScoreExplain{
			Rating:     provider.Rating,
			DistanceKm: provider.DistanceKm,
			SlotStart:  slot.Start,
		},
	}
}

func roundTo3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
