package directory

import (
	"context"

	"callpilot/models"
)

// Directory finds bookable providers for a specialty around the user.
type Directory interface {
	// Search returns providers offering the specialty within radiusKm of the
	// user's location. Implementations keep their source ordering so ties
	// resolve the same way on every run.
	Search(ctx context.Context, specialty string, radiusKm float64, location string) ([]models.Provider, error)
	// GetByID resolves a single provider. Unknown ids return (nil, nil).
	GetByID(ctx context.Context, id string) (*models.Provider, error)
}
