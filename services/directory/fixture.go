package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"callpilot/models"
)

// FixtureDirectory serves providers from a local JSON file. It is the default
// backend for demos and tests, and re-reads the file on every call so edits
// show up without a restart.
type FixtureDirectory struct {
	Path string
}

// NewFixtureDirectory returns a directory backed by the JSON file at path.
func NewFixtureDirectory(path string) *FixtureDirectory {
	return &FixtureDirectory{Path: path}
}

func (d *FixtureDirectory) load() ([]models.Provider, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file %q: %w", d.Path, err)
	}
	var providers []models.Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("failed to parse providers file %q: %w", d.Path, err)
	}
	return providers, nil
}

// Search filters by exact specialty match and the distance budget, preserving
// file order.
func (d *FixtureDirectory) Search(ctx context.Context, specialty string, radiusKm float64, location string) ([]models.Provider, error) {
	providers, err := d.load()
	if err != nil {
		return nil, err
	}
	var matches []models.Provider
	for _, p := range providers {
		if p.Specialty == specialty && p.DistanceKm <= radiusKm {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// GetByID scans the fixture for a provider with the given id.
func (d *FixtureDirectory) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	providers, err := d.load()
	if err != nil {
		return nil, err
	}
	for i := range providers {
		if providers[i].ID == id {
			return &providers[i], nil
		}
	}
	return nil, nil
}
