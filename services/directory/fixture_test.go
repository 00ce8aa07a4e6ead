package directory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"callpilot/models"
)

func writeFixture(t *testing.T, providers []models.Provider) string {
	t.Helper()
	data, err := json.Marshal(providers)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "providers.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleProviders() []models.Provider {
	return []models.Provider{
		{
			ID: "prov_1", Name: "Mitte Dental", Specialty: "dentist",
			Rating: 4.6, DistanceKm: 1.2,
			Openings: []models.Slot{{Start: "2026-02-10T10:00:00", End: "2026-02-10T10:30:00"}},
		},
		{
			ID: "prov_2", Name: "Kreuzberg Smiles", Specialty: "dentist",
			Rating: 4.2, DistanceKm: 2.8,
		},
		{
			ID: "prov_3", Name: "Charite Cardiology", Specialty: "cardiology",
			Rating: 4.9, DistanceKm: 3.1,
		},
		{
			ID: "prov_4", Name: "Spandau Dental", Specialty: "dentist",
			Rating: 4.8, DistanceKm: 9.5,
		},
	}
}

func TestFixtureSearchFiltersBySpecialtyAndRadius(t *testing.T) {
	dir := NewFixtureDirectory(writeFixture(t, sampleProviders()))

	got, err := dir.Search(context.Background(), "dentist", 5.0, "Berlin")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "prov_1", got[0].ID)
	require.Equal(t, "prov_2", got[1].ID)
}

func TestFixtureSearchPreservesFileOrder(t *testing.T) {
	providers := []models.Provider{
		{ID: "b", Specialty: "dentist", DistanceKm: 3.0},
		{ID: "a", Specialty: "dentist", DistanceKm: 1.0},
		{ID: "c", Specialty: "dentist", DistanceKm: 2.0},
	}
	dir := NewFixtureDirectory(writeFixture(t, providers))

	got, err := dir.Search(context.Background(), "dentist", 5.0, "Berlin")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestFixtureSearchNoMatches(t *testing.T) {
	dir := NewFixtureDirectory(writeFixture(t, sampleProviders()))

	got, err := dir.Search(context.Background(), "dermatology", 5.0, "Berlin")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFixtureGetByID(t *testing.T) {
	dir := NewFixtureDirectory(writeFixture(t, sampleProviders()))

	p, err := dir.GetByID(context.Background(), "prov_3")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "Charite Cardiology", p.Name)

	missing, err := dir.GetByID(context.Background(), "prov_999")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestFixtureMissingFile(t *testing.T) {
	dir := NewFixtureDirectory(filepath.Join(t.TempDir(), "nope.json"))

	_, err := dir.Search(context.Background(), "dentist", 5.0, "Berlin")
	require.Error(t, err)
}
