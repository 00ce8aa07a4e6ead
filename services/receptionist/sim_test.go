package receptionist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"callpilot/models"
)

func TestNegotiateOffersFirstThreeSlots(t *testing.T) {
	provider := models.Provider{
		Name: "Mitte Dental",
		Openings: []models.Slot{
			{Start: "2026-02-10T10:00:00", End: "2026-02-10T10:30:00"},
			{Start: "2026-02-10T14:00:00", End: "2026-02-10T14:30:00"},
			{Start: "2026-02-11T09:00:00", End: "2026-02-11T09:30:00"},
			{Start: "2026-02-12T16:00:00", End: "2026-02-12T16:30:00"},
		},
	}

	res, err := NewSimCaller().Negotiate(context.Background(), provider, "this week")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Len(t, res.Slots, 3)
	require.Equal(t, "2026-02-10T10:00:00", res.Slots[0].Start)
	require.Equal(t, "2026-02-11T09:00:00", res.Slots[2].Start)

	require.Equal(t, []string{
		"[CALL] Calling Mitte Dental...",
		"[RECEP] Hello, how can I help?",
		"[AGENT] I'd like to book an appointment. Constraint: this week",
		"[RECEP] We can do: 2026-02-10T10:00:00, 2026-02-10T14:00:00, 2026-02-11T09:00:00",
		"[AGENT] Great, let me confirm one moment.",
	}, res.Transcript)
}

func TestNegotiateNoOpenings(t *testing.T) {
	provider := models.Provider{Name: "Kreuzberg Smiles"}

	res, err := NewSimCaller().Negotiate(context.Background(), provider, "this week afternoons")
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Empty(t, res.Slots)
	require.Equal(t, "[RECEP] Sorry, no availability.", res.Transcript[len(res.Transcript)-1])
}

func TestReserveAlwaysConfirms(t *testing.T) {
	ok, err := NewSimCaller().Reserve(context.Background(), models.Provider{Name: "Mitte Dental"}, models.Slot{
		Start: "2026-02-10T10:00:00", End: "2026-02-10T10:30:00",
	})
	require.NoError(t, err)
	require.True(t, ok)
}
