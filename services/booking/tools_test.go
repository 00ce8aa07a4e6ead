package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"callpilot/models"
	"callpilot/services/calendar"
	"callpilot/services/receptionist"
)

func newToolTestSession(dir *fakeDirectory) *ToolSession {
	svc := newTestService(dir, receptionist.NewSimCaller(), calendar.NewStubCalendar())
	return svc.newToolSession()
}

func execute(t *testing.T, ts *ToolSession, name string, args map[string]any) map[string]any {
	t.Helper()
	result := ts.Execute(context.Background(), models.ToolCall{Name: name, Args: args})
	require.Equal(t, name, result.Name)
	require.NotNil(t, result.Payload)
	return result.Payload
}

func TestSearchProvidersFillsDefaultsFromSession(t *testing.T) {
	dir := &fakeDirectory{providers: berlinProviders()}
	ts := newToolTestSession(dir)

	payload := execute(t, ts, ToolSearchProviders, map[string]any{})

	require.Equal(t, "dentist", dir.lastQuery.specialty)
	require.Equal(t, 5.0, dir.lastQuery.radiusKm)
	require.Equal(t, "Berlin", dir.lastQuery.location)

	providers := payload["providers"].([]any)
	require.Len(t, providers, 2)
	first := providers[0].(map[string]any)
	require.Equal(t, "prov_1", first["id"])
	require.Equal(t, "Mitte Dental", first["name"])
	require.Equal(t, 4.6, first["rating"])
	require.Equal(t, 1.2, first["distance_km"])
	require.Len(t, first["openings"].([]any), 3)
}

func TestSearchProvidersPassesExplicitArgs(t *testing.T) {
	dir := &fakeDirectory{}
	ts := newToolTestSession(dir)

	payload := execute(t, ts, ToolSearchProviders, map[string]any{
		"specialty": "physio",
		"radius_km": 2.5,
		"location":  "Hamburg",
	})

	require.Equal(t, "physio", dir.lastQuery.specialty)
	require.Equal(t, 2.5, dir.lastQuery.radiusKm)
	require.Equal(t, "Hamburg", dir.lastQuery.location)
	require.Empty(t, payload["providers"].([]any))
}

func TestSearchProvidersKeepsCacheOnFailure(t *testing.T) {
	dir := &fakeDirectory{providers: berlinProviders()}
	ts := newToolTestSession(dir)

	execute(t, ts, ToolSearchProviders, map[string]any{})
	require.Len(t, ts.providers, 2)

	dir.err = errors.New("directory unreachable")
	payload := execute(t, ts, ToolSearchProviders, map[string]any{})

	require.Equal(t, "directory unreachable", payload["error"])
	require.Empty(t, payload["providers"].([]any))
	// The previous results survive, so follow-up tool calls keep working.
	require.Len(t, ts.providers, 2)
}

func TestToolSessionsDoNotShareProviderCaches(t *testing.T) {
	dir := &fakeDirectory{providers: berlinProviders()}
	svc := newTestService(dir, receptionist.NewSimCaller(), calendar.NewStubCalendar())

	first := svc.newToolSession()
	second := svc.newToolSession()

	execute(t, first, ToolSearchProviders, map[string]any{})
	require.Len(t, first.providers, 2)
	require.Empty(t, second.providers)

	payload := execute(t, second, ToolGetOpenings, map[string]any{"provider_id": "prov_1"})
	require.Equal(t, "Unknown provider_id=prov_1", payload["error"])
}

func TestGetOpeningsReturnsCachedProviderSlots(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{providers: berlinProviders()})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolGetOpenings, map[string]any{"provider_id": "prov_2"})

	openings := payload["openings"].([]any)
	require.Len(t, openings, 1)
	slot := openings[0].(map[string]any)
	require.Equal(t, "2026-02-11T14:00:00", slot["start"])
	require.Equal(t, "2026-02-11T14:30:00", slot["end"])
}

func TestGetOpeningsUnknownProvider(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{providers: berlinProviders()})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolGetOpenings, map[string]any{"provider_id": "ghost"})

	require.Equal(t, "Unknown provider_id=ghost", payload["error"])
	require.Empty(t, payload["openings"].([]any))
}

func TestCheckCalendarFree(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{})

	busy := execute(t, ts, ToolCheckCalendarFree, map[string]any{
		"start": "2026-02-10T15:30:00", "end": "2026-02-10T16:00:00",
	})
	require.Equal(t, false, busy["free"])

	free := execute(t, ts, ToolCheckCalendarFree, map[string]any{
		"start": "2026-02-11T09:00:00", "end": "2026-02-11T09:30:00",
	})
	require.Equal(t, true, free["free"])
}

func TestCheckCalendarFreeDegradesToFree(t *testing.T) {
	svc := newTestService(&fakeDirectory{}, receptionist.NewSimCaller(),
		&fakeCalendar{isFreeErr: errors.New("calendar down")})
	ts := svc.newToolSession()

	payload := execute(t, ts, ToolCheckCalendarFree, map[string]any{
		"start": "2026-02-10T15:30:00", "end": "2026-02-10T16:00:00",
	})

	require.Equal(t, true, payload["free"])
}

func TestReserveSlot(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{providers: berlinProviders()})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolReserveSlot, map[string]any{
		"provider_id": "prov_1",
		"start":       "2026-02-11T09:00:00",
		"end":         "2026-02-11T09:30:00",
	})

	require.Equal(t, true, payload["ok"])
}

func TestReserveSlotUnknownProvider(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{providers: berlinProviders()})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolReserveSlot, map[string]any{"provider_id": "ghost"})

	require.Equal(t, false, payload["ok"])
	require.Equal(t, "Unknown provider_id=ghost", payload["error"])
}

func TestCreateCalendarEventTool(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{})

	payload := execute(t, ts, ToolCreateCalendarEvent, map[string]any{
		"title":    "Dentist Appointment - Mitte Dental",
		"start":    "2026-02-11T09:00:00",
		"end":      "2026-02-11T09:30:00",
		"location": "Torstr. 12, 10119 Berlin",
	})

	require.Equal(t, "demo_event::Dentist Appointment - Mitte Dental::2026-02-11T09:00:00", payload["event_id"])
}

func TestCreateCalendarEventToolFallsBack(t *testing.T) {
	svc := newTestService(&fakeDirectory{}, receptionist.NewSimCaller(),
		&fakeCalendar{createErr: errors.New("calendar down")})
	ts := svc.newToolSession()

	payload := execute(t, ts, ToolCreateCalendarEvent, map[string]any{
		"title": "Checkup", "start": "2026-02-11T09:00:00", "end": "2026-02-11T09:30:00",
	})

	require.Equal(t, "mvp_event::Checkup::2026-02-11T09:00:00", payload["event_id"])
}

func TestSelectBestAppointmentPicksHighestScoringFreeSlot(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{providers: berlinProviders()})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolSelectBest, map[string]any{"time_window": "this week"})

	provider := payload["provider"].(map[string]any)
	require.Equal(t, "prov_1", provider["id"])
	slot := payload["slot"].(map[string]any)
	// The 15:30 opening conflicts with the busy window; the first free one wins.
	require.Equal(t, "2026-02-11T09:00:00", slot["start"])
	require.Equal(t, 10.564, payload["score"])
	require.Nil(t, payload["synthesized"])
}

func TestSelectBestAppointmentKeepsFirstSeenOnTies(t *testing.T) {
	slot := models.Slot{Start: "2026-02-11T09:00:00", End: "2026-02-11T09:30:00"}
	providers := []models.Provider{
		{ID: "twin_a", Name: "Twin A", Specialty: "dentist", Rating: 4.0, DistanceKm: 1.0, Openings: []models.Slot{slot}},
		{ID: "twin_b", Name: "Twin B", Specialty: "dentist", Rating: 4.0, DistanceKm: 1.0, Openings: []models.Slot{slot}},
	}
	ts := newToolTestSession(&fakeDirectory{providers: providers})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolSelectBest, map[string]any{})

	provider := payload["provider"].(map[string]any)
	require.Equal(t, "twin_a", provider["id"])
	require.Equal(t, 9.5, payload["score"])
}

func TestSelectBestAppointmentSynthesizesPlaceholder(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolSelectBest, map[string]any{})

	require.Equal(t, true, payload["synthesized"])
	require.Equal(t, 0.0, payload["score"])
	provider := payload["provider"].(map[string]any)
	require.Equal(t, "dummy_provider_1", provider["id"])
	require.Equal(t, "General Medical Clinic", provider["name"])
	require.Equal(t, "Berlin, Germany", provider["address"])

	slot := payload["slot"].(map[string]any)
	require.True(t, strings.HasSuffix(slot["start"].(string), "T10:00:00"))
	require.True(t, strings.HasSuffix(slot["end"].(string), "T10:30:00"))
}

func TestPlaceholderOptionIsTomorrowMorning(t *testing.T) {
	now := time.Date(2026, 2, 10, 18, 45, 12, 0, time.UTC)

	provider, slot := placeholderOption(now)

	require.Equal(t, "dummy_provider_1", provider.ID)
	require.Equal(t, "2026-02-11T10:00:00", slot.Start)
	require.Equal(t, "2026-02-11T10:30:00", slot.End)
}

func TestScoreOptionTool(t *testing.T) {
	providers := []models.Provider{
		{ID: "prov_5", Name: "Neukoelln Dental", Specialty: "dentist", Rating: 4.0, DistanceKm: 1.0},
	}
	ts := newToolTestSession(&fakeDirectory{providers: providers})
	execute(t, ts, ToolSearchProviders, map[string]any{})

	payload := execute(t, ts, ToolScoreOption, map[string]any{
		"provider_id": "prov_5",
		"start":       "2026-02-11T09:00:00",
		"end":         "2026-02-11T09:30:00",
	})

	require.Equal(t, 9.5, payload["total"])
	explain := payload["explain"].(map[string]any)
	require.Equal(t, 4.0, explain["rating"])
	require.Equal(t, 1.0, explain["distance_km"])
	require.Equal(t, "2026-02-11T09:00:00", explain["slot_start"])
}

func TestExecuteUnknownTool(t *testing.T) {
	ts := newToolTestSession(&fakeDirectory{})

	payload := execute(t, ts, "teleport", nil)

	require.Equal(t, "Unknown tool teleport", payload["error"])
}

func TestArgFloatParsesStrings(t *testing.T) {
	args := map[string]any{"a": 2.5, "b": "3.75", "c": "not a number"}

	require.Equal(t, 2.5, argFloat(args, "a"))
	require.Equal(t, 3.75, argFloat(args, "b"))
	require.Equal(t, 0.0, argFloat(args, "c"))
	require.Equal(t, 0.0, argFloat(args, "missing"))
}

func TestToolSpecsCoverTheWholeSurface(t *testing.T) {
	specs := toolSpecs()

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
		require.NotEmpty(t, spec.Description)
	}
	require.Equal(t, []string{
		ToolSearchProviders,
		ToolGetOpenings,
		ToolCheckCalendarFree,
		ToolReserveSlot,
		ToolCreateCalendarEvent,
		ToolSelectBest,
		ToolScoreOption,
	}, names)
}
