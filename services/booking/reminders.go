package booking

import (
	"context"

	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/utils"
)

// ReminderScheduler queues a pre-appointment reminder once a booking lands.
type ReminderScheduler interface {
	ScheduleAppointment(ctx context.Context, payload models.ReminderPayload) error
}

// scheduleReminder queues the reminder for a booked slot. Best effort: a nil
// scheduler disables reminders and scheduling errors never fail the run.
func (s *DefaultWorkflowService) scheduleReminder(ctx context.Context, rec *models.WorkflowRecord, providerName, title string, slot models.Slot, location string) {
	if s.Reminders == nil {
		return
	}

	payload := models.ReminderPayload{
		RunID:        rec.RunID,
		EventID:      rec.EventID,
		ProviderName: providerName,
		Title:        title,
		SlotStart:    slot.Start,
		Location:     location,
	}
	if err := s.Reminders.ScheduleAppointment(ctx, payload); err != nil {
		utils.GetLogger().Warn("Failed to schedule appointment reminder",
			zap.String("runId", rec.RunID),
			zap.String("slotStart", slot.Start), zap.Error(err))
	}
}
