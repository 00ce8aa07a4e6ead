package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"callpilot/models"
	"callpilot/utils"
)

// TypeAppointmentReminder is the queued-task type for appointment reminders.
const TypeAppointmentReminder = "reminder:appointment"

// DefaultReminderLead is how long before the slot the reminder fires when no
// lead is configured.
const DefaultReminderLead = time.Hour

// NewAppointmentReminderTask builds the asynq task carrying the payload,
// scheduled for fireAt.
func NewAppointmentReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal reminder payload: %w", err)
	}
	task := asynq.NewTask(TypeAppointmentReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

// AsynqScheduler enqueues appointment reminders on the shared reminder
// queue. Reminders fire Lead before the slot start; starts already closer
// than that are delivered immediately.
type AsynqScheduler struct {
	Client *asynq.Client
	Lead   time.Duration
}

func NewAsynqScheduler(client *asynq.Client, lead time.Duration) *AsynqScheduler {
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	return &AsynqScheduler{Client: client, Lead: lead}
}

// ScheduleAppointment queues one reminder for the booked slot.
func (s *AsynqScheduler) ScheduleAppointment(ctx context.Context, payload models.ReminderPayload) error {
	fireAt, err := reminderFireTime(payload.SlotStart, s.Lead, time.Now())
	if err != nil {
		return err
	}

	task, opts, err := NewAppointmentReminderTask(payload, fireAt)
	if err != nil {
		return err
	}
	info, err := s.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder task: %w", err)
	}

	utils.GetLogger().Info("Appointment reminder scheduled",
		zap.String("taskId", info.ID),
		zap.String("runId", payload.RunID),
		zap.String("slotStart", payload.SlotStart),
		zap.Time("fireAt", fireAt))
	return nil
}

// reminderFireTime computes when the reminder should fire: lead before the
// slot start, clamped to now for slots that are already near.
func reminderFireTime(slotStart string, lead time.Duration, now time.Time) (time.Time, error) {
	start, err := time.ParseInLocation(models.SlotTimeLayout, slotStart, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot start %q: %w", slotStart, err)
	}

	fireAt := start.Add(-lead)
	if fireAt.Before(now) {
		fireAt = now
	}
	return fireAt, nil
}
