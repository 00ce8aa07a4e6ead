package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"callpilot/config"
	"callpilot/models"
	"callpilot/services/speech"
	"callpilot/services/tasks"
	"callpilot/utils"
)

// InitReminderWorker runs the asynq worker in the background. Due reminders
// are voiced through the speaker port; with the stock log speaker that means
// a structured log line at fire time.
func InitReminderWorker(speaker speech.Speaker) {
	logger := utils.GetLogger()

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAppointmentReminder, handleReminderTask(speaker))

	go monitorRedisConnection()

	go func() {
		logger.Info("Starting reminder worker",
			zap.String("redisAddr", config.AppConfig.RedisAddr),
			zap.Int("queueDB", config.AppConfig.RedisReminderQueueDB))
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("Reminder worker failed to start",
					zap.Int("attempt", attempts),
					zap.Int("maxAttempts", maxAttempts), zap.Error(err))

				if attempts == maxAttempts {
					logger.Fatal("Reminder worker exhausted start attempts")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(speaker speech.Speaker) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return err
		}

		logger.Info("Delivering appointment reminder",
			zap.String("runId", p.RunID),
			zap.String("eventId", p.EventID),
			zap.String("slotStart", p.SlotStart))

		if err := speaker.Speak(ctx, reminderMessage(p)); err != nil {
			logger.Error("Reminder delivery failed",
				zap.String("runId", p.RunID), zap.Error(err))
			return err
		}
		return nil
	}
}

// reminderMessage phrases the payload for the speaker. The title already
// names the provider.
func reminderMessage(p models.ReminderPayload) string {
	msg := fmt.Sprintf("Reminder: %s at %s", p.Title, p.SlotStart)
	if p.Location != "" {
		msg += ", " + p.Location
	}
	return msg
}

// monitorRedisConnection pings the reminder queue periodically so a lost
// connection shows up in the logs before tasks silently stall.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			utils.GetLogger().Warn("Reminder queue connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
