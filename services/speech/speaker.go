package speech

import (
	"context"

	"go.uber.org/zap"

	"callpilot/utils"
)

// Speaker voices the final result back to the user.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// LogSpeaker is the default output channel: it writes the spoken line to the
// structured log. A TTS integration can slot in behind the same interface.
type LogSpeaker struct{}

// NewLogSpeaker returns the logging speaker.
func NewLogSpeaker() LogSpeaker {
	return LogSpeaker{}
}

// Speak logs the text that would be voiced.
func (LogSpeaker) Speak(ctx context.Context, text string) error {
	utils.GetLogger().Info("Speaking to user", zap.String("text", text))
	return nil
}
