package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"callpilot/services/speech"
)

const (
	// MaxAudioFileSize bounds uploaded recordings (about one minute of
	// 16 kHz mono LINEAR16 audio, with headroom).
	MaxAudioFileSize = 5 * 1024 * 1024
	AllowedExtension = ".wav"
)

// SpeechHandler accepts WAV uploads and turns them into text for the
// workflow's user_text input.
type SpeechHandler struct {
	Transcriber speech.Transcriber
	Logger      *zap.Logger
}

func NewSpeechHandler(transcriber speech.Transcriber, logger *zap.Logger) *SpeechHandler {
	return &SpeechHandler{Transcriber: transcriber, Logger: logger}
}

// TranscribeHandler reads the uploaded audio, validates it is LINEAR16 WAV
// and returns the transcription.
func (h *SpeechHandler) TranscribeHandler(c *gin.Context) {
	if h.Transcriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech recognition is not configured"})
		return
	}

	language := c.DefaultPostForm("language", "en-US")

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required", "details": err.Error()})
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != AllowedExtension {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid file type",
			"details": fmt.Sprintf("expected %s, got %s", AllowedExtension, ext),
		})
		return
	}

	wavData, err := io.ReadAll(io.LimitReader(file, MaxAudioFileSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read audio file", "details": err.Error()})
		return
	}
	if len(wavData) > MaxAudioFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "audio file too large",
			"details": fmt.Sprintf("limit is %d bytes", MaxAudioFileSize),
		})
		return
	}

	wavHeader, err := speech.ParseWaveHeader(wavData)
	if err == nil {
		err = wavHeader.Validate()
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audio format", "details": err.Error()})
		return
	}

	transcription, err := h.Transcriber.Transcribe(c.Request.Context(), wavData, language)
	if err != nil {
		h.Logger.Error("Transcription failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "speech recognition failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transcription": transcription})
}
