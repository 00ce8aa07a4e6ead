package speech

import (
	"context"
	"fmt"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
)

// Transcriber turns spoken audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte, language string) (string, error)
}

// GoogleTranscriber recognizes speech through the Google Cloud Speech API.
// It accepts mono 16-bit PCM WAV and reads the sample rate from the file
// header, so no transcoding step is needed.
type GoogleTranscriber struct {
	credentialsFile string
}

// NewGoogleTranscriber builds a transcriber using a service account file.
func NewGoogleTranscriber(credentialsFile string) *GoogleTranscriber {
	return &GoogleTranscriber{credentialsFile: credentialsFile}
}

// Transcribe validates the WAV payload and runs synchronous recognition.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, wavData []byte, language string) (string, error) {
	header, err := ParseWaveHeader(wavData)
	if err != nil {
		return "", err
	}
	if err := header.Validate(); err != nil {
		return "", err
	}
	if language == "" {
		language = "en-US"
	}

	client, err := gspeech.NewClient(ctx, option.WithCredentialsFile(g.credentialsFile))
	if err != nil {
		return "", fmt.Errorf("failed to initialize speech client: %w", err)
	}
	defer client.Close()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(header.SampleRate),
			LanguageCode:      language,
			AudioChannelCount: int32(header.NumChannels),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: wavData,
			},
		},
	}

	resp, err := client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	return strings.TrimSpace(transcript.String()), nil
}
