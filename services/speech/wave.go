package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const waveHeaderSize = 44

// WaveHeader is the fixed 44-byte RIFF/WAVE header.
type WaveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

// ParseWaveHeader decodes the header at the front of a WAV file.
func ParseWaveHeader(data []byte) (*WaveHeader, error) {
	if len(data) < waveHeaderSize {
		return nil, errors.New("invalid WAV header length")
	}
	var header WaveHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	return &header, nil
}

// Validate checks the audio is plain PCM the recognizer accepts without
// transcoding: mono, 16-bit, sane sample rate.
func (h *WaveHeader) Validate() error {
	if string(h.RiffTag[:]) != "RIFF" || string(h.WaveTag[:]) != "WAVE" {
		return errors.New("not a RIFF/WAVE file")
	}
	if h.AudioFormat != 1 {
		return fmt.Errorf("unsupported audio format %d, expected PCM", h.AudioFormat)
	}
	if h.NumChannels != 1 {
		return fmt.Errorf("expected mono audio, got %d channels", h.NumChannels)
	}
	if h.BitsPerSample != 16 {
		return fmt.Errorf("expected 16-bit samples, got %d", h.BitsPerSample)
	}
	if h.SampleRate < 8000 || h.SampleRate > 48000 {
		return fmt.Errorf("sample rate %d out of supported range", h.SampleRate)
	}
	return nil
}
