package speech

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildWAV(t *testing.T, mutate func(*WaveHeader)) []byte {
	t.Helper()
	header := WaveHeader{
		RiffTag:       [4]byte{'R', 'I', 'F', 'F'},
		FileSize:      36,
		WaveTag:       [4]byte{'W', 'A', 'V', 'E'},
		FmtTag:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    16000,
		ByteRate:      32000,
		BlockAlign:    2,
		BitsPerSample: 16,
		DataTag:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:      0,
	}
	if mutate != nil {
		mutate(&header)
	}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &header))
	return buf.Bytes()
}

func TestParseWaveHeaderValid(t *testing.T) {
	header, err := ParseWaveHeader(buildWAV(t, nil))
	require.NoError(t, err)
	require.Equal(t, uint32(16000), header.SampleRate)
	require.Equal(t, uint16(1), header.NumChannels)
	require.NoError(t, header.Validate())
}

func TestParseWaveHeaderTooShort(t *testing.T) {
	_, err := ParseWaveHeader([]byte("RIFF"))
	require.Error(t, err)
}

func TestValidateRejectsNonRIFF(t *testing.T) {
	header, err := ParseWaveHeader(buildWAV(t, func(h *WaveHeader) {
		h.RiffTag = [4]byte{'J', 'U', 'N', 'K'}
	}))
	require.NoError(t, err)
	require.Error(t, header.Validate())
}

func TestValidateRejectsStereo(t *testing.T) {
	header, err := ParseWaveHeader(buildWAV(t, func(h *WaveHeader) {
		h.NumChannels = 2
	}))
	require.NoError(t, err)
	require.ErrorContains(t, header.Validate(), "mono")
}

func TestValidateRejectsCompressedAudio(t *testing.T) {
	header, err := ParseWaveHeader(buildWAV(t, func(h *WaveHeader) {
		h.AudioFormat = 7 // mu-law
	}))
	require.NoError(t, err)
	require.ErrorContains(t, header.Validate(), "PCM")
}

func TestValidateRejectsOddSampleRate(t *testing.T) {
	header, err := ParseWaveHeader(buildWAV(t, func(h *WaveHeader) {
		h.SampleRate = 96000
	}))
	require.NoError(t, err)
	require.ErrorContains(t, header.Validate(), "sample rate")
}
