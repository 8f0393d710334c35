package gemini

import (
	"bytes"
	"encoding/binary"
)

// Gemini TTS streams 16-bit mono PCM at 24 kHz.
const (
	pcmSampleRate  = 24000
	pcmChannels    = 1
	pcmSampleBytes = 2
)

// wavFromPCM wraps raw PCM samples in a minimal RIFF/WAVE container.
func wavFromPCM(pcm []byte, sampleRate, channels, sampleBytes int) []byte {
	byteRate := sampleRate * channels * sampleBytes
	blockAlign := channels * sampleBytes

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(sampleBytes*8))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
