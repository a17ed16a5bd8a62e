package audio

import (
	"bytes"
	"encoding/binary"
)

// EncodeWAV wraps raw PCM16LE mono audio in a WAV container. The transcription
// service wants a self-describing payload rather than bare PCM.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
		audioFormat   = 1 // PCM
	)
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}

	dataSize := uint32(len(pcm))
	byteRate := uint32(sampleRate * numChannels * bitsPerSample / 8)
	blockAlign := uint16(numChannels * bitsPerSample / 8)

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binaryWrite(&buf, uint32(36)+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binaryWrite(&buf, uint32(16))
	binaryWrite(&buf, uint16(audioFormat))
	binaryWrite(&buf, uint16(numChannels))
	binaryWrite(&buf, uint32(sampleRate))
	binaryWrite(&buf, byteRate)
	binaryWrite(&buf, blockAlign)
	binaryWrite(&buf, uint16(bitsPerSample))

	buf.WriteString("data")
	binaryWrite(&buf, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}

func binaryWrite(buf *bytes.Buffer, v any) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
