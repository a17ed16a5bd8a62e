package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	// SampleRate is the canonical capture rate for call audio: 16kHz mono PCM16LE.
	SampleRate = 16000

	// speechRMSThreshold is the per-chunk RMS level above which a chunk counts as speech.
	speechRMSThreshold = 0.02

	// noiseFloorRMS is the whole-buffer level below which the content is treated
	// as background noise and never sent to transcription.
	noiseFloorRMS = 0.0004

	// minSilence is how long the caller must stay quiet before the utterance
	// is considered finished. Long enough to survive mid-sentence pauses.
	minSilence = 1500 * time.Millisecond
)

// StreamBuffer accumulates raw PCM16LE chunks for one in-progress utterance.
// It is owned by exactly one call session and is not safe for concurrent use.
type StreamBuffer struct {
	chunks         [][]byte
	size           int
	lastSpeechTime time.Time
	lastChunkTime  time.Time
	now            func() time.Time
}

func NewStreamBuffer() *StreamBuffer {
	return newStreamBufferAt(time.Now)
}

func newStreamBufferAt(now func() time.Time) *StreamBuffer {
	t := now()
	return &StreamBuffer{
		lastSpeechTime: t,
		lastChunkTime:  t,
		now:            now,
	}
}

// Append adds a chunk and updates the speech/arrival timestamps. Empty chunks
// only refresh the arrival timestamp (RMS of nothing is zero).
func (b *StreamBuffer) Append(chunk []byte) {
	t := b.now()
	b.lastChunkTime = t
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	b.chunks = append(b.chunks, c)
	b.size += len(c)
	if RMS(c) > speechRMSThreshold {
		b.lastSpeechTime = t
	}
}

// Bytes returns the concatenation of all accumulated chunks without mutating state.
func (b *StreamBuffer) Bytes() []byte {
	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}

// Clear discards everything and resets both timestamps to now. Idempotent.
func (b *StreamBuffer) Clear() {
	t := b.now()
	b.chunks = nil
	b.size = 0
	b.lastSpeechTime = t
	b.lastChunkTime = t
}

func (b *StreamBuffer) Size() int { return b.size }

func (b *StreamBuffer) TimeSinceLastSpeech() time.Duration {
	return b.now().Sub(b.lastSpeechTime)
}

func (b *StreamBuffer) TimeSinceLastChunk() time.Duration {
	return b.now().Sub(b.lastChunkTime)
}

func (b *StreamBuffer) MinSilence() time.Duration { return minSilence }

// HasSpeech reports whether the buffer as a whole carries more energy than the
// noise floor. The threshold is far below the per-chunk speech threshold: this
// is a cheap "is there anything here at all" gate before transcription.
func (b *StreamBuffer) HasSpeech() bool {
	if b.size == 0 {
		return false
	}
	var sum float64
	var n int
	for _, c := range b.chunks {
		s, count := sumSquares(c)
		sum += s
		n += count
	}
	if n == 0 {
		return false
	}
	return math.Sqrt(sum/float64(n)) > noiseFloorRMS
}

// RMS computes root-mean-square amplitude of PCM16LE samples, normalized to [0,1].
// A trailing odd byte is ignored.
func RMS(pcm []byte) float64 {
	sum, n := sumSquares(pcm)
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

func sumSquares(pcm []byte) (float64, int) {
	n := len(pcm) / 2
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		v := float64(s) / 32768.0
		sum += v * v
	}
	return sum, n
}
