package audio

const (
	// MinUtteranceBytes is one second of 16kHz mono PCM16. Anything shorter is a fragment.
	MinUtteranceBytes = SampleRate * 2

	// MaxUtteranceBytes caps an utterance at five seconds so a caller who never
	// pauses still gets a bounded-latency response.
	MaxUtteranceBytes = SampleRate * 2 * 5
)

// EndpointUtterance decides whether the buffered audio is a finished utterance
// ready for transcription.
//
// The noise branch is deliberately side-effecting: a buffer that accumulated
// only background noise is cleared on the spot so it cannot grow without bound
// while nobody is speaking.
func EndpointUtterance(b *StreamBuffer) bool {
	if b.Size() < MinUtteranceBytes {
		return false
	}
	if !b.HasSpeech() {
		b.Clear()
		return false
	}
	if b.TimeSinceLastSpeech() >= b.MinSilence() {
		return true
	}
	return b.Size() >= MaxUtteranceBytes
}
