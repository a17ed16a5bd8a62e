// Package gateway holds the narrow HTTP adapters for the three upstream
// services a call turn depends on: speech-to-text, reply generation, and
// text-to-speech.
package gateway

import (
	"context"
	"errors"

	"github.com/sahelilabs/saheli/internal/persona"
)

// ErrEmptyTranscript is returned when the upstream recognized no speech.
var ErrEmptyTranscript = errors.New("gateway: empty transcript")

// Transcriber turns a WAV utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Message is one prompt message sent to the generation service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces the assistant reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Synthesizer renders reply text as audio with the persona's voice settings.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice persona.VoiceSettings) ([]byte, error)
}
