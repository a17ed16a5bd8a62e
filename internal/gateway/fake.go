package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahelilabs/saheli/internal/persona"
)

// FakeTranscriber returns a fixed transcript, for local runs without an
// upstream speech service.
type FakeTranscriber struct {
	Text string
}

func (f *FakeTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if len(wav) == 0 {
		return "", nil
	}
	if f.Text != "" {
		return f.Text, nil
	}
	return fmt.Sprintf("spoken audio of %d bytes", len(wav)), nil
}

// FakeGenerator echoes the last user message as a deterministic reply.
type FakeGenerator struct{}

func (f *FakeGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return "I heard you: " + strings.TrimSpace(messages[i].Content), nil
		}
	}
	return "I am listening.", nil
}

// FakeSynthesizer renders text as its raw bytes so callers can assert on
// the payload that would have been spoken.
type FakeSynthesizer struct{}

func (f *FakeSynthesizer) Synthesize(ctx context.Context, text string, _ persona.VoiceSettings) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return []byte(text), nil
}
