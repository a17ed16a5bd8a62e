package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeStartCall  MessageType = "start-call"
	TypeAudioChunk MessageType = "audio-chunk"
	TypeInterrupt  MessageType = "interrupt"
	TypeEndCall    MessageType = "end-call"

	TypeReady      MessageType = "ready"
	TypeAISpeaking MessageType = "ai-speaking"
	TypeAIAudio    MessageType = "ai-audio"
	TypeError      MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// StartCall opens a call against a persona. First message on the connection.
type StartCall struct {
	Type      MessageType `json:"type"`
	ProfileID string      `json:"profileId"`
}

// AudioChunk carries base64 PCM16LE microphone audio.
type AudioChunk struct {
	Type       MessageType `json:"type"`
	Audio      string      `json:"audio"`
	SampleRate int         `json:"sampleRate"`
}

// Interrupt cancels the in-flight assistant turn. No payload.
type Interrupt struct {
	Type MessageType `json:"type"`
}

// EndCall ends the call. No payload.
type EndCall struct {
	Type MessageType `json:"type"`
}

// Ready confirms the call is established and names the persona.
type Ready struct {
	Type   MessageType `json:"type"`
	Name   string      `json:"name"`
	Avatar string      `json:"avatar"`
}

// AISpeaking signals the reply is entering the synthesis/playback phase.
type AISpeaking struct {
	Type MessageType `json:"type"`
}

// AIAudio carries a chunk of synthesized reply audio.
type AIAudio struct {
	Type   MessageType `json:"type"`
	Base64 string      `json:"base64"`
}

// ErrorEvent reports a setup or turn failure to the caller.
type ErrorEvent struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// ParseClientMessage decodes and validates an inbound client payload.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeStartCall:
		var msg StartCall
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.ProfileID == "" {
			return nil, errors.New("invalid start-call: missing profileId")
		}
		return msg, nil
	case TypeAudioChunk:
		var msg AudioChunk
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Audio == "" {
			return nil, errors.New("invalid audio-chunk: missing audio")
		}
		if msg.SampleRate <= 0 {
			msg.SampleRate = 16000
		}
		return msg, nil
	case TypeInterrupt:
		return Interrupt{Type: TypeInterrupt}, nil
	case TypeEndCall:
		return EndCall{Type: TypeEndCall}, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// MessageTypeOf reports the wire type of any protocol message.
func MessageTypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case StartCall:
		return m.Type, true
	case AudioChunk:
		return m.Type, true
	case Interrupt:
		return m.Type, true
	case EndCall:
		return m.Type, true
	case Ready:
		return m.Type, true
	case AISpeaking:
		return m.Type, true
	case AIAudio:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
