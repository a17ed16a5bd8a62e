package persona

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("persona not found")

// VoiceSettings are the synthesis tuning parameters, each normally in [0,1].
type VoiceSettings struct {
	VoiceID      string  `json:"voice_id"`
	VoiceModelID string  `json:"voice_model_id"`
	Stability    float64 `json:"stability"`
	Similarity   float64 `json:"similarity"`
	Style        float64 `json:"style"`
}

const (
	DefaultStability  = 0.55
	DefaultSimilarity = 0.75
	DefaultStyle      = 0.35
)

// Trait is the enumerated personality class that drives voice-parameter
// fallbacks. The free-text Personality field is prompt flavor only.
type Trait string

const (
	TraitNone       Trait = ""
	TraitShy        Trait = "shy"
	TraitBold       Trait = "bold"
	TraitPlayful    Trait = "playful"
	TraitCaring     Trait = "caring"
	TraitMysterious Trait = "mysterious"
)

// Persona is a configured companion identity. Read-only to the call pipeline;
// created and edited by an external content-management process.
type Persona struct {
	ProfileID   string        `json:"profile_id"`
	Name        string        `json:"name"`
	Avatar      string        `json:"avatar"`
	Personality string        `json:"personality"`
	Trait       Trait         `json:"trait"`
	HumorStyle  string        `json:"humor_style"`
	Flirting    string        `json:"flirting"`
	Category    string        `json:"category"`
	Interests   []string      `json:"interests"`
	Greeting    string        `json:"greeting"`
	Active      bool          `json:"active"`
	Voice       VoiceSettings `json:"voice"`
}

// Store provides read access to the persona catalog.
type Store interface {
	Get(ctx context.Context, profileID string) (Persona, error)
	ListActive(ctx context.Context) ([]Persona, error)
	Close() error
}
