package persona

import (
	"context"
	"sync"
)

// InMemoryStore serves a fixed persona catalog for local/dev use.
type InMemoryStore struct {
	mu       sync.RWMutex
	personas map[string]Persona
}

func NewInMemoryStore(personas []Persona) *InMemoryStore {
	m := make(map[string]Persona, len(personas))
	for _, p := range personas {
		m[p.ProfileID] = p
	}
	return &InMemoryStore{personas: m}
}

func (s *InMemoryStore) Get(_ context.Context, profileID string) (Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personas[profileID]
	if !ok {
		return Persona{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Persona, 0, len(s.personas))
	for _, p := range s.personas {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }

// SeedCatalog is the development persona set.
func SeedCatalog() []Persona {
	return []Persona{
		{
			ProfileID:   "priya",
			Name:        "Priya Sharma",
			Avatar:      "/ai-avatars/priya-main.jpg",
			Personality: "warm and caring",
			Trait:       TraitCaring,
			HumorStyle:  "gentle teasing",
			Flirting:    "subtle",
			Category:    "romance",
			Interests:   []string{"bollywood", "cooking", "travel"},
			Greeting:    "Hey! I was hoping you would call.",
			Active:      true,
			Voice: VoiceSettings{
				VoiceID:      "pFZP5JQG7iQjIQuC4Bku",
				VoiceModelID: "eleven_multilingual_v2",
			},
		},
		{
			ProfileID:   "meera",
			Name:        "Meera Kapoor",
			Avatar:      "/ai-avatars/meera-main.jpg",
			Personality: "bold and confident",
			Trait:       TraitBold,
			HumorStyle:  "sarcastic",
			Flirting:    "direct",
			Category:    "fantasy",
			Interests:   []string{"fitness", "nightlife", "fashion"},
			Greeting:    "Finally. I do not like being kept waiting.",
			Active:      true,
			Voice: VoiceSettings{
				VoiceID:      "EXAVITQu4vr4xnSDxMaL",
				VoiceModelID: "eleven_multilingual_v2",
				Stability:    0.30,
				Style:        0.65,
			},
		},
		{
			ProfileID:   "ananya",
			Name:        "Ananya Iyer",
			Avatar:      "/ai-avatars/ananya-main.jpg",
			Personality: "shy and thoughtful",
			Trait:       TraitShy,
			HumorStyle:  "dry",
			Flirting:    "reserved",
			Category:    "friendship",
			Interests:   []string{"books", "rain", "chai"},
			Greeting:    "Oh, hi. I am glad it is you.",
			Active:      false,
			Voice: VoiceSettings{
				VoiceID:      "ThT5KcBeYPX3keUQqHPh",
				VoiceModelID: "eleven_multilingual_v2",
			},
		},
	}
}
