package persona

import "testing"

func TestResolveVoiceDocumentedDefaults(t *testing.T) {
	got := ResolveVoice(Persona{Voice: VoiceSettings{VoiceID: "v1"}})
	if got.Stability != DefaultStability {
		t.Fatalf("Stability = %v, want %v", got.Stability, DefaultStability)
	}
	if got.Similarity != DefaultSimilarity {
		t.Fatalf("Similarity = %v, want %v", got.Similarity, DefaultSimilarity)
	}
	if got.Style != DefaultStyle {
		t.Fatalf("Style = %v, want %v", got.Style, DefaultStyle)
	}
	if got.VoiceID != "v1" {
		t.Fatalf("VoiceID = %q, want %q", got.VoiceID, "v1")
	}
}

func TestResolveVoiceTraitTable(t *testing.T) {
	tests := []struct {
		trait         Trait
		wantStability float64
		wantStyle     float64
	}{
		{TraitShy, 0.75, 0.15},
		{TraitBold, 0.35, 0.60},
		{TraitCaring, 0.65, 0.25},
	}
	for _, tt := range tests {
		got := ResolveVoice(Persona{Trait: tt.trait})
		if got.Stability != tt.wantStability {
			t.Fatalf("trait %q: Stability = %v, want %v", tt.trait, got.Stability, tt.wantStability)
		}
		if got.Style != tt.wantStyle {
			t.Fatalf("trait %q: Style = %v, want %v", tt.trait, got.Style, tt.wantStyle)
		}
	}
}

func TestResolveVoiceExplicitValuesWin(t *testing.T) {
	got := ResolveVoice(Persona{
		Trait: TraitBold,
		Voice: VoiceSettings{Stability: 0.9, Similarity: 0.5, Style: 0.1},
	})
	if got.Stability != 0.9 || got.Similarity != 0.5 || got.Style != 0.1 {
		t.Fatalf("explicit settings overridden: %+v", got)
	}
}

func TestResolveVoiceClampsOutOfRange(t *testing.T) {
	got := ResolveVoice(Persona{Voice: VoiceSettings{Stability: 1.8, Similarity: 0.2, Style: 3}})
	if got.Stability != 1 || got.Style != 1 {
		t.Fatalf("out-of-range values not clamped: %+v", got)
	}
}
