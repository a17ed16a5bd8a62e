package persona

// traitVoiceDefaults maps an enumerated trait to voice-parameter fallbacks.
// Shy personas get steadier, flatter delivery; bold personas get more
// expressive range. Used only when a persona has no explicit value.
var traitVoiceDefaults = map[Trait]VoiceSettings{
	TraitShy:        {Stability: 0.75, Similarity: 0.80, Style: 0.15},
	TraitBold:       {Stability: 0.35, Similarity: 0.70, Style: 0.60},
	TraitPlayful:    {Stability: 0.45, Similarity: 0.72, Style: 0.50},
	TraitCaring:     {Stability: 0.65, Similarity: 0.78, Style: 0.25},
	TraitMysterious: {Stability: 0.60, Similarity: 0.74, Style: 0.40},
}

// ResolveVoice returns the synthesis settings for a persona, filling absent
// numeric parameters from the trait table, then from the documented defaults.
func ResolveVoice(p Persona) VoiceSettings {
	out := p.Voice

	fallback := VoiceSettings{
		Stability:  DefaultStability,
		Similarity: DefaultSimilarity,
		Style:      DefaultStyle,
	}
	if traits, ok := traitVoiceDefaults[p.Trait]; ok {
		fallback = traits
	}

	if out.Stability <= 0 {
		out.Stability = fallback.Stability
	}
	if out.Similarity <= 0 {
		out.Similarity = fallback.Similarity
	}
	if out.Style <= 0 {
		out.Style = fallback.Style
	}

	out.Stability = clamp01(out.Stability)
	out.Similarity = clamp01(out.Similarity)
	out.Style = clamp01(out.Style)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
