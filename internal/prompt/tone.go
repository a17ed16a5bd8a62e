package prompt

import "strings"

// Tone labels the emotional register of a single utterance.
type Tone string

const (
	ToneAggressive Tone = "aggressive"
	ToneSweet      Tone = "sweet"
	ToneFlirty     Tone = "flirty"
	ToneNeutral    Tone = "neutral"
)

// Register selects the language blend the reply should use.
type Register string

const (
	RegisterEnglish  Register = "english"
	RegisterHinglish Register = "hinglish"
)

// Signals is what a classifier extracts from one utterance.
type Signals struct {
	Tone           Tone
	Register       Register
	ProfanityCount int
}

// ToneClassifier maps raw utterance text to tone signals. Rule-based today;
// the interface exists so a model-backed classifier can slot in.
type ToneClassifier interface {
	Classify(text string) Signals
}

var (
	profanityWords = []string{
		"fuck", "shit", "bitch", "asshole", "bastard", "chutiya",
		"bhenchod", "madarchod", "bsdk",
	}
	aggressiveWords = []string{
		"hate", "angry", "shut up", "stupid", "idiot", "useless",
	}
	romanticWords = []string{
		"love", "sweet", "miss you", "darling", "jaan", "baby", "pyar",
	}
	attractionWords = []string{
		"hot", "sexy", "beautiful", "gorgeous", "cute", "attractive",
	}
)

// RuleClassifier is the lexicon-based implementation.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier { return &RuleClassifier{} }

func (c *RuleClassifier) Classify(text string) Signals {
	lower := strings.ToLower(text)

	sig := Signals{
		Tone:           ToneNeutral,
		Register:       RegisterEnglish,
		ProfanityCount: countOccurrences(lower, profanityWords),
	}

	switch {
	case sig.ProfanityCount > 0 || containsAny(lower, aggressiveWords):
		sig.Tone = ToneAggressive
	case containsAny(lower, romanticWords):
		sig.Tone = ToneSweet
	case containsAny(lower, attractionWords):
		sig.Tone = ToneFlirty
	}

	if hasDevanagari(text) {
		sig.Register = RegisterHinglish
	}
	return sig
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func countOccurrences(lower string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(lower, w)
	}
	return n
}

func hasDevanagari(text string) bool {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}
