package prompt

import (
	"fmt"
	"strings"

	"github.com/sahelilabs/saheli/internal/persona"
)

// historyWindow bounds how many recent turn texts feed tone-adaptive context.
const historyWindow = 5

// Builder renders the system instruction for the generation service. It never
// fails: missing persona fields degrade to generic friendly defaults.
type Builder struct {
	classifier ToneClassifier
}

func NewBuilder(classifier ToneClassifier) *Builder {
	if classifier == nil {
		classifier = NewRuleClassifier()
	}
	return &Builder{classifier: classifier}
}

// Build renders the instruction block for one turn. utterance is the latest
// transcript; recent is a short window of prior message texts, newest last.
func (b *Builder) Build(p persona.Persona, utterance string, recent []string) string {
	sig := b.classifier.Classify(utterance)

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "your companion"
	}
	personality := strings.TrimSpace(p.Personality)
	if personality == "" {
		personality = "friendly and warm"
	}
	humor := strings.TrimSpace(p.HumorStyle)
	if humor == "" {
		humor = "light"
	}
	flirting := strings.TrimSpace(p.Flirting)
	if flirting == "" {
		flirting = "playful but respectful"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, an AI companion on a voice call.\n", name)
	fmt.Fprintf(&sb, "Personality: %s. Humor: %s. Flirting style: %s.\n", personality, humor, flirting)
	if len(p.Interests) > 0 {
		fmt.Fprintf(&sb, "You enjoy talking about %s.\n", strings.Join(p.Interests, ", "))
	}

	fmt.Fprintf(&sb, "The caller's tone right now is %s", sig.Tone)
	if sig.ProfanityCount > 0 {
		fmt.Fprintf(&sb, " (strong language, intensity %d)", sig.ProfanityCount)
	}
	sb.WriteString(".\n")

	if sig.Register == RegisterHinglish {
		sb.WriteString("Reply in casual Hinglish, mixing Hindi and English naturally.\n")
	} else {
		sb.WriteString("Reply in casual conversational English.\n")
	}

	if strings.EqualFold(strings.TrimSpace(p.Category), "fantasy") {
		sb.WriteString("Be open and playful; follow the caller's lead without judgment.\n")
	} else {
		sb.WriteString("Be friendly and respectful; keep the conversation comfortable.\n")
	}

	if window := recentWindow(recent); len(window) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, line := range window {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	}

	sb.WriteString("Mirror the caller's tone and energy. Keep every reply to at most two sentences.")
	return sb.String()
}

func recentWindow(recent []string) []string {
	out := make([]string, 0, historyWindow)
	for _, line := range recent {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if len(out) > historyWindow {
		out = out[len(out)-historyWindow:]
	}
	return out
}
