package prompt

import "testing"

func TestClassifyTone(t *testing.T) {
	c := NewRuleClassifier()
	tests := []struct {
		text string
		want Tone
	}{
		{"what the fuck is this", ToneAggressive},
		{"this is shit", ToneAggressive},
		{"shut up already", ToneAggressive},
		{"i love talking to you", ToneSweet},
		{"you are so sweet", ToneSweet},
		{"you sound so hot", ToneFlirty},
		{"you have a beautiful voice", ToneFlirty},
		{"what did you do today", ToneNeutral},
		{"", ToneNeutral},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.text).Tone; got != tt.want {
			t.Fatalf("Classify(%q).Tone = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestClassifyAggressiveWinsOverSweet(t *testing.T) {
	c := NewRuleClassifier()
	if got := c.Classify("i fucking love you").Tone; got != ToneAggressive {
		t.Fatalf("Tone = %q, want %q", got, ToneAggressive)
	}
}

func TestClassifyProfanityCount(t *testing.T) {
	c := NewRuleClassifier()
	sig := c.Classify("shit shit fuck")
	if sig.ProfanityCount != 3 {
		t.Fatalf("ProfanityCount = %d, want 3", sig.ProfanityCount)
	}
}

func TestClassifyRegister(t *testing.T) {
	c := NewRuleClassifier()
	if got := c.Classify("क्या कर रहे हो").Register; got != RegisterHinglish {
		t.Fatalf("Register = %q, want %q", got, RegisterHinglish)
	}
	if got := c.Classify("kya kar rahe ho").Register; got != RegisterEnglish {
		t.Fatalf("Register = %q, want %q", got, RegisterEnglish)
	}
}
