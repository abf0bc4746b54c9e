package mood

import (
	"strings"
	"testing"
)

func TestClassifySadKeywords(t *testing.T) {
	inputs := []string{
		"I feel sad today",
		"So TIRED after the pharmacology exam",
		"exam Stress is killing me",
		"sadness",
	}
	for _, input := range inputs {
		if got := Classify(input); got != Sad {
			t.Fatalf("Classify(%q) = %s, want sad", input, got)
		}
	}
}

func TestClassifyHappyKeywords(t *testing.T) {
	inputs := []string{
		"I am happy",
		"That went GREAT",
		"so Excited for the results",
	}
	for _, input := range inputs {
		if got := Classify(input); got != Happy {
			t.Fatalf("Classify(%q) = %s, want happy", input, got)
		}
	}
}

func TestClassifyNeutral(t *testing.T) {
	inputs := []string{"", "fever and cough", "Paracetamol", "   ", "मुझे बुखार है"}
	for _, input := range inputs {
		if got := Classify(input); got != Neutral {
			t.Fatalf("Classify(%q) = %s, want neutral", input, got)
		}
	}
}

func TestClassifySadTakesPrecedence(t *testing.T) {
	cases := []string{
		"tired but happy",
		"happy yet tired",
		"GREAT, more stress",
		"excited and sad",
	}
	for _, input := range cases {
		if got := Classify(input); got != Sad {
			t.Fatalf("Classify(%q) = %s, want sad", input, got)
		}
	}
}

func TestClassifyEveryKeywordInAnyCase(t *testing.T) {
	for _, label := range []Label{Sad, Happy} {
		for _, word := range Keywords(label) {
			for _, variant := range []string{word, strings.ToUpper(word), "xx" + word + "yy"} {
				if got := Classify(variant); got != label {
					t.Fatalf("Classify(%q) = %s, want %s", variant, got, label)
				}
			}
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		raw  string
		want Label
		ok   bool
	}{
		{raw: "happy", want: Happy, ok: true},
		{raw: " SAD ", want: Sad, ok: true},
		{raw: "Neutral", want: Neutral, ok: true},
		{raw: "angry", ok: false},
		{raw: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Parse(%q) = (%s, %v), want (%s, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHumor(t *testing.T) {
	if Happy.Humor() != "light jokes" {
		t.Fatalf("unexpected happy humor: %s", Happy.Humor())
	}
	if Sad.Humor() != "encouragement" {
		t.Fatalf("unexpected sad humor: %s", Sad.Humor())
	}
	if Label("unknown").Humor() != Neutral.Humor() {
		t.Fatalf("unknown label should fall back to neutral humor")
	}
}

func TestClassifyDottedCapitalI(t *testing.T) {
	// U+0130 lower-cases to a plain "i".
	if got := Classify("TİRED"); got != Sad {
		t.Fatalf("Classify(%q) = %s, want sad", "TİRED", got)
	}
}
