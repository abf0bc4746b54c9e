// Package speech prepares assistant replies for browser speech synthesis.
package speech

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/chikara-ai/backend/internal/analysis/language"
	"github.com/chikara-ai/backend/internal/config"
	"github.com/chikara-ai/backend/internal/sanitize"
)

// ErrNothingToSay is returned when no speakable text remains after cleanup.
var ErrNothingToSay = errors.New("nothing to say after removing emoji")

// Utterance is everything a browser needs to speak a reply.
// Script is a ready-to-inject <script> block; Text is already escaped for it.
type Utterance struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Pitch    float32 `json:"pitch"`
	Rate     float32 `json:"rate"`
	Script   string  `json:"script"`
}

var scriptTemplate = template.Must(template.New("utterance").Parse(`<script>
if ('speechSynthesis' in window) {
    const utterance = new SpeechSynthesisUtterance("{{.Text}}");
    utterance.lang = "{{.Language}}";
    utterance.pitch = {{printf "%g" .Pitch}};
    utterance.rate = {{printf "%g" .Rate}};
    const voices = window.speechSynthesis.getVoices();
    const match = voices.find(v => v.lang === utterance.lang);
    if (match) { utterance.voice = match; }
    window.speechSynthesis.cancel();
    window.speechSynthesis.speak(utterance);
}
</script>`))

// Service turns model output into speakable utterances.
type Service struct {
	pitch float32
	rate  float32
}

// NewService creates a speech service with the configured voice settings.
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{pitch: cfg.Pitch, rate: cfg.Rate}
}

// Prepare strips emoji, picks the voice locale and renders the script.
// Language is detected on the stripped text before escaping.
func (s *Service) Prepare(text string) (Utterance, error) {
	spoken := sanitize.StripEmoji(text)
	if strings.TrimSpace(spoken) == "" {
		return Utterance{}, ErrNothingToSay
	}

	u := Utterance{
		Text:     sanitize.EscapeScriptString(spoken),
		Language: language.SpeechLang(spoken),
		Pitch:    s.pitch,
		Rate:     s.rate,
	}

	var builder strings.Builder
	if err := scriptTemplate.Execute(&builder, u); err != nil {
		return Utterance{}, fmt.Errorf("render speech script: %w", err)
	}
	u.Script = builder.String()
	return u, nil
}
