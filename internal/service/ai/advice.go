package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/chikara-ai/backend/internal/analysis/mood"
)

var (
	ErrUnknownAdvice   = errors.New("unknown advice kind")
	ErrSubjectRequired = errors.New("advice subject is required")
)

// AdviceKind names one of the one-shot helper prompts.
type AdviceKind string

const (
	AdviceSymptom    AdviceKind = "symptom"
	AdviceMedicine   AdviceKind = "medicine"
	AdviceHealthTip  AdviceKind = "health-tip"
	AdviceMotivation AdviceKind = "motivation"
)

// Advice is the reply to a one-shot helper prompt.
type Advice struct {
	Kind    AdviceKind `json:"kind"`
	Subject string     `json:"subject,omitempty"`
	Mood    mood.Label `json:"mood"`
	Reply   string     `json:"reply"`
}

// ParseAdviceKind validates a kind taken from a URL or CLI flag.
func ParseAdviceKind(raw string) (AdviceKind, error) {
	switch kind := AdviceKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case AdviceSymptom, AdviceMedicine, AdviceHealthTip, AdviceMotivation:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAdvice, raw)
	}
}

// AdvicePrompt builds the prompt text and the mood it carries.
func AdvicePrompt(kind AdviceKind, subject string) (string, mood.Label, error) {
	subject = strings.TrimSpace(subject)

	switch kind {
	case AdviceSymptom, AdviceMedicine:
		if subject == "" {
			return "", "", ErrSubjectRequired
		}
		label := mood.Classify(subject)
		if kind == AdviceSymptom {
			return fmt.Sprintf("Give general advice for: %s (no diagnosis). Add humour based on mood: %s.", subject, label), label, nil
		}
		return fmt.Sprintf("Provide info on %s: dosage, use, side effects. Add humour based on mood: %s.", subject, label), label, nil
	case AdviceHealthTip:
		return fmt.Sprintf("Give a health tip for a B.Pharma student. Add humour based on mood: %s.", mood.Neutral), mood.Neutral, nil
	case AdviceMotivation:
		return fmt.Sprintf("Give a motivational quote for a B.Pharma student. Add humour based on mood: %s.", mood.Neutral), mood.Neutral, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownAdvice, kind)
	}
}

// Advise runs a single-turn prompt on the chat model without session history.
func (s *Service) Advise(ctx context.Context, kind AdviceKind, subject string) (*Advice, error) {
	text, label, err := AdvicePrompt(kind, subject)
	if err != nil {
		return nil, err
	}

	reply, err := s.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(text)})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s advice: %w", kind, err)
	}

	log.Printf("[ai] generated %s advice, mood=%s, length=%d", kind, label, len(reply.Content))
	return &Advice{
		Kind:    kind,
		Subject: strings.TrimSpace(subject),
		Mood:    label,
		Reply:   reply.Content,
	}, nil
}
