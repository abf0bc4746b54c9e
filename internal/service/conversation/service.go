// Package conversation runs one user turn end to end: persist, classify mood,
// generate, persist the reply and optionally prepare speech.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/chikara-ai/backend/internal/model/chat"
	"github.com/chikara-ai/backend/internal/model/persona"
	aiservice "github.com/chikara-ai/backend/internal/service/ai"
	chatservice "github.com/chikara-ai/backend/internal/service/chat"
	moodservice "github.com/chikara-ai/backend/internal/service/mood"
	speechservice "github.com/chikara-ai/backend/internal/service/speech"
)

var (
	ErrAIUnavailable   = errors.New("ai service unavailable")
	ErrPersonaNotFound = errors.New("persona not found")
)

// Callbacks receive progress while a turn runs. Any field may be nil.
type Callbacks struct {
	// OnUser fires once the user message is stored and its mood is known.
	OnUser func(msg chat.Message, guidance moodservice.Guidance)
	// OnDelta fires for each non-empty streamed chunk.
	OnDelta func(text string)
}

// Turn is the outcome of one exchange.
type Turn struct {
	Persona   persona.Persona
	User      chat.Message
	Assistant chat.Message
	Guidance  moodservice.Guidance
	Speech    *speechservice.Utterance
}

// Service wires the chat, AI, mood and speech services together.
type Service struct {
	chatSvc   *chatservice.Service
	personas  persona.Store
	aiSvc     *aiservice.Service
	moodSvc   *moodservice.Service
	speechSvc *speechservice.Service
}

// NewService creates a conversation service. aiSvc may be nil when no model is configured.
func NewService(chatSvc *chatservice.Service, personas persona.Store, aiSvc *aiservice.Service, moodSvc *moodservice.Service, speechSvc *speechservice.Service) *Service {
	return &Service{
		chatSvc:   chatSvc,
		personas:  personas,
		aiSvc:     aiSvc,
		moodSvc:   moodSvc,
		speechSvc: speechSvc,
	}
}

// Available reports whether replies can be generated.
func (s *Service) Available() bool {
	return s != nil && s.aiSvc != nil
}

// Resolve returns the session and the persona bound to it.
func (s *Service) Resolve(ctx context.Context, sessionID string) (chat.Session, persona.Persona, error) {
	session, err := s.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, persona.Persona{}, err
	}

	p, ok := s.personas.FindByID(session.PersonaID)
	if !ok {
		return chat.Session{}, persona.Persona{}, fmt.Errorf("%w: %s", ErrPersonaNotFound, session.PersonaID)
	}
	return session, p, nil
}

// Reply stores the user's text, generates the persona's answer and stores it.
// When speak is set the answer is also prepared for speech synthesis.
func (s *Service) Reply(ctx context.Context, sessionID, userText string, speak bool, cb Callbacks) (*Turn, error) {
	if !s.Available() {
		return nil, ErrAIUnavailable
	}

	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, chatservice.ErrEmptyMessage
	}

	_, p, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history, err := s.chatSvc.RecentMessages(ctx, sessionID, s.historyWindow())
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	guidance := s.guide(ctx, &p, history, userText)
	turn := &Turn{Persona: p, Guidance: guidance}

	// 客户端可能已经通过 REST 保存过同一条消息
	if last, ok := lastMessage(history); ok && last.Sender == chat.SenderUser && last.Content == userText {
		turn.User = last
	} else {
		stored, err := s.chatSvc.SaveMessage(ctx, chat.Message{
			SessionID: sessionID,
			Sender:    chat.SenderUser,
			Content:   userText,
			Mood:      string(guidance.Mood),
		})
		if err != nil {
			return nil, fmt.Errorf("save user message: %w", err)
		}
		turn.User = stored
		history = append(history, stored)
	}

	if cb.OnUser != nil {
		cb.OnUser(turn.User, guidance)
	}

	reply, err := s.generate(ctx, sessionID, &p, history, userText, &guidance, cb.OnDelta)
	if err != nil {
		return nil, err
	}

	turn.Assistant = chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Content:   reply,
		Mood:      string(guidance.Mood),
	}
	if strings.TrimSpace(reply) != "" {
		stored, err := s.chatSvc.SaveMessage(ctx, turn.Assistant)
		if err != nil {
			log.Printf("[conversation] failed to save assistant message session=%s: %v", sessionID, err)
		} else {
			turn.Assistant = stored
		}
	}

	if speak {
		turn.Speech = s.prepareSpeech(sessionID, reply)
	}
	return turn, nil
}

// historyWindow covers the larger of the model and mood history limits, plus
// one slot for a user message the client may already have saved.
func (s *Service) historyWindow() int {
	return max(s.aiSvc.HistoryLimit(), s.moodSvc.HistoryLimit()) + 1
}

func (s *Service) guide(ctx context.Context, p *persona.Persona, history []chat.Message, userText string) moodservice.Guidance {
	if s.moodSvc == nil {
		return moodservice.Fallback(userText)
	}
	return s.moodSvc.Guide(ctx, p, history, userText)
}

func (s *Service) generate(ctx context.Context, sessionID string, p *persona.Persona, history []chat.Message, userText string, guidance *moodservice.Guidance, onDelta func(string)) (string, error) {
	if !s.aiSvc.StreamingEnabled() {
		response, err := s.aiSvc.GenerateResponse(ctx, sessionID, p, history, userText, guidance)
		if err != nil {
			return "", err
		}
		return response.Content, nil
	}

	stream, err := s.aiSvc.StreamResponse(ctx, p, history, userText, guidance)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", fmt.Errorf("ai stream recv failed: %w", recvErr)
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" && onDelta != nil {
			onDelta(chunk.Content)
		}
	}

	if len(chunks) == 0 {
		return "", nil
	}
	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", fmt.Errorf("concat ai chunks failed: %w", err)
	}
	return merged.Content, nil
}

func (s *Service) prepareSpeech(sessionID, reply string) *speechservice.Utterance {
	if s.speechSvc == nil {
		return nil
	}
	utterance, err := s.speechSvc.Prepare(reply)
	if err != nil {
		if !errors.Is(err, speechservice.ErrNothingToSay) {
			log.Printf("[conversation] speech preparation failed session=%s: %v", sessionID, err)
		}
		return nil
	}
	return &utterance
}

func lastMessage(messages []chat.Message) (chat.Message, bool) {
	if len(messages) == 0 {
		return chat.Message{}, false
	}
	return messages[len(messages)-1], true
}
