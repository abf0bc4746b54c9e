package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/chikara-ai/backend/internal/config"
	"github.com/chikara-ai/backend/internal/model/chat"
	"github.com/chikara-ai/backend/internal/model/persona"
	moodservice "github.com/chikara-ai/backend/internal/service/mood"
)

const defaultHistoryLimit = 10

// Service encapsulates AI-powered chat functionality
type Service struct {
	chatModel   model.BaseChatModel
	visionModel model.BaseChatModel
	prompts     *PersonaPromptManager
	cfg         config.AIConfig
	chain       compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates chat and vision models from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	visionModel, err := cfg.NewVisionModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision model: %w", err)
	}

	return NewServiceWithModels(ctx, chatModel, visionModel, cfg)
}

// NewServiceWithModels wires already constructed models. visionModel may be nil,
// in which case image analysis uses the chat model.
func NewServiceWithModels(ctx context.Context, chatModel, visionModel model.BaseChatModel, cfg config.AIConfig) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if visionModel == nil {
		visionModel = chatModel
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel:   chatModel,
		visionModel: visionModel,
		prompts:     NewPersonaPromptManager(),
		cfg:         cfg,
		chain:       runnable,
	}, nil
}

// StreamingEnabled 指示是否开启流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// HistoryLimit 返回传给模型的历史消息条数上限。
func (s *Service) HistoryLimit() int {
	if s.cfg.HistoryLimit <= 0 {
		return defaultHistoryLimit
	}
	return s.cfg.HistoryLimit
}

// ChatModel 返回底层的聊天模型，供情绪分析复用。
func (s *Service) ChatModel() model.BaseChatModel {
	return s.chatModel
}

// GenerateResponse generates a reply for a persona-based conversation.
func (s *Service) GenerateResponse(ctx context.Context, sessionID string, p *persona.Persona, messages []chat.Message, userMessage string, guidance *moodservice.Guidance) (*schema.Message, error) {
	input := s.buildChainInput(p, messages, userMessage, guidance)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated response for session=%s, persona=%s, length=%d", sessionID, p.ID, len(response.Content))
	return response, nil
}

// StreamResponse streams reply chunks via the configured chain.
func (s *Service) StreamResponse(ctx context.Context, p *persona.Persona, messages []chat.Message, userMessage string, guidance *moodservice.Guidance) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	input := s.buildChainInput(p, messages, userMessage, guidance)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}

	return stream, nil
}

func (s *Service) buildChainInput(p *persona.Persona, messages []chat.Message, userMessage string, guidance *moodservice.Guidance) map[string]any {
	return map[string]any{
		"system":  s.buildSystemPrompt(p, guidance),
		"history": s.buildHistoryMessages(messages, userMessage),
		"query":   userMessage,
	}
}

// buildSystemPrompt appends the current mood register to the persona prompt.
func (s *Service) buildSystemPrompt(p *persona.Persona, guidance *moodservice.Guidance) string {
	base := s.prompts.BuildSystemPrompt(p)
	if guidance == nil || guidance.Mood == "" {
		return base
	}

	var builder strings.Builder
	builder.WriteString(base)
	builder.WriteString("\n\nCurrent user mood: ")
	builder.WriteString(string(guidance.Mood))
	builder.WriteString(". Add humour based on mood: ")
	builder.WriteString(guidance.Humor)
	builder.WriteString(".")
	if guidance.Reason != "" {
		builder.WriteString("\nWhy: ")
		builder.WriteString(guidance.Reason)
	}
	return builder.String()
}

// buildHistoryMessages keeps the most recent turns. A trailing user turn equal to
// userMessage is dropped because the chain appends it as the query.
func (s *Service) buildHistoryMessages(messages []chat.Message, userMessage string) []*schema.Message {
	if n := len(messages); n > 0 {
		last := messages[n-1]
		if last.Sender == chat.SenderUser && last.Content == userMessage {
			messages = messages[:n-1]
		}
	}
	if len(messages) == 0 {
		return nil
	}

	limit := s.HistoryLimit()
	startIdx := 0
	if len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
