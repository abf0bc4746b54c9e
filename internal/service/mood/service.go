package mood

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/chikara-ai/backend/internal/analysis/mood"
	"github.com/chikara-ai/backend/internal/model/chat"
	"github.com/chikara-ai/backend/internal/model/persona"
)

const (
	SourceModel    = "model"
	SourceKeywords = "keywords"
)

// Config 控制情绪分析服务的行为。
type Config struct {
	Enabled      bool
	HistoryLimit int
}

// Guidance 表示情绪判断结果以及回复应采用的幽默风格。
type Guidance struct {
	Mood       analysis.Label `json:"mood"`
	Humor      string         `json:"humor"`
	Confidence float32        `json:"confidence"`
	Source     string         `json:"source"`
	Reason     string         `json:"reason,omitempty"`
}

// Service 优先使用大模型判断情绪，失败时回退到关键词规则。
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	historyLimit int
}

// NewService 创建情绪分析服务。chatModel 为 nil 或未启用时只使用关键词规则。
func NewService(ctx context.Context, chatModel model.BaseChatModel, cfg Config) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		historyLimit: historyLimit,
	}
	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(moodSystemPrompt),
		schema.UserMessage(moodUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile mood classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled 返回是否启用了大模型分类。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// HistoryLimit 返回分类时参考的历史消息条数。
func (s *Service) HistoryLimit() int {
	if s == nil {
		return 0
	}
	return s.historyLimit
}

// Guide 判断用户消息的情绪。任何模型错误都会回退到关键词规则，因此总能返回结果。
func (s *Service) Guide(ctx context.Context, personaObj *persona.Persona, history []chat.Message, userMessage string) Guidance {
	if !s.Enabled() {
		return Fallback(userMessage)
	}

	input := map[string]any{
		"persona":      summarizePersona(personaObj),
		"history":      formatHistory(history, s.historyLimit),
		"user_message": strings.TrimSpace(userMessage),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[mood] classifier invoke failed, use fallback: %v", err)
		return Fallback(userMessage)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return Fallback(userMessage)
	}

	result, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[mood] classifier output parse failed, use fallback: %v", err)
		return Fallback(userMessage)
	}

	label, ok := analysis.Parse(result.Mood)
	if !ok {
		log.Printf("[mood] classifier returned unknown label %q, use fallback", result.Mood)
		return Fallback(userMessage)
	}

	confidence := result.Confidence
	if confidence <= 0 {
		confidence = 0.6
	}
	if confidence > 1 {
		confidence = 1
	}

	return Guidance{
		Mood:       label,
		Humor:      label.Humor(),
		Confidence: confidence,
		Source:     SourceModel,
		Reason:     strings.TrimSpace(result.Reason),
	}
}

// Fallback 只用关键词规则得出结果。
func Fallback(userMessage string) Guidance {
	label := analysis.Classify(userMessage)

	confidence := float32(0.3)
	if label != analysis.Neutral {
		confidence = 0.55
	}

	return Guidance{
		Mood:       label,
		Humor:      label.Humor(),
		Confidence: confidence,
		Source:     SourceKeywords,
	}
}

// parseClassifierOutput 解析大模型返回的 JSON，容忍前后多余文本。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func summarizePersona(p *persona.Persona) string {
	if p == nil {
		return "No persona."
	}

	sections := []string{
		fmt.Sprintf("Name: %s", strings.TrimSpace(p.Name)),
		fmt.Sprintf("Title: %s", strings.TrimSpace(p.Title)),
	}
	if tone := strings.TrimSpace(p.Tone); tone != "" {
		sections = append(sections, fmt.Sprintf("Tone: %s", tone))
	}
	return strings.Join(sections, " | ")
}

func formatHistory(messages []chat.Message, limit int) string {
	if len(messages) == 0 {
		return "No previous messages."
	}
	if limit < 1 {
		limit = 1
	}
	start := len(messages) - limit
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := "User"
		if strings.EqualFold(msg.Sender, chat.SenderAssistant) {
			role = "Doctor"
		}
		lines = append(lines, role+": "+content)
	}
	if len(lines) == 0 {
		return "No previous messages."
	}
	return strings.Join(lines, "\n")
}

type classifierPayload struct {
	Mood       string  `json:"mood"`
	Confidence float32 `json:"confidence"`
	Reason     string  `json:"reason"`
}

const moodSystemPrompt = "You classify the mood of a patient chatting with a friendly health assistant. " +
	"Read the persona, the recent conversation and the latest user message, then decide whether the user is happy, sad or neutral. " +
	"Tiredness and stress count as sad. Reply with a single JSON object and nothing else, with the fields " +
	"mood (one of happy, sad, neutral), confidence (a number between 0 and 1) and reason (one short sentence)."

const moodUserPrompt = "Persona:\n{persona}\n\nRecent conversation:\n{history}\n\nLatest user message:\n{user_message}"
