// Package models 提供 eino 之外的模型提供方适配器。
package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenRouterBaseURL 是 OpenRouter 的 OpenAI 兼容入口。
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// ErrToolsUnsupported 表示该适配器不支持函数调用。
var ErrToolsUnsupported = errors.New("openrouter chat model does not support tool binding")

// OpenRouterConfig 描述 OpenRouter 模型参数。
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   *int
	Temperature *float32
	TopP        *float32
	HTTPClient  *http.Client
}

// OpenRouterChatModel 以 eino ChatModel 的形式封装 OpenAI 兼容客户端。
type OpenRouterChatModel struct {
	client *openai.Client
	cfg    OpenRouterConfig
}

// NewOpenRouterChatModel 创建 OpenRouter 模型。
func NewOpenRouterChatModel(_ context.Context, cfg *OpenRouterConfig) (*OpenRouterChatModel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = OpenRouterBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := openai.NewClient(opts...)
	return &OpenRouterChatModel{client: &client, cfg: *cfg}, nil
}

// Generate 发送一次非流式请求。
func (m *OpenRouterChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	params := m.buildParams(input, opts...)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("failed to call llm API", "model", params.Model, "error", err.Error())
		return nil, fmt.Errorf("failed to call OpenRouter API: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return schema.AssistantMessage("", nil), nil
	}

	choice := resp.Choices[0]
	msg := schema.AssistantMessage(choice.Message.Content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{
		FinishReason: string(choice.FinishReason),
		Usage: &schema.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	return msg, nil
}

// Stream 以 eino StreamReader 的形式返回增量内容。
func (m *OpenRouterChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	params := m.buildParams(input, opts...)
	reader, writer := schema.Pipe[*schema.Message](8)

	go func() {
		defer writer.Close()

		stream := m.client.Chat.Completions.NewStreaming(ctx, params)
		defer func() {
			if err := stream.Close(); err != nil {
				slog.Error("failed to close stream", "error", err.Error())
			}
		}()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			msg := &schema.Message{Role: schema.Assistant, Content: choice.Delta.Content}
			if choice.FinishReason != "" {
				msg.ResponseMeta = &schema.ResponseMeta{FinishReason: string(choice.FinishReason)}
			}
			if closed := writer.Send(msg, nil); closed {
				return
			}
		}

		if err := stream.Err(); err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("failed to stream call llm API", "model", params.Model, "error", err.Error())
			}
			writer.Send(nil, fmt.Errorf("stream error: %w", err))
		}
	}()

	return reader, nil
}

// BindTools 不支持函数调用。
func (m *OpenRouterChatModel) BindTools(_ []*schema.ToolInfo) error {
	return ErrToolsUnsupported
}

func (m *OpenRouterChatModel) buildParams(input []*schema.Message, opts ...model.Option) openai.ChatCompletionNewParams {
	modelName := m.cfg.Model
	options := model.GetCommonOptions(&model.Options{
		Model:       &modelName,
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
	}, opts...)

	params := openai.ChatCompletionNewParams{
		Model:    modelName,
		Messages: convertMessages(input),
	}
	if options.Model != nil && *options.Model != "" {
		params.Model = *options.Model
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	}
	if options.TopP != nil {
		params.TopP = openai.Float(float64(*options.TopP))
	}
	return params
}

// convertMessages 将 eino 消息转换为 OpenAI 请求消息。
func convertMessages(input []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}

		switch msg.Role {
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case schema.Tool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			if parts := convertUserParts(msg); len(parts) > 0 {
				messages = append(messages, openai.UserMessage(parts))
				continue
			}
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	return messages
}

// convertUserParts 处理图文混合输入，纯文本消息返回 nil。
func convertUserParts(msg *schema.Message) []openai.ChatCompletionContentPartUnionParam {
	if len(msg.MultiContent) == 0 {
		return nil
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.MultiContent)+1)
	if msg.Content != "" {
		parts = append(parts, openai.TextContentPart(msg.Content))
	}
	for _, part := range msg.MultiContent {
		switch part.Type {
		case schema.ChatMessagePartTypeText:
			if part.Text != "" {
				parts = append(parts, openai.TextContentPart(part.Text))
			}
		case schema.ChatMessagePartTypeImageURL:
			if part.ImageURL == nil || part.ImageURL.URL == "" {
				continue
			}
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: part.ImageURL.URL,
			}))
		default:
			slog.Warn("skipping unsupported message part", "type", string(part.Type))
		}
	}
	return parts
}
