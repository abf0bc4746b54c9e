package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/chikara-ai/backend/internal/models"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderArk        = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Speech  SpeechConfig
	Storage StorageConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech, Storage: loadStorageConfig()}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	maxUpload := int64(8 << 20)
	if override, err := parseOptionalIntEnv("MAX_UPLOAD_BYTES"); err != nil {
		return ServerConfig{}, err
	} else if override != nil && *override > 0 {
		maxUpload = int64(*override)
	}

	origins := strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"), ",")

	if strings.Contains(port, ":") {
		// 允许直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, MaxUploadBytes: maxUpload, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, MaxUploadBytes: maxUpload, AllowedOrigins: origins}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider        string
	APIKey          string
	AccessKey       string
	SecretKey       string
	BaseURL         string
	Region          string
	ChatModel       string
	VisionModel     string
	Temperature     *float64
	TopP            *float64
	MaxTokens       *int
	VisionMaxTokens int
	HistoryLimit    int
	StreamResponse  bool
	MoodLLMEnabled  bool
	MoodHistory     int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.ChatModel == "" {
		return false
	}
	if c.Provider == ProviderArk {
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	}
	return c.APIKey != ""
}

// NewChatModel 使用对话模型名称创建模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	return c.newModel(ctx, c.ChatModel, c.MaxTokens)
}

// NewVisionModel 创建用于图片分析的模型实例。
func (c AIConfig) NewVisionModel(ctx context.Context) (model.ChatModel, error) {
	name := c.VisionModel
	if name == "" {
		name = c.ChatModel
	}
	maxTokens := c.VisionMaxTokens
	return c.newModel(ctx, name, &maxTokens)
}

func (c AIConfig) newModel(ctx context.Context, name string, maxTokens *int) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing for provider %s: set OPENROUTER_API_KEY (or ARK_API_KEY / ARK_ACCESS_KEY + ARK_SECRET_KEY)", c.Provider)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       name,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	case ProviderOpenRouter:
		return models.NewOpenRouterChatModel(ctx, &models.OpenRouterConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       name,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenRouter))
	if provider != ProviderOpenRouter && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	visionMaxTokens, err := parseIntEnv("AI_VISION_MAX_TOKENS", 500, 1)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit, err := parseIntEnv("AI_HISTORY_LIMIT", 10, 1)
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("AI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	moodEnabled, err := parseBoolEnv("MOOD_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	moodHistory, err := parseIntEnv("MOOD_HISTORY_LIMIT", 6, 1)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:        provider,
		ChatModel:       getEnvOrDefault("AI_CHAT_MODEL", "openai/gpt-4o-mini"),
		VisionModel:     getEnvOrDefault("AI_VISION_MODEL", "qwen/qwen2.5-vl-32b-instruct:free"),
		Temperature:     temperature,
		TopP:            topP,
		MaxTokens:       maxTokens,
		VisionMaxTokens: visionMaxTokens,
		HistoryLimit:    historyLimit,
		StreamResponse:  stream,
		MoodLLMEnabled:  moodEnabled,
		MoodHistory:     moodHistory,
	}

	if provider == ProviderArk {
		cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
		return cfg, nil
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	cfg.BaseURL = getEnvOrDefault("OPENROUTER_BASE_URL", models.OpenRouterBaseURL)
	return cfg, nil
}

// SpeechConfig 描述浏览器端语音合成参数。
type SpeechConfig struct {
	Pitch float32
	Rate  float32
}

func loadSpeechConfig() (SpeechConfig, error) {
	pitch, err := parseOptionalFloat32Env("SPEECH_PITCH")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsPitch := float32(0.9) // 略低的音调
	if pitch != nil {
		ttsPitch = *pitch
	}

	rate, err := parseOptionalFloat32Env("SPEECH_RATE")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsRate := float32(0.85) // 放慢语速保证清晰
	if rate != nil {
		ttsRate = *rate
	}

	return SpeechConfig{Pitch: ttsPitch, Rate: ttsRate}, nil
}

// StorageConfig 描述会话存储配置，DatabasePath 为空时使用内存存储。
type StorageConfig struct {
	DatabasePath string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{DatabasePath: strings.TrimSpace(os.Getenv("CHAT_DB_PATH"))}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseIntEnv 解析整数，缺省时返回 defaultValue，小于 floor 时截断为 floor。
func parseIntEnv(key string, defaultValue, floor int) (int, error) {
	override, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if override == nil {
		return defaultValue, nil
	}
	if *override < floor {
		return floor, nil
	}
	return *override, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return nil, fmt.Errorf("invalid %s value %q: must be a finite number", key, value)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return nil, fmt.Errorf("invalid %s value %q: must be a finite number", key, value)
	}
	result := float32(val)
	return &result, nil
}
