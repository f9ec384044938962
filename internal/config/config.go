package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every tunable of the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Speech  SpeechConfig
	Storage StorageConfig
	Gate    GateConfig
}

// Load reads configuration from environment variables.
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

	storage := loadStorageConfig()

	gate, err := loadGateConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech, Storage: storage, Gate: gate}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the hosted chat-model endpoint.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a chat model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("chat model credentials missing: provide ARK_API_KEY + TALBOT_MODEL or an AK/SK pair")
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

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("TALBOT_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("TALBOT_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("TALBOT_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("TALBOT_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// SpeechConfig describes the text-to-speech provider.
type SpeechConfig struct {
	APIKey        string
	BaseURL       string
	FemaleVoiceID string
	MaleVoiceID   string
	MaxTextLength int
	Timeout       time.Duration
	Enabled       bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	maxText, err := parseOptionalIntEnv("SPEECH_MAX_TEXT_LENGTH")
	if err != nil {
		return SpeechConfig{}, err
	}
	// Longer replies skip synthesis; keeps provider usage bounded.
	maxTextLength := 300
	if maxText != nil {
		maxTextLength = *maxText
	}

	apiKey := strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY"))

	return SpeechConfig{
		APIKey:        apiKey,
		BaseURL:       getEnvOrDefault("SPEECH_BASE_URL", "https://api.elevenlabs.io"),
		FemaleVoiceID: getEnvOrDefault("SPEECH_FEMALE_VOICE_ID", "M7ya1YbaeFaPXljg9BpK"),
		MaleVoiceID:   getEnvOrDefault("SPEECH_MALE_VOICE_ID", "ZthjuvLPty3kTMaNKVKb"),
		MaxTextLength: maxTextLength,
		Timeout:       time.Duration(timeoutSeconds) * time.Second,
		Enabled:       apiKey != "",
	}, nil
}

// StorageConfig describes durable local storage. An empty path keeps the
// whole session in memory only.
type StorageConfig struct {
	SQLitePath string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		SQLitePath: getEnvOrDefault("TALBOT_DB_PATH", "talbot.db"),
	}
}

// GateConfig carries the submission gate tunables.
type GateConfig struct {
	MinSendInterval time.Duration
	FailsafeUnlock  time.Duration
}

func loadGateConfig() (GateConfig, error) {
	minIntervalMs, err := parseOptionalIntEnv("GATE_MIN_SEND_INTERVAL_MS")
	if err != nil {
		return GateConfig{}, err
	}
	failsafeMs, err := parseOptionalIntEnv("GATE_FAILSAFE_UNLOCK_MS")
	if err != nil {
		return GateConfig{}, err
	}

	cfg := GateConfig{}
	if minIntervalMs != nil {
		cfg.MinSendInterval = time.Duration(*minIntervalMs) * time.Millisecond
	}
	if failsafeMs != nil {
		cfg.FailsafeUnlock = time.Duration(*failsafeMs) * time.Millisecond
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
