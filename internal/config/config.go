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

const (
	// MaxSeconds caps the normalized waveform duration.
	MaxSeconds = 10.0
	// TargetSampleRate is the sample rate every upload is transcoded to.
	TargetSampleRate = 16000
	// TargetChannels is the channel count every upload is transcoded to.
	TargetChannels = 1
)

// Generation providers.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Audio     AudioConfig
	Detection DetectionConfig
	AI        AIConfig
	Limits    LimitsConfig
	Log       LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	audio := loadAudioConfig()

	detection, err := loadDetectionConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	limits, err := loadLimitsConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Audio:     audio,
		Detection: detection,
		AI:        ai,
		Limits:    limits,
		Log:       logCfg,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AudioConfig describes upload normalization. MaxSeconds and SampleRate are
// fixed constants; only the transcoder binary and scratch root come from env.
type AudioConfig struct {
	MaxSeconds float64
	SampleRate int
	Channels   int
	FFmpegPath string
	ScratchDir string
}

// MaxSamples is the hard cap on normalized waveform length.
func (c AudioConfig) MaxSamples() int {
	return int(c.MaxSeconds * float64(c.SampleRate))
}

func loadAudioConfig() AudioConfig {
	return AudioConfig{
		MaxSeconds: MaxSeconds,
		SampleRate: TargetSampleRate,
		Channels:   TargetChannels,
		FFmpegPath: getEnvOrDefault("FFMPEG_PATH", "ffmpeg"),
		ScratchDir: getEnvOrDefault("SCRATCH_DIR", os.TempDir()),
	}
}

// DetectionConfig 描述口吃检测模型的接入方式。URL 为空时进入降级模式。
type DetectionConfig struct {
	URL     string
	Timeout time.Duration
}

// Configured reports whether a real detection backend is reachable by configuration.
func (c DetectionConfig) Configured() bool {
	return c.URL != ""
}

func loadDetectionConfig() (DetectionConfig, error) {
	timeout, err := parseOptionalIntEnv("DETECTOR_TIMEOUT")
	if err != nil {
		return DetectionConfig{}, err
	}
	timeoutSeconds := 60
	if timeout != nil && *timeout > 0 {
		timeoutSeconds = *timeout
	}

	return DetectionConfig{
		URL:     strings.TrimRight(strings.TrimSpace(os.Getenv("DETECTOR_URL")), "/"),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

// Enabled 表示当前 provider 所需的凭证是否齐全。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
}

// MissingCredential names the env variable that must be set for the provider.
func (c AIConfig) MissingCredential() string {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "OPENAI_API_KEY"
		}
	default:
		if c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "") {
			return "ARK_API_KEY"
		}
		if c.Model == "" {
			return "ARK_MODEL"
		}
	}
	return ""
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set %s", c.MissingCredential())
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
	provider := strings.ToLower(getEnvOrDefault("GENERATION_PROVIDER", ProviderArk))
	if provider != ProviderArk && provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid GENERATION_PROVIDER value %q: want %q or %q", provider, ProviderArk, ProviderOpenAI)
	}

	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:      provider,
		APIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:         strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
	}, nil
}

// LimitsConfig bounds what a single client may submit.
type LimitsConfig struct {
	MaxUploadBytes     int64
	RateLimitPerMinute int
}

func loadLimitsConfig() (LimitsConfig, error) {
	maxUpload, err := parseOptionalIntEnv("MAX_UPLOAD_MB")
	if err != nil {
		return LimitsConfig{}, err
	}
	uploadMB := 32
	if maxUpload != nil && *maxUpload > 0 {
		uploadMB = *maxUpload
	}

	rate, err := parseOptionalIntEnv("RATE_LIMIT_PER_MINUTE")
	if err != nil {
		return LimitsConfig{}, err
	}
	perMinute := 30
	if rate != nil {
		if *rate < 0 {
			return LimitsConfig{}, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE value %d: must be >= 0", *rate)
		}
		perMinute = *rate
	}

	return LimitsConfig{
		MaxUploadBytes:     int64(uploadMB) << 20,
		RateLimitPerMinute: perMinute,
	}, nil
}

// LogConfig 控制日志输出。
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Development: dev,
	}, nil
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
