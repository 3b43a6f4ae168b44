package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Completion CompletionConfig `yaml:"completion"`
	STT        STTConfig        `yaml:"stt"`
	Storage    StorageConfig    `yaml:"storage"`
	Search     SearchConfig     `yaml:"search"`
}

type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CompletionConfig selects the hosted chat-completion backend.
// The API key is not validated here.
type CompletionConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type STTConfig struct {
	Provider string `yaml:"provider"`

	// whisper CLI
	WhisperBinary string `yaml:"whisper_binary"`
	WhisperModel  string `yaml:"whisper_model"`
	FFmpegBinary  string `yaml:"ffmpeg_binary"`
	Language      string `yaml:"language"`

	// hosted providers
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	FPTURL          string `yaml:"fpt_url"`
	GoogleProjectID string `yaml:"google_project_id"`
	GoogleKeyFile   string `yaml:"google_key_file"`
}

type StorageConfig struct {
	TempDir         string        `yaml:"temp_dir"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxAge          time.Duration `yaml:"max_age"`
}

type SearchConfig struct {
	BaseURL string `yaml:"base_url"`
}

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	STTWhisper = "whisper"
	STTOpenAI  = "openai"
	STTFPT     = "fpt"
	STTGoogle  = "google"
)

// Load reads an optional YAML file, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.GinMode = getEnv("GIN_MODE", c.Server.GinMode)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.Completion.Provider = strings.ToLower(getEnv("COMPLETION_PROVIDER", c.Completion.Provider))
	c.Completion.BaseURL = getEnv("COMPLETION_BASE_URL", c.Completion.BaseURL)
	c.Completion.Model = getEnv("COMPLETION_MODEL", c.Completion.Model)
	c.Completion.APIKey = getEnv("COMPLETION_API_KEY", c.Completion.APIKey)
	switch c.Completion.Provider {
	case ProviderGemini:
		c.Completion.APIKey = getEnv("GEMINI_API_KEY", c.Completion.APIKey)
	case ProviderOpenAI:
		c.Completion.APIKey = getEnv("OPENAI_API_KEY", c.Completion.APIKey)
	default:
		c.Completion.APIKey = getEnv("GROQ_API_KEY", c.Completion.APIKey)
	}

	c.STT.Provider = strings.ToLower(getEnv("STT_PROVIDER", c.STT.Provider))
	c.STT.WhisperBinary = getEnv("WHISPER_BINARY", c.STT.WhisperBinary)
	c.STT.WhisperModel = getEnv("WHISPER_MODEL", c.STT.WhisperModel)
	c.STT.FFmpegBinary = getEnv("FFMPEG_BINARY", c.STT.FFmpegBinary)
	c.STT.BaseURL = getEnv("STT_BASE_URL", c.STT.BaseURL)
	c.STT.Model = getEnv("STT_MODEL", c.STT.Model)
	c.STT.FPTURL = getEnv("FPT_AI_STT_URL", c.STT.FPTURL)
	c.STT.GoogleProjectID = getEnv("GOOGLE_STT_PROJECT_ID", c.STT.GoogleProjectID)
	c.STT.GoogleKeyFile = getEnv("GOOGLE_STT_KEY_FILE", c.STT.GoogleKeyFile)
	switch c.STT.Provider {
	case STTFPT:
		c.STT.APIKey = getEnv("FPT_AI_API_KEY", c.STT.APIKey)
	case STTOpenAI:
		c.STT.APIKey = getEnv("OPENAI_API_KEY", c.STT.APIKey)
	}

	c.Storage.TempDir = getEnv("TEMP_DIR", c.Storage.TempDir)
	if v, err := strconv.Atoi(os.Getenv("MAX_UPLOAD_MB")); err == nil {
		c.Storage.MaxUploadMB = v
	}

	c.Search.BaseURL = getEnv("SEARCH_URL", c.Search.BaseURL)
}

// Validate fills defaults and rejects unknown providers.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Completion.Provider == "" {
		c.Completion.Provider = ProviderGroq
	}
	switch c.Completion.Provider {
	case ProviderGroq:
		if c.Completion.BaseURL == "" {
			c.Completion.BaseURL = "https://api.groq.com/openai/v1"
		}
		if c.Completion.Model == "" {
			c.Completion.Model = "llama3-8b-8192"
		}
	case ProviderOpenAI:
		if c.Completion.BaseURL == "" {
			c.Completion.BaseURL = "https://api.openai.com/v1"
		}
		if c.Completion.Model == "" {
			c.Completion.Model = "gpt-4o-mini"
		}
	case ProviderGemini:
		if c.Completion.Model == "" {
			c.Completion.Model = "gemini-2.5-flash"
		}
	default:
		return fmt.Errorf("unsupported completion provider: %s. Supported: groq, openai, gemini", c.Completion.Provider)
	}
	if c.Completion.Temperature == 0 {
		c.Completion.Temperature = 0.5
	}

	if c.STT.Provider == "" {
		c.STT.Provider = STTWhisper
	}
	switch c.STT.Provider {
	case STTWhisper, STTOpenAI, STTFPT, STTGoogle:
	default:
		return fmt.Errorf("unsupported STT provider: %s. Supported: whisper, openai, fpt, google", c.STT.Provider)
	}
	if c.STT.WhisperBinary == "" {
		c.STT.WhisperBinary = "whisper"
	}
	if c.STT.WhisperModel == "" {
		c.STT.WhisperModel = "base"
	}
	if c.STT.FFmpegBinary == "" {
		c.STT.FFmpegBinary = "ffmpeg"
	}
	if c.STT.FPTURL == "" {
		c.STT.FPTURL = "https://api.fpt.ai/hmi/asr/v1"
	}

	if c.Storage.TempDir == "" {
		c.Storage.TempDir = os.TempDir()
	}
	if c.Storage.MaxUploadMB <= 0 {
		c.Storage.MaxUploadMB = 200
	}
	if c.Storage.CleanupInterval <= 0 {
		c.Storage.CleanupInterval = 10 * time.Minute
	}
	if c.Storage.MaxAge <= 0 {
		c.Storage.MaxAge = time.Hour
	}

	if c.Search.BaseURL == "" {
		c.Search.BaseURL = "https://www.duckduckgo.com/"
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
