package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT",
	"COMPLETION_PROVIDER", "COMPLETION_BASE_URL", "COMPLETION_MODEL", "COMPLETION_API_KEY",
	"GROQ_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY",
	"STT_PROVIDER", "WHISPER_BINARY", "WHISPER_MODEL", "FFMPEG_BINARY", "STT_BASE_URL", "STT_MODEL",
	"FPT_AI_STT_URL", "FPT_AI_API_KEY", "GOOGLE_STT_PROJECT_ID", "GOOGLE_STT_KEY_FILE",
	"TEMP_DIR", "MAX_UPLOAD_MB", "SEARCH_URL",
}

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ProviderGroq, cfg.Completion.Provider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Completion.BaseURL)
	assert.Equal(t, "llama3-8b-8192", cfg.Completion.Model)
	assert.Equal(t, float32(0.5), cfg.Completion.Temperature)
	assert.Equal(t, STTWhisper, cfg.STT.Provider)
	assert.Equal(t, "base", cfg.STT.WhisperModel)
	assert.Equal(t, "whisper", cfg.STT.WhisperBinary)
	assert.Equal(t, 200, cfg.Storage.MaxUploadMB)
	assert.Equal(t, "https://www.duckduckgo.com/", cfg.Search.BaseURL)
}

func TestLoad_MissingAPIKeyIsNotAnError(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Completion.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("COMPLETION_MODEL", "llama-3.1-8b-instant")
	t.Setenv("STT_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_UPLOAD_MB", "50")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "gsk_test", cfg.Completion.APIKey)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Completion.Model)
	assert.Equal(t, STTOpenAI, cfg.STT.Provider)
	assert.Equal(t, "sk-test", cfg.STT.APIKey)
	assert.Equal(t, 50, cfg.Storage.MaxUploadMB)
}

func TestLoad_GeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMPLETION_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GROQ_API_KEY", "ignored")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.Completion.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.Completion.Model)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	content := `
server:
  port: "7000"
completion:
  provider: openai
  model: gpt-4o
  temperature: 0.2
stt:
  provider: fpt
storage:
  temp_dir: /tmp/videos
  cleanup_interval: 5m
  max_age: 2h
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, ProviderOpenAI, cfg.Completion.Provider)
	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Completion.BaseURL)
	assert.Equal(t, float32(0.2), cfg.Completion.Temperature)
	assert.Equal(t, STTFPT, cfg.STT.Provider)
	assert.Equal(t, "/tmp/videos", cfg.Storage.TempDir)
	assert.Equal(t, 5*time.Minute, cfg.Storage.CleanupInterval)
	assert.Equal(t, 2*time.Hour, cfg.Storage.MaxAge)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "empty config gets defaults", config: Config{}},
		{name: "gemini provider", config: Config{Completion: CompletionConfig{Provider: ProviderGemini}}},
		{name: "google stt", config: Config{STT: STTConfig{Provider: STTGoogle}}},
		{name: "unknown completion provider", config: Config{Completion: CompletionConfig{Provider: "claude"}}, wantErr: true},
		{name: "unknown stt provider", config: Config{STT: STTConfig{Provider: "vosk"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
