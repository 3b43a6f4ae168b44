package ai

import (
	"fmt"

	"videoagent/internal/config"
	"videoagent/internal/logging"
)

// ProviderDisplayName is the name used in user-facing error text
func ProviderDisplayName(provider string) string {
	switch provider {
	case config.ProviderGroq:
		return "Groq"
	case config.ProviderOpenAI:
		return "OpenAI"
	case config.ProviderGemini:
		return "Gemini"
	default:
		return provider
	}
}

// NewCompleter creates the configured completion backend
func NewCompleter(cfg config.CompletionConfig, log logging.Logger) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		return NewClient(ClientOptions{
			Provider:    ProviderDisplayName(cfg.Provider),
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, log), nil
	case config.ProviderGemini:
		return NewGeminiClient(cfg.APIKey, cfg.BaseURL, cfg.Temperature, log), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
}
